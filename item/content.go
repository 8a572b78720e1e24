// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package item

// Content is an application-defined JSON object. The only key the item
// model itself understands is "references"; every other key is opaque
// payload the application interprets by ContentType.
type Content map[string]any

const referencesKey = "references"

// Reference points at another item by UUID. ContentType is carried
// alongside the UUID so a collaborator can dispatch on the referenced
// item's kind without a lookup.
type Reference struct {
	UUID        string `json:"uuid"`
	ContentType string `json:"content_type"`
}

// References extracts the "references" array from c. Malformed or absent
// entries are silently skipped rather than erroring — content is
// application-owned and tolerant parsing here keeps one bad reference from
// breaking mapping of the rest of the record.
func (c Content) References() []Reference {
	raw, ok := c[referencesKey]
	if !ok {
		return nil
	}

	var out []Reference
	switch refs := raw.(type) {
	case []Reference:
		return append([]Reference(nil), refs...)
	case []any:
		for _, entry := range refs {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			ref := Reference{}
			if uuid, ok := m["uuid"].(string); ok {
				ref.UUID = uuid
			}
			if ct, ok := m["content_type"].(string); ok {
				ref.ContentType = ct
			}
			if ref.UUID != "" {
				out = append(out, ref)
			}
		}
	}
	return out
}

// SetReferences replaces the "references" array in c.
func (c Content) SetReferences(refs []Reference) {
	c[referencesKey] = refs
}

// Clone returns a deep copy of c so that mutating the copy never affects
// the item it was taken from.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	return deepCopyMap(c)
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case Content:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	case []Reference:
		out := make([]Reference, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

func deepCopyMap[M ~map[string]any](m M) M {
	out := make(M, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

// mergeInto deep-merges src into dst, overwriting scalar and array values
// but recursing into nested objects so unrelated keys on either side
// survive the merge. This backs updateFromJSON's content deep-merge.
func mergeInto(dst, src map[string]any) {
	for k, sv := range src {
		if dm, ok := dst[k].(map[string]any); ok {
			if sm, ok := sv.(map[string]any); ok {
				mergeInto(dm, sm)
				continue
			}
		}
		dst[k] = deepCopyValue(sv)
	}
}
