// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package item

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/syncvault/internal/clock"
)

// Operator is one comparison an [Predicate] can apply.
type Operator string

const (
	OpEqual       Operator = "="
	OpLessThan    Operator = "<"
	OpGreaterThan Operator = ">"
	OpLessEqual   Operator = "<="
	OpGreaterEq   Operator = ">="
	OpStartsWith  Operator = "startsWith"
	OpIn          Operator = "in"
	OpIncludes    Operator = "includes"
	OpMatches     Operator = "matches"
)

// Predicate is a single (keypath, operator, value) test evaluated against
// an item. KeyPath addresses a field by dotted path: top-level item fields
// ("uuid", "content_type", "deleted", "created_at", "updated_at"),
// content fields under "content." (e.g. "content.title"), and app-data
// under "appData.<domain>.<key>".
//
// For [OpIncludes], Value must itself be a *Predicate, evaluated against
// each element of the sequence found at KeyPath; the predicate matches if
// at least one element satisfies the nested predicate.
type Predicate struct {
	KeyPath  string
	Operator Operator
	Value    any
}

// Evaluate tests p against it. now supplies the reference point for
// relative-date values like "3.days.ago" so evaluation is deterministic
// under a stubbed [clock.Clock].
func (p Predicate) Evaluate(it *Item, now clock.Clock) (bool, error) {
	subject := itemToSubject(it)
	return evaluateAgainst(subject, p, now)
}

func evaluateAgainst(subject any, p Predicate, now clock.Clock) (bool, error) {
	actual, found := resolveKeyPath(subject, p.KeyPath)

	switch p.Operator {
	case OpEqual:
		return found && valuesEqual(actual, resolveComparisonValue(p.Value, now)), nil
	case OpStartsWith:
		as, ok1 := actual.(string)
		vs, ok2 := p.Value.(string)
		if !ok1 || !ok2 {
			return false, fmt.Errorf("%w: startsWith requires string operands", ErrInvalidPredicateValue)
		}
		return strings.HasPrefix(as, vs), nil
	case OpMatches:
		as, ok1 := actual.(string)
		pattern, ok2 := p.Value.(string)
		if !ok1 || !ok2 {
			return false, fmt.Errorf("%w: matches requires string operands", ErrInvalidPredicateValue)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("%w: invalid regexp %q: %v", ErrInvalidPredicateValue, pattern, err)
		}
		return re.MatchString(as), nil
	case OpIn:
		values, ok := p.Value.([]any)
		if !ok {
			return false, fmt.Errorf("%w: in requires a list value", ErrInvalidPredicateValue)
		}
		for _, v := range values {
			if valuesEqual(actual, resolveComparisonValue(v, now)) {
				return true, nil
			}
		}
		return false, nil
	case OpIncludes:
		nested, ok := p.Value.(*Predicate)
		if !ok {
			return false, fmt.Errorf("%w: includes requires a nested predicate value", ErrInvalidPredicateValue)
		}
		seq, ok := toAnySlice(actual)
		if !ok {
			return false, nil
		}
		for _, elem := range seq {
			matched, err := evaluateAgainst(elem, *nested, now)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil
	case OpLessThan, OpGreaterThan, OpLessEqual, OpGreaterEq:
		return compareOrdered(actual, resolveComparisonValue(p.Value, now), p.Operator)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, p.Operator)
	}
}

// resolveComparisonValue resolves relative-date strings ("<n>.days.ago",
// "<n>.hours.ago") against now; any other value passes through unchanged.
func resolveComparisonValue(v any, now clock.Clock) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if t, ok := resolveRelativeDate(s, now); ok {
		return t
	}
	return v
}

var relativeDatePattern = regexp.MustCompile(`^(\d+)\.(days|hours)\.ago$`)

func resolveRelativeDate(s string, now clock.Clock) (time.Time, bool) {
	m := relativeDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	var d time.Duration
	switch m[2] {
	case "days":
		d = time.Duration(n) * 24 * time.Hour
	case "hours":
		d = time.Duration(n) * time.Hour
	}
	return now.Now().Add(-d), true
}

func compareOrdered(actual, value any, op Operator) (bool, error) {
	af, aok := toComparableNumberOrTime(actual)
	vf, vok := toComparableNumberOrTime(value)
	if !aok || !vok {
		return false, fmt.Errorf("%w: ordered comparison requires numeric or time operands", ErrInvalidPredicateValue)
	}
	switch op {
	case OpLessThan:
		return af < vf, nil
	case OpGreaterThan:
		return af > vf, nil
	case OpLessEqual:
		return af <= vf, nil
	case OpGreaterEq:
		return af >= vf, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
}

func toComparableNumberOrTime(v any) (float64, bool) {
	switch t := v.(type) {
	case time.Time:
		return float64(t.UnixNano()), true
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

// toAnySlice normalizes the handful of concrete slice types a predicate
// subject can surface (raw JSON arrays, or typed []Reference from content
// already round-tripped through [Content.References]) into []any so
// OpIncludes can iterate uniformly.
func toAnySlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []Reference:
		out := make([]any, len(t))
		for i, r := range t {
			out[i] = map[string]any{"uuid": r.UUID, "content_type": r.ContentType}
		}
		return out, true
	default:
		return nil, false
	}
}

func valuesEqual(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
		return false
	}
	return a == b
}

// itemToSubject flattens an item into the generic map[string]any shape
// predicates are evaluated against: top-level fields plus "content" and
// "appData" sub-objects.
func itemToSubject(it *Item) map[string]any {
	return map[string]any{
		"uuid":         it.UUID,
		"content_type": it.ContentType,
		"deleted":      it.Deleted,
		"created_at":   it.CreatedAt,
		"updated_at":   it.UpdatedAt,
		"content":      map[string]any(it.Content),
		"appData":      appDataToAny(it.AppData),
	}
}

func appDataToAny(a AppData) map[string]any {
	out := make(map[string]any, len(a))
	for domain, kv := range a {
		out[domain] = map[string]any(kv)
	}
	return out
}

// resolveKeyPath walks a dotted path ("content.title", "appData.x.y")
// through subject, which may be a map[string]any or, for nested includes
// evaluation, any value produced by a prior step.
func resolveKeyPath(subject any, keypath string) (any, bool) {
	segments := strings.Split(keypath, ".")
	cur := subject
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
