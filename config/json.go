// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// jsonConfig is the JSON-specific representation of [Config]. It mirrors
// Config but uses JSON struct tags and the [Duration] wrapper so duration
// values can be expressed as human-readable strings (e.g. "500ms", "5s") in
// the config file. After decoding, values are mapped into a [Config] by
// [parseJSON].
type jsonConfig struct {
	SyncEngine struct {
		BatchCap             int      `json:"batch_cap"`
		PageLimit            int      `json:"page_limit"`
		WatchdogInterval     Duration `json:"watchdog_interval"`
		WatchdogThreshold    Duration `json:"watchdog_threshold"`
		ContinuationDelay    Duration `json:"continuation_delay"`
		MajorChangeThreshold int      `json:"major_change_threshold"`
		BulkLoadChunkSize    int      `json:"bulk_load_chunk_size"`
	} `json:"sync_engine,omitempty"`

	Crypto struct {
		MinPwCost003 int `json:"min_pw_cost_003"`
	} `json:"crypto,omitempty"`
}

// parseJSON opens the JSON file at path, decodes it into a [jsonConfig], and
// maps the result into a [Config].
func parseJSON(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: error reading json file: %w", err)
	}
	defer f.Close()

	var jc jsonConfig
	if err := json.NewDecoder(f).Decode(&jc); err != nil {
		return nil, fmt.Errorf("config: error decoding json config: %w", err)
	}

	return &Config{
		SyncEngine: SyncEngine{
			BatchCap:             jc.SyncEngine.BatchCap,
			PageLimit:            jc.SyncEngine.PageLimit,
			WatchdogInterval:     time.Duration(jc.SyncEngine.WatchdogInterval),
			WatchdogThreshold:    time.Duration(jc.SyncEngine.WatchdogThreshold),
			ContinuationDelay:    time.Duration(jc.SyncEngine.ContinuationDelay),
			MajorChangeThreshold: jc.SyncEngine.MajorChangeThreshold,
			BulkLoadChunkSize:    jc.SyncEngine.BulkLoadChunkSize,
		},
		Crypto: Crypto{
			MinPwCost003: jc.Crypto.MinPwCost003,
		},
		// JSONFilePath is intentionally left empty so it is not reprocessed
		// on the next withJSON pass.
	}, nil
}

// Duration is a thin wrapper around [time.Duration] that adds JSON
// unmarshaling support for human-readable duration strings ("500ms", "5s"),
// in addition to raw nanosecond integers.
type Duration time.Duration

// UnmarshalJSON implements [json.Unmarshaler] for Duration.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

// MarshalJSON implements [json.Marshaler] for Duration.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
