// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
)

// builder accumulates partial [Config] values from different sources and
// merges them into a single configuration on [builder.build].
//
// The builder follows the fluent-interface pattern: each with* method
// appends a config source and returns the same *builder so calls can be
// chained. Any error encountered during a with* step is stored in err and
// causes build to fail-fast without attempting to merge.
type builder struct {
	configs []*Config
	err     error
}

func newBuilder() *builder {
	return &builder{configs: make([]*Config, 0, 3)}
}

// build merges all accumulated partial configurations into a single [Config]
// and validates the result. Merge order follows the order sources were
// appended: the first source provides the base, and each subsequent source
// fills in only the zero-value fields of the accumulator (mergo.Merge
// default behaviour).
func (b *builder) build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("config: error occurred building config: %w", b.err)
	}

	cfg := new(Config)
	for _, c := range b.configs {
		if err := mergo.Merge(cfg, c); err != nil {
			return nil, fmt.Errorf("config: error merging configs: %w", err)
		}
	}

	return cfg, cfg.validate()
}

func (b *builder) withEnv() *builder {
	envCfg := &Config{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, envCfg)
	return b
}

// withFlags parses command-line flags via [ParseFlags] and appends the
// resulting [Config] to the builder. Flag parsing never returns an error
// directly; unset flags keep their zero value and are overridden by
// whatever source eventually supplies one.
func (b *builder) withFlags() *builder {
	b.configs = append(b.configs, ParseFlags())
	return b
}

// withJSON looks for a non-empty JSONFilePath field across all configs
// accumulated so far, and if found, parses that JSON file via [parseJSON],
// appending the result to the builder. When multiple sources specify a
// JSONFilePath, the last non-empty value wins.
func (b *builder) withJSON() *builder {
	var jsonPath string
	for _, c := range b.configs {
		if c.JSONFilePath != "" {
			jsonPath = c.JSONFilePath
		}
	}
	if jsonPath == "" {
		return b
	}

	jsonCfg, err := parseJSON(jsonPath)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, jsonCfg)
	return b
}
