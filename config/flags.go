// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"flag"
	"time"
)

// ParseFlags parses the subset of [Config] that makes sense to override at
// process launch.
//
// Flags:
//
//	-sync-batch-cap             maximum dirty items submitted per request
//	-sync-page-limit            retrieved-items page size
//	-sync-watchdog-interval     watchdog polling granularity (e.g. "500ms")
//	-sync-watchdog-threshold    watchdog taking-too-long threshold (e.g. "5s")
//	-crypto-min-pw-cost-003     minimum PBKDF2 cost accepted for version "003"
//	-c/-config                  JSON config file path
func ParseFlags() *Config {
	var batchCap, pageLimit, minPwCost003 int
	var watchdogInterval, watchdogThreshold time.Duration
	var jsonConfigPath string

	flag.IntVar(&batchCap, "sync-batch-cap", 0, "Maximum dirty items submitted per sync request")
	flag.IntVar(&pageLimit, "sync-page-limit", 0, "Retrieved-items page size")
	flag.DurationVar(&watchdogInterval, "sync-watchdog-interval", 0, "Watchdog polling granularity, e.g. 500ms")
	flag.DurationVar(&watchdogThreshold, "sync-watchdog-threshold", 0, "Watchdog taking-too-long threshold, e.g. 5s")
	flag.IntVar(&minPwCost003, "crypto-min-pw-cost-003", 0, "Minimum PBKDF2 cost accepted for protocol version 003")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &Config{
		SyncEngine: SyncEngine{
			BatchCap:          batchCap,
			PageLimit:         pageLimit,
			WatchdogInterval:  watchdogInterval,
			WatchdogThreshold: watchdogThreshold,
		},
		Crypto: Crypto{
			MinPwCost003: minPwCost003,
		},
		JSONFilePath: jsonConfigPath,
	}
}
