// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package singleton maintains at-most-one-instance invariants over the
// item graph: a registration names a predicate set, and the [Resolver]
// deduplicates down to a single "winner" after every sync and on initial
// load, creating one if none exists yet.
package singleton
