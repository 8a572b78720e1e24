// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package item defines the local model of a single synced record: its
// content, references to other items, dirty-tracking state, and the
// predicate language used to select items for singleton resolution and
// application queries.
//
// An Item is a value owned exclusively by a model store; every other
// component holds it by UUID and looks it up rather than caching a pointer
// across mutations, so that reference remapping (UUID alternation) never
// leaves a stale handle behind.
package item
