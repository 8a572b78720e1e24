// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package item

import "errors"

// Sentinel errors returned by this package. Callers should use [errors.Is]
// to match against these values.
var (
	// ErrInvalidTimestamp is returned when a record's created_at/updated_at
	// field is present but not a parseable RFC3339 timestamp.
	ErrInvalidTimestamp = errors.New("item: invalid timestamp value")

	// ErrUnknownOperator is returned when a [Predicate] names an operator
	// this package does not implement.
	ErrUnknownOperator = errors.New("item: unknown predicate operator")

	// ErrInvalidPredicateValue is returned when a predicate's comparison
	// value is not of a type the operator can evaluate (e.g. a numeric
	// comparison against a non-numeric field).
	ErrInvalidPredicateValue = errors.New("item: invalid predicate value")
)
