// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package item

import "github.com/google/uuid"

// UUIDGenerator creates client-side item identifiers.
//
// Identifiers must be UUID v4 (randomly generated, not time-ordered):
// sequential UUIDs would leak item creation order to anyone who can see the
// identifiers, which a zero-knowledge sync protocol should not do.
type UUIDGenerator interface {
	Generate() string
}

// RandomUUIDGenerator is the production [UUIDGenerator], backed by
// github.com/google/uuid's version-4 generator.
type RandomUUIDGenerator struct{}

// NewUUIDGenerator returns a new [RandomUUIDGenerator]. It has no internal
// state; constructing one is inexpensive and instances are interchangeable.
func NewUUIDGenerator() *RandomUUIDGenerator {
	return &RandomUUIDGenerator{}
}

// Generate implements [UUIDGenerator].
func (RandomUUIDGenerator) Generate() string {
	return uuid.New().String()
}

// StubUUIDGenerator is a deterministic [UUIDGenerator] for tests: it returns
// values from a fixed list in order, then repeats the last value if
// exhausted.
type StubUUIDGenerator struct {
	values []string
	next   int
}

// NewStubUUIDGenerator returns a [StubUUIDGenerator] that yields values in
// order.
func NewStubUUIDGenerator(values ...string) *StubUUIDGenerator {
	return &StubUUIDGenerator{values: values}
}

// Generate implements [UUIDGenerator].
func (s *StubUUIDGenerator) Generate() string {
	if len(s.values) == 0 {
		return ""
	}
	if s.next >= len(s.values) {
		return s.values[len(s.values)-1]
	}
	v := s.values[s.next]
	s.next++
	return v
}
