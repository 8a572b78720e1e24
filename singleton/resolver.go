// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package singleton

import (
	"sort"

	"github.com/MKhiriev/syncvault/internal/clock"
	"github.com/MKhiriev/syncvault/internal/logger"
	"github.com/MKhiriev/syncvault/item"
)

// InsertFunc creates and indexes a brand-new item, returning it. A
// [Registration]'s CreateBlock receives one of these rather than
// constructing an Item directly, so the resolver controls identity
// generation and store insertion.
type InsertFunc func(contentType string, content item.Content) *item.Item

// DeleteAndDirtyFunc marks a losing duplicate deleted and dirty so the next
// sync cycle reaps it.
type DeleteAndDirtyFunc func(it *item.Item)

// TriggerSyncFunc requests an additional sync cycle, used after the
// resolver marks duplicates for deletion.
type TriggerSyncFunc func()

// Registration describes one singleton: the predicate set that defines
// membership, a callback invoked with the current winner whenever one is
// (re)bound, and a CreateBlock invoked to manufacture the first instance
// when, after a retrieved or saved batch, no item in it matches, the
// registration has no bound winner, and no create is already pending.
// Items that are only in the local store are not consulted.
type Registration struct {
	Predicates         []item.Predicate
	ResolutionCallback func(winner *item.Item)
	CreateBlock        func(insert InsertFunc)
}

type registrationState struct {
	reg            Registration
	bound          *item.Item
	createInFlight bool
}

// Resolver tracks one bound winner per [Registration] and re-evaluates all
// registrations whenever [Resolver.Evaluate] is called — which the host
// application should do both on sync:completed and once after initial
// local data load.
type Resolver struct {
	clk           clock.Clock
	log           *logger.Logger
	registrations []*registrationState
}

// NewResolver constructs an empty Resolver. log may be nil.
func NewResolver(clk clock.Clock, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{clk: clk, log: log}
}

// Register adds reg to the set of singletons this resolver maintains.
func (r *Resolver) Register(reg Registration) {
	r.registrations = append(r.registrations, &registrationState{reg: reg})
}

// Evaluate re-checks every registration against the outcome of a sync
// cycle (retrieved and saved items) and the full local item set. insert,
// deleteAndDirty, and triggerSync are the side-effecting collaborators the
// resolver needs but does not own: store insertion, store mutation, and
// sync-cycle scheduling respectively.
func (r *Resolver) Evaluate(retrieved, saved, allLocal []*item.Item, insert InsertFunc, deleteAndDirty DeleteAndDirtyFunc, triggerSync TriggerSyncFunc) {
	for _, state := range r.registrations {
		r.evaluateOne(state, retrieved, saved, allLocal, insert, deleteAndDirty, triggerSync)
	}
}

func (r *Resolver) evaluateOne(state *registrationState, retrieved, saved, allLocal []*item.Item, insert InsertFunc, deleteAndDirty DeleteAndDirtyFunc, triggerSync TriggerSyncFunc) {
	remoteMatchCount := r.countMatches(state.reg.Predicates, retrieved) + r.countMatches(state.reg.Predicates, saved)

	if remoteMatchCount >= 1 {
		matches := r.filterMatches(state.reg.Predicates, allLocal)
		switch {
		case len(matches) >= 2:
			sort.Slice(matches, func(i, j int) bool {
				return matches[i].CreatedAt.Before(matches[j].CreatedAt)
			})
			winner := matches[0]
			for _, dup := range matches[1:] {
				deleteAndDirty(dup)
			}
			if triggerSync != nil {
				triggerSync()
			}
			state.bound = winner
			if state.reg.ResolutionCallback != nil {
				state.reg.ResolutionCallback(winner)
			}
		case len(matches) == 1 && state.bound == nil:
			state.bound = matches[0]
			if state.reg.ResolutionCallback != nil {
				state.reg.ResolutionCallback(matches[0])
			}
		}
		return
	}

	if state.bound != nil || state.createInFlight || state.reg.CreateBlock == nil {
		return
	}

	state.createInFlight = true
	state.reg.CreateBlock(func(contentType string, content item.Content) *item.Item {
		created := insert(contentType, content)
		state.bound = created
		state.createInFlight = false
		if state.reg.ResolutionCallback != nil {
			state.reg.ResolutionCallback(created)
		}
		return created
	})
}

func (r *Resolver) countMatches(predicates []item.Predicate, items []*item.Item) int {
	count := 0
	for _, it := range items {
		if r.matches(predicates, it) {
			count++
		}
	}
	return count
}

func (r *Resolver) filterMatches(predicates []item.Predicate, items []*item.Item) []*item.Item {
	var out []*item.Item
	for _, it := range items {
		if r.matches(predicates, it) {
			out = append(out, it)
		}
	}
	return out
}

// matches reports whether it satisfies every predicate (logical AND). A
// predicate that fails to evaluate (unknown operator, type mismatch) is
// treated as not matching rather than aborting the whole check, and is
// logged so a misconfigured registration is visible without taking down
// resolution for well-formed items.
func (r *Resolver) matches(predicates []item.Predicate, it *item.Item) bool {
	for _, p := range predicates {
		ok, err := p.Evaluate(it, r.clk)
		if err != nil {
			r.log.Debug().Err(err).Str("uuid", it.UUID).Str("keypath", p.KeyPath).Msg("singleton predicate evaluation failed")
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}
