// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncengine

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/syncvault/crypto"
	"github.com/MKhiriev/syncvault/internal/clock"
	"github.com/MKhiriev/syncvault/internal/logger"
	"github.com/MKhiriev/syncvault/item"
	"github.com/MKhiriev/syncvault/persistence"
	"github.com/MKhiriev/syncvault/store"
	"github.com/MKhiriev/syncvault/transport"
)

// engineState tracks the at-most-one-in-flight-request invariant. A Sync
// call arriving while a cycle is already running never starts a second one;
// it either joins the queued repeat or, if one is already queued, waits on
// it too.
type engineState int

const (
	stateIdle engineState = iota
	stateInFlight
	stateInFlightQueuedRepeat
)

type cycleOutcome struct {
	payload CompletedPayload
	err     error
}

// Stats accumulates bookkeeping across completed cycles, for the backup
// tooling a major-data-change event is meant to feed. The engine updates
// Cycles and LastSyncDuration; it does not update BytesSent or
// BytesReceived, which stay zero.
type Stats struct {
	Cycles           int
	LastSyncDuration time.Duration
	BytesSent        int64
	BytesReceived    int64
}

// Params constructs an [Engine]. Store, Transport, and KeySource have no
// usable zero value and must be supplied; a nil Local skips every local
// persistence step. Clock, RandomSource, UUIDGenerator, and Logger default
// to their production implementations.
type Params struct {
	Store     *store.ModelStore
	Transport transport.SyncTransport
	Local     persistence.LocalStore
	KeySource KeySource

	Clock         clock.Clock
	RandomSource  crypto.RandomSource
	UUIDGenerator item.UUIDGenerator
	Config        Config
	Logger        *logger.Logger
}

// Engine drives the sync cycle described in the package doc: collecting the
// dirty set, encrypting it, talking to transport, and folding the response
// back into the store. An Engine is safe for concurrent use; [Engine.Sync]
// enforces the at-most-one-in-flight invariant itself.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	locked  bool
	waiters []chan cycleOutcome

	store     *store.ModelStore
	codec     *crypto.Codec
	rng       crypto.RandomSource
	transport transport.SyncTransport
	local     persistence.LocalStore
	keySource KeySource
	clk       clock.Clock
	uuidGen   item.UUIDGenerator
	cfg       Config
	log       *logger.Logger

	itemKeys         map[string]crypto.ItemKey
	syncToken        *string
	cursorToken      *string
	resendTimestamps map[string]struct{}

	observers []Observer
	stats     Stats
}

// New constructs an Engine from p.
func New(p Params) *Engine {
	if p.Clock == nil {
		p.Clock = clock.System{}
	}
	if p.RandomSource == nil {
		p.RandomSource = crypto.SystemRandom{}
	}
	if p.UUIDGenerator == nil {
		p.UUIDGenerator = item.NewUUIDGenerator()
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}

	return &Engine{
		store:            p.Store,
		codec:            crypto.NewCodec(p.RandomSource),
		rng:              p.RandomSource,
		transport:        p.Transport,
		local:            p.Local,
		keySource:        p.KeySource,
		clk:              p.Clock,
		uuidGen:          p.UUIDGenerator,
		cfg:              p.Config.withDefaults(),
		log:              p.Logger,
		itemKeys:         map[string]crypto.ItemKey{},
		resendTimestamps: map[string]struct{}{},
	}
}

// Lock refuses any further [Engine.Sync] calls with [ErrSyncLocked] until
// [Engine.Unlock] is called. A cycle already in flight when Lock is called
// is allowed to finish; only new calls are rejected. Intended for sign-out:
// stop accepting new sync work while the rest of sign-out tears down state.
func (e *Engine) Lock() {
	e.mu.Lock()
	e.locked = true
	e.mu.Unlock()
}

// Unlock reverses [Engine.Lock].
func (e *Engine) Unlock() {
	e.mu.Lock()
	e.locked = false
	e.mu.Unlock()
}

// RegisterObserver adds obs to the set notified of every [Event]. Observers
// run synchronously, in registration order, on whichever goroutine's call to
// Sync (or BulkLoad) produced the event.
func (e *Engine) RegisterObserver(obs Observer) {
	e.mu.Lock()
	e.observers = append(e.observers, obs)
	e.mu.Unlock()
}

// Stats returns a snapshot of cumulative sync bookkeeping.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Sync runs a sync cycle to completion, including any continuation rounds
// (paging via cursor_token, or needsMoreSync: over-cap dirty items deferred
// from this round, or a scheduled timestamp resubmission). If a cycle
// is already in flight on another goroutine, this call does not start a
// second one: it marks a repeat to run immediately after the current cycle
// settles, and waits for that repeat's outcome instead. Returns
// [ErrSyncLocked] immediately if the engine has been locked via
// [Engine.Lock].
func (e *Engine) Sync(ctx context.Context) (CompletedPayload, error) {
	e.mu.Lock()
	if e.locked {
		e.mu.Unlock()
		return CompletedPayload{}, ErrSyncLocked
	}

	if e.state == stateIdle {
		e.state = stateInFlight
		e.mu.Unlock()
		return e.drive(ctx)
	}

	e.state = stateInFlightQueuedRepeat
	wait := make(chan cycleOutcome, 1)
	e.waiters = append(e.waiters, wait)
	e.mu.Unlock()

	select {
	case out := <-wait:
		return out.payload, out.err
	case <-ctx.Done():
		return CompletedPayload{}, ctx.Err()
	}
}

// drive runs one cycle, then keeps running repeats for as long as other
// callers queued one while a cycle was in flight, broadcasting each repeat's
// outcome to everyone waiting on it.
func (e *Engine) drive(ctx context.Context) (CompletedPayload, error) {
	payload, err := e.runUntilSettled(ctx)

	for {
		e.mu.Lock()
		if e.state != stateInFlightQueuedRepeat {
			e.state = stateIdle
			e.mu.Unlock()
			return payload, err
		}

		e.state = stateInFlight
		waiters := e.waiters
		e.waiters = nil
		e.mu.Unlock()

		payload, err = e.runUntilSettled(ctx)

		out := cycleOutcome{payload: payload, err: err}
		for _, w := range waiters {
			w <- out
		}
	}
}

func (e *Engine) emit(ev Event) {
	e.mu.Lock()
	observers := append([]Observer(nil), e.observers...)
	e.mu.Unlock()

	for _, obs := range observers {
		obs(ev)
	}
}
