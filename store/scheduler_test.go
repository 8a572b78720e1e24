// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store_test

import (
	"testing"

	"github.com/MKhiriev/syncvault/store"
	"github.com/stretchr/testify/assert"
)

func TestImmediateScheduler_RunsSynchronously(t *testing.T) {
	ran := false
	store.ImmediateScheduler{}.RunSoon(func() { ran = true })
	assert.True(t, ran)
}

func TestQueueScheduler_DefersUntilPump(t *testing.T) {
	q := store.NewQueueScheduler()
	ran := false
	q.RunSoon(func() { ran = true })

	assert.False(t, ran)
	assert.Equal(t, 1, q.Pending())

	q.Pump()
	assert.True(t, ran)
	assert.Equal(t, 0, q.Pending())
}

func TestQueueScheduler_CallbackScheduledDuringPumpWaitsForNextPump(t *testing.T) {
	q := store.NewQueueScheduler()
	inner := false
	q.RunSoon(func() {
		q.RunSoon(func() { inner = true })
	})

	q.Pump()
	assert.False(t, inner, "a callback scheduled during Pump must not run re-entrantly")

	q.Pump()
	assert.True(t, inner)
}
