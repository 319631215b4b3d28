// Copyright 2026 The Passbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source. Everything in the
// harness that stamps output — metadata sidecars, ledger records,
// result rows, dated summary filenames — reads time through a Clock so
// tests can pin it.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source. Production code injects Real(); tests
// inject a Fake pinned to a known instant.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by time.Now.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Fake returns a deterministic Clock frozen at the given instant.
// Advance moves it forward; it never moves on its own.
//
// A FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is the test Clock. The zero value reads as the zero time;
// construct with Fake to start somewhere meaningful.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// Now returns the pinned instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set pins the clock to a specific instant.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
