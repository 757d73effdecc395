// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: hostloop/loop.go
// Summary: Single-goroutine task loop acting as the host's execution context.
// Usage: Headless hosts run it on their main goroutine; tests start it in the background.

package hostloop

import (
	"errors"
	"sync"
)

const DefaultCapacity = 256

var ErrStopped = errors.New("hostloop: stopped")

// Loop runs posted functions one at a time, in post order, on the goroutine
// that calls Run.
type Loop struct {
	tasks    chan func()
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once
}

// NewLoop creates a loop whose task queue holds capacity entries.
func NewLoop(capacity int) *Loop {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Loop{
		tasks: make(chan func(), capacity),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Post queues fn. It blocks while the queue is full and returns false once
// the loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.stop:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.stop:
		return false
	}
}

// Run executes tasks until Stop is called. Tasks still queued at that point
// are discarded. Run may only be called once.
func (l *Loop) Run() error {
	started := false
	l.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("hostloop: already running")
	}
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return nil
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start() {
	go func() { _ = l.Run() }()
}

// Stop ends the loop. It does not wait; use Done for that.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.stop:
		return ErrStopped
	}
}
