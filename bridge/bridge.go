// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: bridge/bridge.go
// Summary: Delivers engine notifications from arbitrary goroutines to one host handler.
// Usage: Engines call Emit (usually through Notifier); the host installs a Registration.
// Notes: Lossy by policy. Events with no live registration, a full queue, or a retired
// registration are dropped and counted, never reported to the producer.

package bridge

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/framegrace/ghostbridge/event"
)

const (
	DefaultQueueSize      = 1024
	DefaultHandoffTimeout = 5 * time.Millisecond
)

var ErrClosed = errors.New("bridge: closed")

// Handler receives events on the host loop.
type Handler func(event.Event)

// Executor runs functions on the host's loop goroutine in the order they were
// posted. Post returns false when the loop no longer accepts work.
type Executor interface {
	Post(fn func()) bool
}

// Registration is the single delivery target of a Bridge.
type Registration struct {
	Handler  Handler
	Executor Executor
	// Release runs once on the executor after the registration has been
	// replaced or torn down and can no longer be invoked.
	Release func()
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithQueueSize bounds the number of events waiting for delivery per registration.
func WithQueueSize(size int) Option {
	return func(b *Bridge) {
		if size > 0 {
			b.queueSize = size
		}
	}
}

// WithHandoffTimeout bounds how long Emit waits for room in a full queue.
// Zero makes Emit drop immediately when the queue is full.
func WithHandoffTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d >= 0 {
			b.handoff = d
		}
	}
}

// Bridge is the cross-goroutine event channel. Create one per process with
// New, hand it to the engine and the facade, and Close it at shutdown.
type Bridge struct {
	queueSize int
	handoff   time.Duration

	mu      sync.Mutex // guards current and closed only
	current *registration
	closed  bool
	nextID  uint64

	stats counters
}

// New creates a bridge with no registration.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		queueSize: DefaultQueueSize,
		handoff:   DefaultHandoffTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type registration struct {
	id      uint64
	handler Handler
	exec    Executor
	release func()

	queue   chan event.Event
	done    chan struct{}
	retired atomic.Bool
	once    sync.Once
	stats   *counters
}

// SetHandler installs reg, replacing and retiring any previous registration.
// Events still queued for the previous registration are dropped.
func (b *Bridge) SetHandler(reg Registration) error {
	if reg.Handler == nil || reg.Executor == nil {
		return errors.New("bridge: registration needs a handler and an executor")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.nextID++
	next := &registration{
		id:      b.nextID,
		handler: reg.Handler,
		exec:    reg.Executor,
		release: reg.Release,
		queue:   make(chan event.Event, b.queueSize),
		done:    make(chan struct{}),
		stats:   &b.stats,
	}
	prev := b.current
	b.current = next
	b.mu.Unlock()

	b.stats.registrations.Add(1)
	go next.pump()
	if prev != nil {
		prev.retire()
	}
	debugLog.Printf("Bridge: registration %d installed", next.id)
	return nil
}

// ClearHandler tears down the current registration.
func (b *Bridge) ClearHandler() {
	b.mu.Lock()
	prev := b.current
	b.current = nil
	b.mu.Unlock()
	if prev != nil {
		prev.retire()
	}
}

// Registered reports whether a handler is installed.
func (b *Bridge) Registered() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current != nil
}

// Close tears down the current registration. Later SetHandler calls fail and
// later events are dropped.
func (b *Bridge) Close() {
	b.mu.Lock()
	prev := b.current
	b.current = nil
	b.closed = true
	b.mu.Unlock()
	if prev != nil {
		prev.retire()
	}
}

// Emit hands ev to the current registration. It may be called from any
// goroutine. It never blocks on the handler; when the queue is full it waits
// at most the handoff timeout, outside the registration lock, then drops ev.
func (b *Bridge) Emit(ev event.Event) {
	b.stats.emitted.Add(1)

	b.mu.Lock()
	reg := b.current
	b.mu.Unlock()

	if reg == nil {
		b.stats.droppedNoHandler.Add(1)
		return
	}

	select {
	case reg.queue <- ev:
		b.enqueued(reg)
		return
	case <-reg.done:
		b.stats.droppedRetired.Add(1)
		return
	default:
	}

	if b.handoff <= 0 {
		b.dropFull(ev)
		return
	}
	timer := time.NewTimer(b.handoff)
	defer timer.Stop()
	select {
	case reg.queue <- ev:
		b.enqueued(reg)
	case <-reg.done:
		b.stats.droppedRetired.Add(1)
	case <-timer.C:
		b.dropFull(ev)
	}
}

// enqueued accounts for an event that made it into reg's queue. A send can
// win against a concurrent retire, after which the pump may already have
// drained; draining again here keeps every queued event counted exactly once.
func (b *Bridge) enqueued(reg *registration) {
	b.stats.enqueued.Add(1)
	if reg.retired.Load() {
		reg.drain()
	}
}

func (b *Bridge) dropFull(ev event.Event) {
	n := b.stats.droppedFull.Add(1)
	// Log the first drop and then every 1024th to keep storms quiet.
	if n == 1 || n%1024 == 0 {
		debugLog.Printf("Bridge: queue full, dropped %s for surface %d (total %d)", ev.Kind(), ev.SurfaceID, n)
	}
}

// retire stops delivery to r. Safe to call more than once.
func (r *registration) retire() {
	r.once.Do(func() {
		r.retired.Store(true)
		close(r.done)
		debugLog.Printf("Bridge: registration %d retired", r.id)
		if r.release == nil {
			return
		}
		// Release queues behind any in-flight delivery. Post may block on a
		// full executor and the caller is often the host loop itself, so it
		// is posted from its own goroutine.
		go func() {
			if !r.exec.Post(r.release) {
				r.release()
			}
		}()
	})
}

// pump moves queued events to the host loop one at a time so the executor
// sees them in queue order.
func (r *registration) pump() {
	for {
		select {
		case <-r.done:
			r.drain()
			return
		case ev := <-r.queue:
			ran := make(chan struct{})
			posted := r.exec.Post(func() {
				defer close(ran)
				if r.retired.Load() {
					r.stats.droppedRetired.Add(1)
					return
				}
				r.stats.delivered.Add(1)
				r.handler(ev)
			})
			if !posted {
				r.stats.droppedPost.Add(1)
				continue
			}
			select {
			case <-ran:
			case <-r.done:
				r.drain()
				return
			}
		}
	}
}

// drain counts the events left behind by a retired registration.
func (r *registration) drain() {
	for {
		select {
		case <-r.queue:
			r.stats.droppedRetired.Add(1)
		default:
			return
		}
	}
}
