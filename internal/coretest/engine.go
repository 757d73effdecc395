// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/coretest/engine.go
// Summary: Scripted in-memory engine used by package tests.

package coretest

import (
	"sync"

	"github.com/framegrace/ghostbridge/core"
)

// Call records one engine invocation.
type Call struct {
	Op       string
	ID       int32
	Frame    core.Frame
	Scale    float64
	Flag     bool
	Key      core.KeyEvent
	Text     []byte
	BufferSz int
}

// Engine is a fake core.Engine. Surfaces get sequential ids starting at 0;
// destroyed ids are never handed out again.
type Engine struct {
	mu       sync.Mutex
	calls    []Call
	live     map[int32]bool
	nextID   int32
	ready    bool
	FailNext bool // next SurfaceCreate returns -1
	Reject   bool // every id-based call returns false
}

// NewEngine returns a ready fake engine.
func NewEngine() *Engine {
	return &Engine{live: make(map[int32]bool), ready: true}
}

// SetReady controls EnsureInitialized.
func (e *Engine) SetReady(ready bool) {
	e.mu.Lock()
	e.ready = ready
	e.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}

// CallCount returns the number of recorded calls with op.
func (e *Engine) CallCount(op string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Last returns the most recent call.
func (e *Engine) Last() (Call, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return Call{}, false
	}
	return e.calls[len(e.calls)-1], true
}

func (e *Engine) record(c Call) {
	e.calls = append(e.calls, c)
}

func (e *Engine) accepts(id int32) bool {
	return !e.Reject && e.live[id]
}

func (e *Engine) EnsureInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(Call{Op: "init"})
	return e.ready
}

func (e *Engine) SurfaceCreate(buffer []byte, frame core.Frame, scale float64) int32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(Call{Op: "create", Frame: frame, Scale: scale, BufferSz: len(buffer)})
	if e.FailNext || !e.ready {
		e.FailNext = false
		return -1
	}
	id := e.nextID
	e.nextID++
	e.live[id] = true
	return id
}

func (e *Engine) SurfaceDestroy(id int32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(Call{Op: "destroy", ID: id})
	if !e.accepts(id) {
		return false
	}
	delete(e.live, id)
	return true
}

func (e *Engine) SurfaceResize(id int32, frame core.Frame, scale float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(Call{Op: "resize", ID: id, Frame: frame, Scale: scale})
	return e.accepts(id)
}

func (e *Engine) SurfaceSetFocus(id int32, focus bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(Call{Op: "focus", ID: id, Flag: focus})
	return e.accepts(id)
}

func (e *Engine) SurfaceSetOccluded(id int32, occluded bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(Call{Op: "occluded", ID: id, Flag: occluded})
	return e.accepts(id)
}

func (e *Engine) SurfaceSendKey(id int32, ev core.KeyEvent) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(Call{Op: "key", ID: id, Key: ev})
	return e.accepts(id)
}

func (e *Engine) SurfaceSendText(id int32, text []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record(Call{Op: "text", ID: id, Text: append([]byte(nil), text...)})
	return e.accepts(id)
}
