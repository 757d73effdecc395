// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: hostloop/screen.go
// Summary: Executor backed by a tcell screen's event queue.
// Usage: Interactive hosts poll the screen and call Dispatch for every event.
// Notes: Tasks ride on EventInterrupt so they interleave with key and resize events in order.

package hostloop

import "github.com/gdamore/tcell/v2"

// ScreenLoop posts tasks into a tcell.Screen's event queue.
type ScreenLoop struct {
	screen tcell.Screen
}

// NewScreenLoop wraps screen. The screen must be initialised before Post is used.
func NewScreenLoop(screen tcell.Screen) *ScreenLoop {
	return &ScreenLoop{screen: screen}
}

type task func()

// Post queues fn as an interrupt event. It reports false when the screen's
// queue rejects the event.
func (l *ScreenLoop) Post(fn func()) bool {
	if fn == nil || l.screen == nil {
		return false
	}
	return l.screen.PostEvent(tcell.NewEventInterrupt(task(fn))) == nil
}

// Dispatch runs the task carried by ev, if any, and reports whether ev was a
// posted task. Interrupts posted by other code are left to the caller.
func Dispatch(ev tcell.Event) bool {
	iev, ok := ev.(*tcell.EventInterrupt)
	if !ok {
		return false
	}
	fn, ok := iev.Data().(task)
	if !ok || fn == nil {
		return false
	}
	fn()
	return true
}
