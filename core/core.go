// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: core/core.go
// Summary: Boundary between ghostbridge and the terminal engine.
// Usage: Implemented by engines (ptycore, test fakes); consumed by the binding facade.
// Notes: Engines report operational failure through return values only.

package core

// Frame is a surface rectangle in host points.
type Frame struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// KeyAction matches the engine's key action enumeration.
type KeyAction int32

const (
	ActionRelease KeyAction = iota
	ActionPress
	ActionRepeat
)

// Mods is the engine's modifier bitmask.
type Mods uint32

const (
	ModShift Mods = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
	ModCapsLock
	ModNumLock
)

// Has reports whether all bits of m2 are set.
func (m Mods) Has(m2 Mods) bool {
	return m&m2 == m2
}

// KeyEvent is the key input forwarded to an engine.
//
// Text is nil when the host supplied no text. A non-nil empty string is a
// distinct value; engines use the difference for IME handling.
type KeyEvent struct {
	Action             KeyAction
	Mods               Mods
	ConsumedMods       Mods
	Keycode            uint32
	Text               *string
	UnshiftedCodepoint uint32
	Composing          bool
}

// Engine is the command surface of a terminal engine. Surface ids are
// assigned by the engine; a negative id from SurfaceCreate means failure.
type Engine interface {
	EnsureInitialized() bool
	SurfaceCreate(buffer []byte, frame Frame, scale float64) int32
	SurfaceDestroy(id int32) bool
	SurfaceResize(id int32, frame Frame, scale float64) bool
	SurfaceSetFocus(id int32, focus bool) bool
	SurfaceSetOccluded(id int32, occluded bool) bool
	SurfaceSendKey(id int32, ev KeyEvent) bool
	SurfaceSendText(id int32, text []byte) bool
}

// Notifier receives the engine's asynchronous notifications. Engines call it
// from their own goroutines, concurrently and at any time. Clipboard values
// are the engine's raw enumeration.
type Notifier interface {
	SetTitle(surfaceID int32, title string)
	Bell(surfaceID int32)
	SurfaceExit(surfaceID int32, processAlive bool, exitCode uint32)
	ClipboardReadRequest(surfaceID int32, requestID uint64, clipboard int32)
	ClipboardWrite(surfaceID int32, text string, clipboard int32, confirm bool)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) SetTitle(int32, string)                    {}
func (NopNotifier) Bell(int32)                                {}
func (NopNotifier) SurfaceExit(int32, bool, uint32)           {}
func (NopNotifier) ClipboardReadRequest(int32, uint64, int32) {}
func (NopNotifier) ClipboardWrite(int32, string, int32, bool) {}
