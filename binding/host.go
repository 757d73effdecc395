// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: binding/host.go
// Summary: Typed host-side wrapper over the facade, including legacy overlay aliases.
// Notes: A Host without a facade stands in for an unsupported platform: every command
// reports failure and OnEvent is ignored.

package binding

import (
	"errors"
	"log"

	"github.com/framegrace/ghostbridge/bridge"
	"github.com/framegrace/ghostbridge/core"
	"github.com/framegrace/ghostbridge/event"
)

// Frame is a surface rectangle in points. A nil Scale lets the engine pick.
type Frame struct {
	X, Y          float64
	Width, Height float64
	Scale         *float64
}

func (f Frame) object() Object {
	obj := Object{"x": f.X, "y": f.Y, "width": f.Width, "height": f.Height}
	if f.Scale != nil {
		obj["scale"] = *f.Scale
	}
	return obj
}

// KeyInput is a key event. Nil optional fields are omitted, which is not the
// same as an explicit zero value.
type KeyInput struct {
	Action       core.KeyAction
	Mods         core.Mods
	ConsumedMods core.Mods
	Keycode      uint32
	Text         *string
	Codepoint    *uint32
	Composing    *bool
}

func (k KeyInput) object() Object {
	obj := Object{
		"action":       uint32(k.Action),
		"mods":         uint32(k.Mods),
		"consumedMods": uint32(k.ConsumedMods),
		"keycode":      k.Keycode,
	}
	if k.Text != nil {
		obj["text"] = *k.Text
	}
	if k.Codepoint != nil {
		obj["codepoint"] = *k.Codepoint
	}
	if k.Composing != nil {
		obj["composing"] = *k.Composing
	}
	return obj
}

// String, Uint32, Bool and Float return pointers for KeyInput and Frame
// optionals.
func String(s string) *string  { return &s }
func Uint32(v uint32) *uint32  { return &v }
func Bool(b bool) *bool        { return &b }
func Float(f float64) *float64 { return &f }

// ErrNilHandle is returned by Create when no native handle is supplied.
var ErrNilHandle = violation("create", "handle must be a byte buffer")

// Host is the typed entry point for Go hosts.
type Host struct {
	facade *Facade
	exec   bridge.Executor
}

// NewHost wraps facade; exec is the host loop handlers run on. A nil facade
// produces an inert host.
func NewHost(facade *Facade, exec bridge.Executor) *Host {
	h := &Host{facade: facade, exec: exec}
	if facade != nil && !facade.EnsureInitialized() {
		log.Printf("Binding: engine failed to initialize")
	}
	return h
}

// Available reports whether commands reach an engine.
func (h *Host) Available() bool {
	return h.facade != nil
}

// unexpected reports errors that typed arguments should never produce.
func unexpected(op string, err error) {
	if err != nil {
		log.Printf("Binding: %s: %v", op, err)
	}
}

// Create creates a surface and returns its id, or -1 on failure.
func (h *Host) Create(handle []byte, frame Frame) (int32, error) {
	if handle == nil {
		return -1, ErrNilHandle
	}
	if h.facade == nil {
		return -1, nil
	}
	return h.facade.CreateSurface(handle, frame.object(), nil)
}

// Resize moves or resizes a surface.
func (h *Host) Resize(id int32, frame Frame) bool {
	if h.facade == nil {
		return false
	}
	ok, err := h.facade.ResizeSurface(id, frame.object(), nil)
	unexpected("resize", err)
	return ok
}

// ResizeWithHandle accepts the older call shape that also passed the native
// handle. The handle is ignored.
func (h *Host) ResizeWithHandle(id int32, _ []byte, frame Frame) bool {
	return h.Resize(id, frame)
}

func (h *Host) Destroy(id int32) bool {
	if h.facade == nil {
		return false
	}
	ok, err := h.facade.DestroySurface(id)
	unexpected("destroy", err)
	return ok
}

func (h *Host) SetFocus(id int32, focus bool) bool {
	if h.facade == nil {
		return false
	}
	ok, err := h.facade.SetFocus(id, focus)
	unexpected("setFocus", err)
	return ok
}

func (h *Host) SetOccluded(id int32, occluded bool) bool {
	if h.facade == nil {
		return false
	}
	ok, err := h.facade.SetOccluded(id, occluded)
	unexpected("setOccluded", err)
	return ok
}

func (h *Host) SendKey(id int32, key KeyInput) bool {
	if h.facade == nil {
		return false
	}
	ok, err := h.facade.SendKey(id, key.object())
	unexpected("sendKey", err)
	return ok
}

func (h *Host) SendText(id int32, text string) bool {
	if h.facade == nil {
		return false
	}
	ok, err := h.facade.SendText(id, text)
	unexpected("sendText", err)
	return ok
}

// OnEvent replaces the event handler. It is a no-op on an inert host.
func (h *Host) OnEvent(handler func(event.Event)) error {
	if h.facade == nil {
		return nil
	}
	if handler == nil {
		h.facade.ClearEventHandler()
		return nil
	}
	return h.facade.SetEventHandler(handler, h.exec)
}

// CreateOverlay is the legacy name of Create.
func (h *Host) CreateOverlay(handle []byte, frame Frame) (int32, error) {
	return h.Create(handle, frame)
}

// UpdateOverlay is the legacy name of Resize; the result is discarded.
func (h *Host) UpdateOverlay(id int32, frame Frame) {
	h.Resize(id, frame)
}

// RemoveOverlay is the legacy name of Destroy; the result is discarded.
func (h *Host) RemoveOverlay(id int32) {
	h.Destroy(id)
}

// IsContractViolation reports whether err came from argument validation.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation)
}
