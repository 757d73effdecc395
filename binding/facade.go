// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: binding/facade.go
// Summary: Synchronous command facade between the host and the engine.
// Usage: Hosts call it from their loop goroutine; it validates arguments, forwards to
// the engine and records accepted surfaces in the registry.
// Notes: Contract violations come back as errors before the engine is touched; engine
// failures come back as false or a negative id with a nil error.

package binding

import (
	"log"

	"github.com/framegrace/ghostbridge/bridge"
	"github.com/framegrace/ghostbridge/core"
	"github.com/framegrace/ghostbridge/event"
	"github.com/framegrace/ghostbridge/surface"
)

const frameUsage = "frame:{x,y,width,height,scale?}"

// Facade forwards host commands to an engine.
type Facade struct {
	engine   core.Engine
	bridge   *bridge.Bridge
	registry *surface.Registry
	wrap     func(bridge.Handler) bridge.Handler
}

// New creates a facade over engine. Events are delivered through b.
func New(engine core.Engine, b *bridge.Bridge) *Facade {
	return &Facade{
		engine:   engine,
		bridge:   b,
		registry: surface.NewRegistry(),
	}
}

// Registry exposes the live surface records.
func (f *Facade) Registry() *surface.Registry {
	return f.registry
}

// WrapHandlers makes every later SetEventHandler install wrap(handler)
// instead of handler. Pass nil to stop wrapping.
func (f *Facade) WrapHandlers(wrap func(bridge.Handler) bridge.Handler) {
	f.wrap = wrap
}

// EnsureInitialized asks the engine to initialise. Safe to call repeatedly.
func (f *Facade) EnsureInitialized() bool {
	return f.engine.EnsureInitialized()
}

func parseFrame(op string, v any) (core.Frame, Object, error) {
	obj, ok := v.(Object)
	if !ok || obj == nil {
		return core.Frame{}, nil, violation(op, "expected %s, got %T", frameUsage, v)
	}
	var fr core.Frame
	var err error
	if fr.X, err = requireNumber(op, obj, "x", "frame"); err != nil {
		return core.Frame{}, nil, err
	}
	if fr.Y, err = requireNumber(op, obj, "y", "frame"); err != nil {
		return core.Frame{}, nil, err
	}
	if fr.Width, err = requireNumber(op, obj, "width", "frame"); err != nil {
		return core.Frame{}, nil, err
	}
	if fr.Height, err = requireNumber(op, obj, "height", "frame"); err != nil {
		return core.Frame{}, nil, err
	}
	return fr, obj, nil
}

// resolveScale prefers an explicit numeric scale argument, then frame.scale,
// then 0, which lets the engine decide.
func resolveScale(scale any, frame Object) float64 {
	if n, ok := number(scale); ok {
		return n
	}
	return optionalNumber(frame, "scale", 0)
}

// CreateSurface creates a surface for the native handle buffer. It returns
// the engine's id; a negative id is an engine failure and is not registered.
func (f *Facade) CreateSurface(buffer, frame, scale any) (int32, error) {
	const op = "createSurface"
	buf, ok := buffer.([]byte)
	if !ok {
		return -1, violation(op, "expected (handle: []byte, %s), got handle %T", frameUsage, buffer)
	}
	fr, obj, err := parseFrame(op, frame)
	if err != nil {
		return -1, err
	}
	s := resolveScale(scale, obj)

	id := f.engine.SurfaceCreate(buf, fr, s)
	if id < 0 {
		return id, nil
	}
	if err := f.registry.Add(id, fr, s); err != nil {
		log.Printf("Binding: engine returned surface id %d: %v", id, err)
	}
	return id, nil
}

// ResizeSurface forwards a new frame. Unknown ids are not pre-checked; the
// engine's answer is returned as is.
func (f *Facade) ResizeSurface(id, frame, scale any) (bool, error) {
	const op = "resizeSurface"
	sid, err := requireID(op, id)
	if err != nil {
		return false, err
	}
	fr, obj, err := parseFrame(op, frame)
	if err != nil {
		return false, err
	}
	s := resolveScale(scale, obj)

	ok := f.engine.SurfaceResize(sid, fr, s)
	if ok {
		_ = f.registry.Resize(sid, fr, s)
	}
	return ok, nil
}

// DestroySurface destroys a surface. After success the id is dead; using it
// again is forwarded to the engine, which decides the result.
func (f *Facade) DestroySurface(id any) (bool, error) {
	sid, err := requireID("destroySurface", id)
	if err != nil {
		return false, err
	}
	ok := f.engine.SurfaceDestroy(sid)
	if ok {
		f.registry.Remove(sid)
	}
	return ok, nil
}

// SetFocus forwards the focus state.
func (f *Facade) SetFocus(id, focus any) (bool, error) {
	const op = "setFocus"
	sid, err := requireID(op, id)
	if err != nil {
		return false, err
	}
	on, err := requireBool(op, "focus", focus)
	if err != nil {
		return false, err
	}
	ok := f.engine.SurfaceSetFocus(sid, on)
	if ok {
		_ = f.registry.SetFocus(sid, on)
	}
	return ok, nil
}

// SetOccluded forwards the occlusion state.
func (f *Facade) SetOccluded(id, occluded any) (bool, error) {
	const op = "setOccluded"
	sid, err := requireID(op, id)
	if err != nil {
		return false, err
	}
	on, err := requireBool(op, "occluded", occluded)
	if err != nil {
		return false, err
	}
	ok := f.engine.SurfaceSetOccluded(sid, on)
	if ok {
		_ = f.registry.SetOccluded(sid, on)
	}
	return ok, nil
}

// parseKeyEvent reads {action, mods, consumedMods, keycode, codepoint?,
// composing?, text?}. Omitted optional fields get their defaults: codepoint 0,
// composing false and no text. An explicit "" text stays an empty string.
func parseKeyEvent(op string, v any) (core.KeyEvent, error) {
	obj, ok := v.(Object)
	if !ok || obj == nil {
		return core.KeyEvent{}, violation(op, "expected key event object, got %T", v)
	}
	var ev core.KeyEvent
	fields := []struct {
		key string
		set func(uint32)
	}{
		{"action", func(n uint32) { ev.Action = core.KeyAction(n) }},
		{"mods", func(n uint32) { ev.Mods = core.Mods(n) }},
		{"consumedMods", func(n uint32) { ev.ConsumedMods = core.Mods(n) }},
		{"keycode", func(n uint32) { ev.Keycode = n }},
	}
	for _, field := range fields {
		n, err := requireNumber(op, obj, field.key, "key event")
		if err != nil {
			return core.KeyEvent{}, err
		}
		field.set(toUint32(n))
	}
	ev.UnshiftedCodepoint = toUint32(optionalNumber(obj, "codepoint", 0))
	if composing, ok := obj["composing"].(bool); ok {
		ev.Composing = composing
	}
	if text, ok := obj["text"].(string); ok {
		ev.Text = &text
	}
	return ev, nil
}

// SendKey forwards a key event.
func (f *Facade) SendKey(id, keyEvent any) (bool, error) {
	const op = "sendKey"
	sid, err := requireID(op, id)
	if err != nil {
		return false, err
	}
	ev, err := parseKeyEvent(op, keyEvent)
	if err != nil {
		return false, err
	}
	return f.engine.SurfaceSendKey(sid, ev), nil
}

// SendText forwards UTF-8 text unchanged.
func (f *Facade) SendText(id, text any) (bool, error) {
	const op = "sendText"
	sid, err := requireID(op, id)
	if err != nil {
		return false, err
	}
	s, ok := text.(string)
	if !ok {
		return false, violation(op, "expected text string, got %T", text)
	}
	return f.engine.SurfaceSendText(sid, []byte(s)), nil
}

// SetEventHandler installs handler as the bridge's only delivery target,
// running on exec. handler may be a func(event.Event), a bridge.Handler or an
// event.Visitor.
func (f *Facade) SetEventHandler(handler any, exec bridge.Executor) error {
	const op = "setEventHandler"
	var h bridge.Handler
	switch fn := handler.(type) {
	case bridge.Handler:
		h = fn
	case func(event.Event):
		h = fn
	case event.Visitor:
		h = func(ev event.Event) { event.Visit(ev, fn) }
	}
	if h == nil {
		return violation(op, "expected handler function, got %T", handler)
	}
	if exec == nil {
		return violation(op, "expected host executor")
	}
	if f.wrap != nil {
		h = f.wrap(h)
	}
	return f.bridge.SetHandler(bridge.Registration{Handler: h, Executor: exec})
}

// ClearEventHandler removes the current handler. Later events are dropped.
func (f *Facade) ClearEventHandler() {
	f.bridge.ClearHandler()
}
