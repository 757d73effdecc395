// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: binding/host_test.go
// Summary: Covers JSON dispatch and the typed host wrapper.

package binding

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/framegrace/ghostbridge/event"
	"github.com/framegrace/ghostbridge/hostloop"
)

func TestDispatchDecodedCommands(t *testing.T) {
	f, engine, _ := newFacade(t)

	handle := base64.StdEncoding.EncodeToString([]byte{9, 9, 9, 9})
	cmd, err := DecodeCommand([]byte(`{"op":"createSurface","args":["` + handle + `",{"x":0,"y":0,"width":640,"height":480,"scale":2}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res, err := f.Dispatch(cmd)
	if err != nil {
		t.Fatalf("dispatch create: %v", err)
	}
	id, ok := res.(int32)
	if !ok || id != 0 {
		t.Fatalf("unexpected create result %#v", res)
	}
	if c, _ := engine.Last(); c.BufferSz != 4 || c.Scale != 2 {
		t.Fatalf("unexpected create call %+v", c)
	}

	cmd, _ = DecodeCommand([]byte(`{"op":"sendKey","args":[0,{"action":1,"mods":0,"consumedMods":0,"keycode":13,"text":"\r"}]}`))
	res, err = f.Dispatch(cmd)
	if err != nil || res != true {
		t.Fatalf("dispatch sendKey: res=%v err=%v", res, err)
	}
	if c, _ := engine.Last(); c.Key.Text == nil || *c.Key.Text != "\r" {
		t.Fatalf("key text lost: %+v", c.Key)
	}
}

func TestDispatchArityAndUnknownOps(t *testing.T) {
	f, engine, _ := newFacade(t)

	for _, cmd := range []Command{
		{Op: "teleport"},
		{Op: "setFocus", Args: []any{0.0}},
		{Op: "destroySurface", Args: []any{0.0, 1.0}},
		{Op: "createSurface", Args: []any{"AA==", frameObj(), 1.0, 2.0}},
	} {
		if _, err := f.Dispatch(cmd); !errors.Is(err, ErrContractViolation) {
			t.Fatalf("%s: expected contract violation, got %v", cmd.Op, err)
		}
	}
	if len(engine.Calls()) != 0 {
		t.Fatalf("engine called on bad dispatch")
	}
	if _, err := DecodeCommand([]byte(`{"args":[]}`)); !IsContractViolation(err) {
		t.Fatalf("expected violation for missing op, got %v", err)
	}
	if _, err := DecodeCommand([]byte(`{`)); err == nil || IsContractViolation(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestInertHostReportsFailure(t *testing.T) {
	h := NewHost(nil, nil)
	if h.Available() {
		t.Fatalf("inert host claims availability")
	}
	id, err := h.Create([]byte{1}, Frame{Width: 10, Height: 10})
	if err != nil || id != -1 {
		t.Fatalf("expected (-1, nil), got (%d, %v)", id, err)
	}
	if h.Resize(0, Frame{}) || h.Destroy(0) || h.SetFocus(0, true) || h.SetOccluded(0, true) ||
		h.SendText(0, "x") || h.SendKey(0, KeyInput{}) {
		t.Fatalf("inert host command succeeded")
	}
	if err := h.OnEvent(func(event.Event) {}); err != nil {
		t.Fatalf("OnEvent on inert host: %v", err)
	}
	if _, err := h.Create(nil, Frame{}); !IsContractViolation(err) {
		t.Fatalf("nil handle should be a violation, got %v", err)
	}
}

func TestHostForwardsTypedCommands(t *testing.T) {
	f, engine, b := newFacade(t)
	loop := hostloop.NewLoop(4)
	loop.Start()
	t.Cleanup(loop.Stop)
	h := NewHost(f, loop)

	id, err := h.CreateOverlay([]byte{1}, Frame{Width: 100, Height: 50, Scale: Float(2)})
	if err != nil || id < 0 {
		t.Fatalf("create overlay: id=%d err=%v", id, err)
	}
	if c, _ := engine.Last(); c.Scale != 2 {
		t.Fatalf("scale not forwarded: %+v", c)
	}

	h.UpdateOverlay(id, Frame{X: 5, Width: 120, Height: 60})
	if c, _ := engine.Last(); c.Op != "resize" || c.Frame.Width != 120 || c.Scale != 0 {
		t.Fatalf("unexpected resize call %+v", c)
	}
	if !h.ResizeWithHandle(id, []byte{1}, Frame{Width: 1, Height: 1}) {
		t.Fatalf("legacy resize failed")
	}

	if !h.SendKey(id, KeyInput{Action: 1, Keycode: 65, Codepoint: Uint32(97), Composing: Bool(false)}) {
		t.Fatalf("send key failed")
	}
	if c, _ := engine.Last(); c.Key.UnshiftedCodepoint != 97 || c.Key.Text != nil {
		t.Fatalf("unexpected key %+v", c.Key)
	}

	if err := h.OnEvent(func(event.Event) {}); err != nil {
		t.Fatalf("on event: %v", err)
	}
	if !b.Registered() {
		t.Fatalf("handler not registered")
	}
	if err := h.OnEvent(nil); err != nil || b.Registered() {
		t.Fatalf("nil handler should clear registration")
	}

	h.RemoveOverlay(id)
	if f.Registry().Len() != 0 {
		t.Fatalf("overlay not removed")
	}
}
