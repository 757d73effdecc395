// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: binding/facade_test.go
// Summary: Exercises argument validation, pass-through and registry bookkeeping of the facade.

package binding

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/framegrace/ghostbridge/bridge"
	"github.com/framegrace/ghostbridge/core"
	"github.com/framegrace/ghostbridge/event"
	"github.com/framegrace/ghostbridge/hostloop"
	"github.com/framegrace/ghostbridge/internal/coretest"
)

func newFacade(t *testing.T) (*Facade, *coretest.Engine, *bridge.Bridge) {
	t.Helper()
	engine := coretest.NewEngine()
	b := bridge.New()
	t.Cleanup(b.Close)
	return New(engine, b), engine, b
}

func frameObj() Object {
	return Object{"x": 0.0, "y": 0.0, "width": 800.0, "height": 600.0}
}

func TestCreateSurfaceRejectsMalformedArguments(t *testing.T) {
	f, engine, _ := newFacade(t)

	cases := []struct {
		name          string
		buffer, frame any
	}{
		{"string handle", "not a buffer", frameObj()},
		{"nil frame", []byte{1}, nil},
		{"frame not object", []byte{1}, 42},
		{"missing height", []byte{1}, Object{"x": 0, "y": 0, "width": 10}},
		{"string width", []byte{1}, Object{"x": 0, "y": 0, "width": "10", "height": 10}},
	}
	for _, tc := range cases {
		id, err := f.CreateSurface(tc.buffer, tc.frame, nil)
		if !errors.Is(err, ErrContractViolation) {
			t.Fatalf("%s: expected contract violation, got %v", tc.name, err)
		}
		if id != -1 {
			t.Fatalf("%s: expected -1, got %d", tc.name, id)
		}
	}
	if n := engine.CallCount("create"); n != 0 {
		t.Fatalf("engine called %d times for malformed input", n)
	}
	if f.Registry().Len() != 0 {
		t.Fatalf("registry changed on contract violation")
	}
}

func TestCreateSurfaceResolvesScale(t *testing.T) {
	f, engine, _ := newFacade(t)

	obj := frameObj()
	obj["scale"] = 2.0
	if _, err := f.CreateSurface([]byte{1, 2, 3}, obj, 3); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c, _ := engine.Last(); c.Scale != 3 || c.BufferSz != 3 {
		t.Fatalf("explicit scale not used: %+v", c)
	}

	if _, err := f.CreateSurface([]byte{1}, obj, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c, _ := engine.Last(); c.Scale != 2 {
		t.Fatalf("frame scale not used: %+v", c)
	}

	obj["scale"] = "big"
	if _, err := f.CreateSurface([]byte{1}, obj, "huge"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c, _ := engine.Last(); c.Scale != 0 {
		t.Fatalf("expected scale 0, got %+v", c)
	}
}

func TestCreateSurfaceFailureIsNotRegistered(t *testing.T) {
	f, engine, _ := newFacade(t)
	engine.FailNext = true

	id, err := f.CreateSurface([]byte{1}, frameObj(), nil)
	if err != nil {
		t.Fatalf("operational failure reported as error: %v", err)
	}
	if id >= 0 {
		t.Fatalf("expected negative id, got %d", id)
	}
	if f.Registry().Len() != 0 {
		t.Fatalf("failed surface was registered")
	}
}

func TestSurfaceLifecycle(t *testing.T) {
	f, engine, _ := newFacade(t)

	id, err := f.CreateSurface([]byte{1}, frameObj(), 1.0)
	if err != nil || id < 0 {
		t.Fatalf("create: id=%d err=%v", id, err)
	}
	if _, ok := f.Registry().Lookup(id); !ok {
		t.Fatalf("surface %d not registered", id)
	}

	resized := Object{"x": 10, "y": 20, "width": 300, "height": 200}
	if ok, err := f.ResizeSurface(id, resized, nil); !ok || err != nil {
		t.Fatalf("resize: ok=%v err=%v", ok, err)
	}
	info, _ := f.Registry().Lookup(id)
	if info.Frame != (core.Frame{X: 10, Y: 20, Width: 300, Height: 200}) {
		t.Fatalf("registry frame not updated: %+v", info.Frame)
	}

	if ok, _ := f.SetFocus(id, true); !ok {
		t.Fatalf("set focus failed")
	}
	if ok, _ := f.SetOccluded(id, true); !ok {
		t.Fatalf("set occluded failed")
	}
	info, _ = f.Registry().Lookup(id)
	if !info.Focused || !info.Occluded {
		t.Fatalf("registry flags not recorded: %+v", info)
	}

	if ok, err := f.DestroySurface(id); !ok || err != nil {
		t.Fatalf("destroy: ok=%v err=%v", ok, err)
	}
	if _, ok := f.Registry().Lookup(id); ok {
		t.Fatalf("destroyed surface still registered")
	}

	// Commands on a dead id are forwarded and the engine's answer returned.
	if ok, err := f.DestroySurface(id); ok || err != nil {
		t.Fatalf("second destroy: ok=%v err=%v", ok, err)
	}
	if ok, err := f.SendText(id, "x"); ok || err != nil {
		t.Fatalf("send to dead id: ok=%v err=%v", ok, err)
	}
	if n := engine.CallCount("destroy"); n != 2 {
		t.Fatalf("expected 2 destroy calls, got %d", n)
	}
}

func TestResizeUnknownIDIsForwarded(t *testing.T) {
	f, engine, _ := newFacade(t)
	ok, err := f.ResizeSurface(99, frameObj(), nil)
	if ok || err != nil {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
	if engine.CallCount("resize") != 1 {
		t.Fatalf("resize was not forwarded")
	}
}

func TestFocusRequiresBool(t *testing.T) {
	f, engine, _ := newFacade(t)
	if _, err := f.SetFocus(0, 1); !errors.Is(err, ErrContractViolation) {
		t.Fatalf("expected contract violation, got %v", err)
	}
	if _, err := f.SetOccluded("0", true); !errors.Is(err, ErrContractViolation) {
		t.Fatalf("expected contract violation for id, got %v", err)
	}
	if len(engine.Calls()) != 0 {
		t.Fatalf("engine called on violation")
	}
}

func TestSendKeyDefaults(t *testing.T) {
	f, engine, _ := newFacade(t)
	id, _ := f.CreateSurface([]byte{1}, frameObj(), nil)

	key := Object{"action": 1, "mods": 2, "consumedMods": 0, "keycode": 65}
	if ok, err := f.SendKey(id, key); !ok || err != nil {
		t.Fatalf("send key: ok=%v err=%v", ok, err)
	}
	c, _ := engine.Last()
	if c.Key.Text != nil || c.Key.UnshiftedCodepoint != 0 || c.Key.Composing {
		t.Fatalf("unexpected optional defaults: %+v", c.Key)
	}
	if c.Key.Action != core.ActionPress || !c.Key.Mods.Has(core.ModCtrl) || c.Key.Keycode != 65 {
		t.Fatalf("unexpected key fields: %+v", c.Key)
	}

	key["text"] = ""
	key["codepoint"] = 97
	key["composing"] = true
	if _, err := f.SendKey(id, key); err != nil {
		t.Fatalf("send key: %v", err)
	}
	c, _ = engine.Last()
	if c.Key.Text == nil || *c.Key.Text != "" {
		t.Fatalf("explicit empty text not forwarded: %+v", c.Key)
	}
	if c.Key.UnshiftedCodepoint != 97 || !c.Key.Composing {
		t.Fatalf("optional fields not forwarded: %+v", c.Key)
	}
}

func TestSendKeyMissingFieldIsViolation(t *testing.T) {
	f, engine, _ := newFacade(t)
	_, err := f.SendKey(0, Object{"action": 1, "mods": 0, "keycode": 13})
	var cv *ContractViolation
	if !errors.As(err, &cv) || cv.Op != "sendKey" {
		t.Fatalf("expected sendKey violation, got %v", err)
	}
	if engine.CallCount("key") != 0 {
		t.Fatalf("engine called on violation")
	}
}

func TestSendTextForwardsBytes(t *testing.T) {
	f, engine, _ := newFacade(t)
	id, _ := f.CreateSurface([]byte{1}, frameObj(), nil)
	if ok, _ := f.SendText(id, "héllo\n"); !ok {
		t.Fatalf("send text failed")
	}
	if c, _ := engine.Last(); string(c.Text) != "héllo\n" {
		t.Fatalf("unexpected bytes %q", c.Text)
	}
	if _, err := f.SendText(id, []byte("raw")); !errors.Is(err, ErrContractViolation) {
		t.Fatalf("expected violation for non-string text, got %v", err)
	}
}

func TestSetEventHandlerDelivers(t *testing.T) {
	f, _, b := newFacade(t)
	loop := hostloop.NewLoop(16)
	loop.Start()
	t.Cleanup(loop.Stop)

	if err := f.SetEventHandler("nope", loop); !errors.Is(err, ErrContractViolation) {
		t.Fatalf("expected violation for non-function handler, got %v", err)
	}
	if err := f.SetEventHandler(func(event.Event) {}, nil); !errors.Is(err, ErrContractViolation) {
		t.Fatalf("expected violation for missing executor, got %v", err)
	}

	var bells atomic.Int32
	if err := f.SetEventHandler(func(ev event.Event) {
		if ev.Kind() == event.KindBell {
			bells.Add(1)
		}
	}, loop); err != nil {
		t.Fatalf("set handler: %v", err)
	}
	bridge.Notifier(b).Bell(0)

	deadline := time.Now().Add(time.Second)
	for bells.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if bells.Load() != 1 {
		t.Fatalf("bell not delivered")
	}

	f.ClearEventHandler()
	if b.Registered() {
		t.Fatalf("handler still registered after clear")
	}
}

func TestWrapHandlersSeesEveryDelivery(t *testing.T) {
	f, _, b := newFacade(t)
	loop := hostloop.NewLoop(16)
	loop.Start()
	t.Cleanup(loop.Stop)

	var tapped, handled atomic.Int32
	f.WrapHandlers(func(next bridge.Handler) bridge.Handler {
		return func(ev event.Event) {
			tapped.Add(1)
			next(ev)
		}
	})
	if err := f.SetEventHandler(func(event.Event) { handled.Add(1) }, loop); err != nil {
		t.Fatalf("set handler: %v", err)
	}
	bridge.Notifier(b).SetTitle(0, "t")
	bridge.Notifier(b).Bell(0)

	deadline := time.Now().Add(time.Second)
	for handled.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if tapped.Load() != 2 || handled.Load() != 2 {
		t.Fatalf("tapped=%d handled=%d, want 2 and 2", tapped.Load(), handled.Load())
	}
}
