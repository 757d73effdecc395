// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package event

import "testing"

func TestClipboardFromCoreKeepsUnknownDistinct(t *testing.T) {
	if got := ClipboardFromCore(0); got != ClipboardStandard {
		t.Fatalf("expected standard for 0, got %v", got)
	}
	if got := ClipboardFromCore(1); got != ClipboardSelection {
		t.Fatalf("expected selection for 1, got %v", got)
	}
	for _, v := range []int32{-1, 2, 7, 1 << 20} {
		if got := ClipboardFromCore(v); got != ClipboardUnknown {
			t.Fatalf("value %d: expected unknown, got %v", v, got)
		}
	}
}

type recordingVisitor struct {
	calls []string
}

func (r *recordingVisitor) SetTitle(id int32, p SetTitle) { r.calls = append(r.calls, "title:"+p.Title) }
func (r *recordingVisitor) Bell(id int32, p Bell)         { r.calls = append(r.calls, "bell") }
func (r *recordingVisitor) SurfaceExit(id int32, p SurfaceExit) {
	r.calls = append(r.calls, "exit")
}
func (r *recordingVisitor) ClipboardReadRequest(id int32, p ClipboardReadRequest) {
	r.calls = append(r.calls, "read")
}
func (r *recordingVisitor) ClipboardWrite(id int32, p ClipboardWrite) {
	r.calls = append(r.calls, "write:"+p.Text)
}

func TestVisitDispatchesEveryKind(t *testing.T) {
	v := &recordingVisitor{}
	events := []Event{
		{SurfaceID: 1, Payload: SetTitle{Title: "vim"}},
		{SurfaceID: 1, Payload: Bell{}},
		{SurfaceID: 1, Payload: SurfaceExit{ExitCode: 3}},
		{SurfaceID: 1, Payload: ClipboardReadRequest{RequestID: 9}},
		{SurfaceID: 1, Payload: ClipboardWrite{Text: "x"}},
	}
	for _, ev := range events {
		if !Visit(ev, v) {
			t.Fatalf("visit returned false for %v", ev)
		}
	}
	want := []string{"title:vim", "bell", "exit", "read", "write:x"}
	if len(v.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), v.calls)
	}
	for i := range want {
		if v.calls[i] != want[i] {
			t.Fatalf("call %d: expected %q, got %q", i, want[i], v.calls[i])
		}
	}
	if Visit(Event{SurfaceID: 1}, v) {
		t.Fatalf("expected empty event to be rejected")
	}
}

func TestMarshalJSONShapes(t *testing.T) {
	cases := []struct {
		ev     Event
		fields map[string]any
	}{
		{
			ev:     Event{SurfaceID: 4, Payload: SetTitle{Title: ""}},
			fields: map[string]any{"type": "set-title", "surfaceId": float64(4), "title": ""},
		},
		{
			ev:     Event{SurfaceID: 4, Payload: Bell{}},
			fields: map[string]any{"type": "bell", "surfaceId": float64(4)},
		},
		{
			ev:     Event{SurfaceID: 2, Payload: SurfaceExit{ProcessAlive: true, ExitCode: 1}},
			fields: map[string]any{"type": "surface-exit", "surfaceId": float64(2), "processAlive": true, "exitCode": float64(1)},
		},
		{
			ev:     Event{SurfaceID: 2, Payload: ClipboardReadRequest{RequestID: 77, Clipboard: ClipboardSelection}},
			fields: map[string]any{"type": "clipboard-read", "surfaceId": float64(2), "requestId": float64(77), "clipboard": "selection"},
		},
		{
			ev:     Event{SurfaceID: 2, Payload: ClipboardWrite{Text: "hi", Clipboard: ClipboardUnknown, Confirm: true}},
			fields: map[string]any{"type": "clipboard-write", "surfaceId": float64(2), "text": "hi", "clipboard": "unknown", "confirm": true},
		},
	}
	for _, tc := range cases {
		raw, err := tc.ev.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal %v: %v", tc.ev, err)
		}
		var got map[string]any
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if len(got) != len(tc.fields) {
			t.Fatalf("%s: expected %d fields, got %v", tc.ev.Kind(), len(tc.fields), got)
		}
		for k, want := range tc.fields {
			if got[k] != want {
				t.Fatalf("%s: field %q expected %v, got %v", tc.ev.Kind(), k, want, got[k])
			}
		}
	}
}

func TestMarshalJSONRejectsEmptyPayload(t *testing.T) {
	if _, err := (Event{SurfaceID: 1}).MarshalJSON(); err == nil {
		t.Fatalf("expected error for event without payload")
	}
}
