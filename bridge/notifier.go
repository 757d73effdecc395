// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: bridge/notifier.go
// Summary: Adapts engine callbacks to bridge events.

package bridge

import (
	"github.com/framegrace/ghostbridge/core"
	"github.com/framegrace/ghostbridge/event"
)

type notifier struct {
	b *Bridge
}

// Notifier returns a core.Notifier that emits every callback on b.
func Notifier(b *Bridge) core.Notifier {
	return notifier{b: b}
}

func (n notifier) SetTitle(id int32, title string) {
	n.b.Emit(event.Event{SurfaceID: id, Payload: event.SetTitle{Title: title}})
}

func (n notifier) Bell(id int32) {
	n.b.Emit(event.Event{SurfaceID: id, Payload: event.Bell{}})
}

func (n notifier) SurfaceExit(id int32, processAlive bool, exitCode uint32) {
	n.b.Emit(event.Event{SurfaceID: id, Payload: event.SurfaceExit{ProcessAlive: processAlive, ExitCode: exitCode}})
}

func (n notifier) ClipboardReadRequest(id int32, requestID uint64, clipboard int32) {
	n.b.Emit(event.Event{SurfaceID: id, Payload: event.ClipboardReadRequest{
		RequestID: requestID,
		Clipboard: event.ClipboardFromCore(clipboard),
	}})
}

func (n notifier) ClipboardWrite(id int32, text string, clipboard int32, confirm bool) {
	n.b.Emit(event.Event{SurfaceID: id, Payload: event.ClipboardWrite{
		Text:      text,
		Clipboard: event.ClipboardFromCore(clipboard),
		Confirm:   confirm,
	}})
}
