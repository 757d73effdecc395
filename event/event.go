// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: event/event.go
// Summary: Tagged event payloads emitted by the core for a surface.
// Usage: Produced on engine goroutines, carried by the bridge, consumed by the host handler.
// Notes: Payloads are immutable values; adding a kind means adding a Visitor method.

package event

import "fmt"

// Kind discriminates the payload variants.
type Kind uint8

const (
	KindSetTitle Kind = iota + 1
	KindBell
	KindSurfaceExit
	KindClipboardRead
	KindClipboardWrite
)

// String returns the host-facing discriminator used in the JSON object.
func (k Kind) String() string {
	switch k {
	case KindSetTitle:
		return "set-title"
	case KindBell:
		return "bell"
	case KindSurfaceExit:
		return "surface-exit"
	case KindClipboardRead:
		return "clipboard-read"
	case KindClipboardWrite:
		return "clipboard-write"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k names one of the defined payload variants.
func (k Kind) Valid() bool {
	return k >= KindSetTitle && k <= KindClipboardWrite
}

// ClipboardKind identifies which clipboard a request targets.
type ClipboardKind uint8

const (
	ClipboardUnknown ClipboardKind = iota
	ClipboardStandard
	ClipboardSelection
)

// Core clipboard enumeration values.
const (
	coreClipboardStandard  int32 = 0
	coreClipboardSelection int32 = 1
)

// ClipboardFromCore maps the core's clipboard value. Values the core may add
// later map to ClipboardUnknown rather than aliasing to the standard clipboard.
func ClipboardFromCore(v int32) ClipboardKind {
	switch v {
	case coreClipboardStandard:
		return ClipboardStandard
	case coreClipboardSelection:
		return ClipboardSelection
	default:
		return ClipboardUnknown
	}
}

func (c ClipboardKind) String() string {
	switch c {
	case ClipboardStandard:
		return "standard"
	case ClipboardSelection:
		return "selection"
	default:
		return "unknown"
	}
}

// Payload is one of SetTitle, Bell, SurfaceExit, ClipboardReadRequest or
// ClipboardWrite. The set is closed: isPayload is unexported.
type Payload interface {
	Kind() Kind
	isPayload()
}

// SetTitle reports a new window title requested by the surface.
type SetTitle struct {
	Title string
}

// Bell reports an audible/visual bell.
type Bell struct{}

// SurfaceExit reports that the surface's process ended or asked to close.
type SurfaceExit struct {
	ProcessAlive bool
	ExitCode     uint32
}

// ClipboardReadRequest asks the host for clipboard contents. The host answers
// out of band using RequestID.
type ClipboardReadRequest struct {
	RequestID uint64
	Clipboard ClipboardKind
}

// ClipboardWrite asks the host to place Text on the clipboard. Confirm is set
// when the core wants the user to approve the write.
type ClipboardWrite struct {
	Text      string
	Clipboard ClipboardKind
	Confirm   bool
}

func (SetTitle) Kind() Kind             { return KindSetTitle }
func (Bell) Kind() Kind                 { return KindBell }
func (SurfaceExit) Kind() Kind          { return KindSurfaceExit }
func (ClipboardReadRequest) Kind() Kind { return KindClipboardRead }
func (ClipboardWrite) Kind() Kind       { return KindClipboardWrite }

func (SetTitle) isPayload()             {}
func (Bell) isPayload()                 {}
func (SurfaceExit) isPayload()          {}
func (ClipboardReadRequest) isPayload() {}
func (ClipboardWrite) isPayload()       {}

// Event is a payload tagged with the surface that produced it.
type Event struct {
	SurfaceID int32
	Payload   Payload
}

// Kind returns the payload kind, or zero for an empty event.
func (e Event) Kind() Kind {
	if e.Payload == nil {
		return 0
	}
	return e.Payload.Kind()
}

func (e Event) String() string {
	return fmt.Sprintf("%s surface=%d %+v", e.Kind(), e.SurfaceID, e.Payload)
}

// Visitor handles every payload variant. Implementations stop compiling when
// a new variant is added, which keeps host-side matching exhaustive.
type Visitor interface {
	SetTitle(surfaceID int32, p SetTitle)
	Bell(surfaceID int32, p Bell)
	SurfaceExit(surfaceID int32, p SurfaceExit)
	ClipboardReadRequest(surfaceID int32, p ClipboardReadRequest)
	ClipboardWrite(surfaceID int32, p ClipboardWrite)
}

// Visit dispatches ev to the matching Visitor method. It returns false for an
// event without a payload.
func Visit(ev Event, v Visitor) bool {
	switch p := ev.Payload.(type) {
	case SetTitle:
		v.SetTitle(ev.SurfaceID, p)
	case Bell:
		v.Bell(ev.SurfaceID, p)
	case SurfaceExit:
		v.SurfaceExit(ev.SurfaceID, p)
	case ClipboardReadRequest:
		v.ClipboardReadRequest(ev.SurfaceID, p)
	case ClipboardWrite:
		v.ClipboardWrite(ev.SurfaceID, p)
	default:
		return false
	}
	return true
}
