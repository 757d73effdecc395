// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: event/json.go
// Summary: Host-facing structural object for events.

package event

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type bellObject struct {
	Type      string `json:"type"`
	SurfaceID int32  `json:"surfaceId"`
}

type titleObject struct {
	Type      string `json:"type"`
	SurfaceID int32  `json:"surfaceId"`
	Title     string `json:"title"`
}

type exitObject struct {
	Type         string `json:"type"`
	SurfaceID    int32  `json:"surfaceId"`
	ProcessAlive bool   `json:"processAlive"`
	ExitCode     uint32 `json:"exitCode"`
}

type clipboardReadObject struct {
	Type      string `json:"type"`
	SurfaceID int32  `json:"surfaceId"`
	RequestID uint64 `json:"requestId"`
	Clipboard string `json:"clipboard"`
}

type clipboardWriteObject struct {
	Type      string `json:"type"`
	SurfaceID int32  `json:"surfaceId"`
	Text      string `json:"text"`
	Clipboard string `json:"clipboard"`
	Confirm   bool   `json:"confirm"`
}

// MarshalJSON encodes the event as {"type": ..., "surfaceId": ..., ...} with
// the type-specific fields of its payload.
func (e Event) MarshalJSON() ([]byte, error) {
	kind := e.Kind().String()
	switch p := e.Payload.(type) {
	case SetTitle:
		return json.Marshal(titleObject{Type: kind, SurfaceID: e.SurfaceID, Title: p.Title})
	case Bell:
		return json.Marshal(bellObject{Type: kind, SurfaceID: e.SurfaceID})
	case SurfaceExit:
		return json.Marshal(exitObject{Type: kind, SurfaceID: e.SurfaceID, ProcessAlive: p.ProcessAlive, ExitCode: p.ExitCode})
	case ClipboardReadRequest:
		return json.Marshal(clipboardReadObject{Type: kind, SurfaceID: e.SurfaceID, RequestID: p.RequestID, Clipboard: p.Clipboard.String()})
	case ClipboardWrite:
		return json.Marshal(clipboardWriteObject{Type: kind, SurfaceID: e.SurfaceID, Text: p.Text, Clipboard: p.Clipboard.String(), Confirm: p.Confirm})
	default:
		return nil, fmt.Errorf("event: cannot encode payload %T", e.Payload)
	}
}
