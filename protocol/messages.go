// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/messages.go
// Summary: Payload encoders and decoders for the five bridge event kinds.

package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/framegrace/ghostbridge/event"
)

var (
	errStringTooLong = errors.New("protocol: string exceeds 4GB limit")
	errPayloadShort  = errors.New("protocol: payload too short")
	errExtraBytes    = errors.New("protocol: payload has trailing data")
	errNoPayload     = errors.New("protocol: event has no payload")
)

func encodeString(buf *bytes.Buffer, value string) error {
	if uint64(len(value)) > math.MaxUint32 {
		return errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := buf.WriteString(value); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(b []byte) (string, []byte, error) {
	if len(b) < 4 {
		return "", nil, errPayloadShort
	}
	length := binary.LittleEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(len(b)) < uint64(length) {
		return "", nil, errPayloadShort
	}
	return string(b[:length]), b[length:], nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// encoder builds a payload by visiting the event.
type encoder struct {
	buf bytes.Buffer
	err error
}

func (e *encoder) SetTitle(_ int32, p event.SetTitle) {
	e.err = encodeString(&e.buf, p.Title)
}

func (e *encoder) Bell(int32, event.Bell) {}

func (e *encoder) SurfaceExit(_ int32, p event.SurfaceExit) {
	e.buf.WriteByte(boolByte(p.ProcessAlive))
	e.err = binary.Write(&e.buf, binary.LittleEndian, p.ExitCode)
}

func (e *encoder) ClipboardReadRequest(_ int32, p event.ClipboardReadRequest) {
	e.err = binary.Write(&e.buf, binary.LittleEndian, p.RequestID)
	e.buf.WriteByte(byte(p.Clipboard))
}

func (e *encoder) ClipboardWrite(_ int32, p event.ClipboardWrite) {
	e.err = encodeString(&e.buf, p.Text)
	e.buf.WriteByte(byte(p.Clipboard))
	e.buf.WriteByte(boolByte(p.Confirm))
}

// EncodeEvent returns the frame type and payload for ev.
func EncodeEvent(ev event.Event) (MessageType, []byte, error) {
	var enc encoder
	if !event.Visit(ev, &enc) {
		return 0, nil, errNoPayload
	}
	if enc.err != nil {
		return 0, nil, enc.err
	}
	return MessageType(ev.Kind()), enc.buf.Bytes(), nil
}

// DecodeEvent rebuilds the event carried by a frame.
func DecodeEvent(hdr Header, b []byte) (event.Event, error) {
	ev := event.Event{SurfaceID: hdr.SurfaceID}
	switch hdr.Type {
	case MsgSetTitle:
		title, rest, err := decodeString(b)
		if err != nil {
			return event.Event{}, err
		}
		b = rest
		ev.Payload = event.SetTitle{Title: title}
	case MsgBell:
		ev.Payload = event.Bell{}
	case MsgSurfaceExit:
		if len(b) < 5 {
			return event.Event{}, errPayloadShort
		}
		ev.Payload = event.SurfaceExit{
			ProcessAlive: b[0] != 0,
			ExitCode:     binary.LittleEndian.Uint32(b[1:5]),
		}
		b = b[5:]
	case MsgClipboardRead:
		if len(b) < 9 {
			return event.Event{}, errPayloadShort
		}
		ev.Payload = event.ClipboardReadRequest{
			RequestID: binary.LittleEndian.Uint64(b[:8]),
			Clipboard: event.ClipboardKind(b[8]),
		}
		b = b[9:]
	case MsgClipboardWrite:
		text, rest, err := decodeString(b)
		if err != nil {
			return event.Event{}, err
		}
		if len(rest) < 2 {
			return event.Event{}, errPayloadShort
		}
		ev.Payload = event.ClipboardWrite{
			Text:      text,
			Clipboard: event.ClipboardKind(rest[0]),
			Confirm:   rest[1] != 0,
		}
		b = rest[2:]
	default:
		return event.Event{}, fmt.Errorf("protocol: unknown message type %d", hdr.Type)
	}
	if len(b) != 0 {
		return event.Event{}, errExtraBytes
	}
	return ev, nil
}

// WriteEvent frames ev with a checksum and writes it to w.
func WriteEvent(w io.Writer, seq uint64, flags uint8, ev event.Event) error {
	typ, payload, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	hdr := Header{
		Version:   Version,
		Type:      typ,
		Flags:     flags | FlagChecksum,
		SurfaceID: ev.SurfaceID,
		Sequence:  seq,
	}
	return WriteMessage(w, hdr, payload)
}

// ReadEvent reads and decodes the next frame from r.
func ReadEvent(r io.Reader) (Header, event.Event, error) {
	hdr, payload, err := ReadMessage(r)
	if err != nil {
		return hdr, event.Event{}, err
	}
	ev, err := DecodeEvent(hdr, payload)
	return hdr, ev, err
}
