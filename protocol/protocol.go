// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/protocol.go
// Summary: Binary framing for bridge events: fixed header, optional CRC32, payload.
// Usage: The journal stores one frame per recorded event; tools read them back.
// Notes: Keep changes backward-compatible; layout changes require a Version bump.

package protocol

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"

	"github.com/framegrace/ghostbridge/event"
)

const (
	magic      uint32 = 0x01454247 // "GBE\x01"
	headerSize        = 28
)

// Flag bits for the header Flags byte.
const (
	FlagChecksum uint8 = 0x01
	// FlagRedacted marks clipboard text that was replaced before encoding.
	FlagRedacted uint8 = 0x02
)

// Version is the frame layout implemented by this package.
const Version uint8 = 1

// MessageType is the event kind carried by a frame.
type MessageType uint8

const (
	MsgSetTitle       = MessageType(event.KindSetTitle)
	MsgBell           = MessageType(event.KindBell)
	MsgSurfaceExit    = MessageType(event.KindSurfaceExit)
	MsgClipboardRead  = MessageType(event.KindClipboardRead)
	MsgClipboardWrite = MessageType(event.KindClipboardWrite)
)

// Header describes the fixed portion of every frame.
type Header struct {
	Version    uint8
	Type       MessageType
	Flags      uint8
	Reserved   uint8
	SurfaceID  int32
	Sequence   uint64
	PayloadLen uint32
	Checksum   uint32
}

var (
	ErrInvalidMagic     = errors.New("protocol: invalid magic")
	ErrUnsupportedVer   = errors.New("protocol: unsupported version")
	ErrShortPayload     = errors.New("protocol: payload shorter than declared length")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
)

func checksum(head, payload []byte) uint32 {
	crc := crc32.NewIEEE()
	_, _ = crc.Write(head)
	if len(payload) > 0 {
		_, _ = crc.Write(payload)
	}
	return crc.Sum32()
}

// WriteMessage serialises the header and payload to w. The payload slice is
// written as-is; callers retain ownership of the buffer.
func WriteMessage(w io.Writer, hdr Header, payload []byte) error {
	hdr.PayloadLen = uint32(len(payload))

	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], magic)
	buf[4] = hdr.Version
	buf[5] = byte(hdr.Type)
	buf[6] = hdr.Flags
	buf[7] = hdr.Reserved
	binary.LittleEndian.PutUint32(buf[8:12], uint32(hdr.SurfaceID))
	binary.LittleEndian.PutUint64(buf[12:20], hdr.Sequence)
	binary.LittleEndian.PutUint32(buf[20:24], hdr.PayloadLen)

	sum := hdr.Checksum
	if hdr.Flags&FlagChecksum != 0 {
		sum = checksum(buf[4:24], payload)
	}
	binary.LittleEndian.PutUint32(buf[24:28], sum)

	if _, err := w.Write(buf); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadMessage reads a header and payload from r. The returned payload is a
// freshly allocated slice sized to the declared payload length.
func ReadMessage(r io.Reader) (Header, []byte, error) {
	var hdr Header
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return hdr, nil, err
	}

	if binary.LittleEndian.Uint32(buf[0:4]) != magic {
		return hdr, nil, ErrInvalidMagic
	}

	hdr.Version = buf[4]
	hdr.Type = MessageType(buf[5])
	hdr.Flags = buf[6]
	hdr.Reserved = buf[7]
	hdr.SurfaceID = int32(binary.LittleEndian.Uint32(buf[8:12]))
	hdr.Sequence = binary.LittleEndian.Uint64(buf[12:20])
	hdr.PayloadLen = binary.LittleEndian.Uint32(buf[20:24])
	hdr.Checksum = binary.LittleEndian.Uint32(buf[24:28])

	if hdr.Version != Version {
		return hdr, nil, ErrUnsupportedVer
	}

	payload := make([]byte, hdr.PayloadLen)
	if hdr.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return hdr, nil, ErrShortPayload
			}
			return hdr, nil, err
		}
	}

	if hdr.Flags&FlagChecksum != 0 {
		if checksum(buf[4:24], payload) != hdr.Checksum {
			return hdr, nil, ErrChecksumMismatch
		}
	}

	return hdr, payload, nil
}
