// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: ptycore/keys.go
// Summary: Encodes engine key events into the byte sequences a pty child expects.
// Notes: Keycodes are interpreted as tcell.Key values.

package ptycore

import (
	"fmt"
	"unicode/utf8"

	"github.com/framegrace/ghostbridge/core"
	"github.com/gdamore/tcell/v2"
)

// modifierParam returns the xterm modifier parameter (1 + bits), or 0 when
// no modifier applies.
func modifierParam(m core.Mods) int {
	n := 0
	if m.Has(core.ModShift) {
		n |= 1
	}
	if m.Has(core.ModAlt) {
		n |= 2
	}
	if m.Has(core.ModCtrl) {
		n |= 4
	}
	if n == 0 {
		return 0
	}
	return n + 1
}

func cursorKey(final byte, appMode bool, mods core.Mods) []byte {
	if p := modifierParam(mods); p != 0 {
		return []byte(fmt.Sprintf("\x1b[1;%d%c", p, final))
	}
	if appMode {
		return []byte{0x1b, 'O', final}
	}
	return []byte{0x1b, '[', final}
}

func tildeKey(code int, mods core.Mods) []byte {
	if p := modifierParam(mods); p != 0 {
		return []byte(fmt.Sprintf("\x1b[%d;%d~", code, p))
	}
	return []byte(fmt.Sprintf("\x1b[%d~", code))
}

// specialKey encodes keys that have no text of their own.
func specialKey(key tcell.Key, appMode bool, mods core.Mods) []byte {
	switch key {
	case tcell.KeyUp:
		return cursorKey('A', appMode, mods)
	case tcell.KeyDown:
		return cursorKey('B', appMode, mods)
	case tcell.KeyRight:
		return cursorKey('C', appMode, mods)
	case tcell.KeyLeft:
		return cursorKey('D', appMode, mods)
	case tcell.KeyHome:
		return cursorKey('H', false, mods)
	case tcell.KeyEnd:
		return cursorKey('F', false, mods)
	case tcell.KeyInsert:
		return tildeKey(2, mods)
	case tcell.KeyDelete:
		return tildeKey(3, mods)
	case tcell.KeyPgUp:
		return tildeKey(5, mods)
	case tcell.KeyPgDn:
		return tildeKey(6, mods)
	case tcell.KeyF1:
		return []byte("\x1bOP")
	case tcell.KeyF2:
		return []byte("\x1bOQ")
	case tcell.KeyF3:
		return []byte("\x1bOR")
	case tcell.KeyF4:
		return []byte("\x1bOS")
	case tcell.KeyF5:
		return tildeKey(15, mods)
	case tcell.KeyF6:
		return tildeKey(17, mods)
	case tcell.KeyF7:
		return tildeKey(18, mods)
	case tcell.KeyF8:
		return tildeKey(19, mods)
	case tcell.KeyF9:
		return tildeKey(20, mods)
	case tcell.KeyF10:
		return tildeKey(21, mods)
	case tcell.KeyF11:
		return tildeKey(23, mods)
	case tcell.KeyF12:
		return tildeKey(24, mods)
	case tcell.KeyEnter:
		return []byte("\r")
	case tcell.KeyBackspace2:
		return []byte{0x7f}
	case tcell.KeyBackspace:
		return []byte{'\b'}
	case tcell.KeyTab:
		if mods.Has(core.ModShift) {
			return []byte("\x1b[Z")
		}
		return []byte("\t")
	case tcell.KeyBacktab:
		return []byte("\x1b[Z")
	case tcell.KeyEsc:
		return []byte("\x1b")
	}
	return nil
}

func withAlt(b []byte, mods core.Mods) []byte {
	if mods.Has(core.ModAlt) {
		return append([]byte{0x1b}, b...)
	}
	return b
}

// encodeKey returns the bytes for ev, or nil when the event produces no
// input. Text wins over the keycode, the keycode over the codepoint.
func encodeKey(ev core.KeyEvent, appMode bool) []byte {
	if ev.Action == core.ActionRelease || ev.Composing {
		return nil
	}
	// Modifiers the layout already applied to the text do not count again.
	mods := ev.Mods &^ ev.ConsumedMods

	if ev.Text != nil && *ev.Text != "" {
		text := *ev.Text
		if r, size := utf8.DecodeRuneInString(text); size == len(text) && (r < 0x20 || r == 0x7f) {
			// Control characters go through the keycode path when it knows the key.
			if b := specialKey(tcell.Key(ev.Keycode), appMode, mods); b != nil {
				return b
			}
		}
		return withAlt([]byte(text), mods)
	}

	if b := specialKey(tcell.Key(ev.Keycode), appMode, mods); b != nil {
		return b
	}

	cp := rune(ev.UnshiftedCodepoint)
	if cp == 0 || !utf8.ValidRune(cp) {
		return nil
	}
	if mods.Has(core.ModCtrl) {
		switch {
		case cp >= 'a' && cp <= 'z':
			return withAlt([]byte{byte(cp - 'a' + 1)}, mods)
		case cp >= '@' && cp <= '_':
			return withAlt([]byte{byte(cp - '@')}, mods)
		case cp == ' ':
			return withAlt([]byte{0}, mods)
		}
	}
	if mods.Has(core.ModShift) && cp >= 'a' && cp <= 'z' {
		cp -= 'a' - 'A'
	}
	return withAlt([]byte(string(cp)), mods)
}
