// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/devshell/view.go
// Summary: Event log rendering and tcell key translation for the devshell.

package devshell

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/framegrace/ghostbridge/binding"
	"github.com/framegrace/ghostbridge/core"
	"github.com/framegrace/ghostbridge/event"
)

// view holds what the shell shows. Only touched on the screen loop.
type view struct {
	id      int32
	title   string
	bells   int
	focused bool
	lines   []string
	maxLog  int
}

var _ event.Visitor = (*view)(nil)

func newView(id int32, maxLog int) *view {
	return &view{id: id, maxLog: maxLog}
}

func (v *view) note(format string, args ...any) {
	line := time.Now().Format("15:04:05 ") + fmt.Sprintf(format, args...)
	v.lines = append(v.lines, line)
	if len(v.lines) > v.maxLog {
		v.lines = v.lines[len(v.lines)-v.maxLog:]
	}
}

func (v *view) SetTitle(id int32, p event.SetTitle) {
	if id == v.id {
		v.title = p.Title
	}
	v.note("surface %d title %q", id, p.Title)
}

func (v *view) Bell(id int32, _ event.Bell) {
	v.bells++
	v.note("surface %d bell", id)
}

func (v *view) SurfaceExit(id int32, p event.SurfaceExit) {
	v.note("surface %d exited with %d", id, p.ExitCode)
}

func (v *view) ClipboardReadRequest(id int32, p event.ClipboardReadRequest) {
	v.note("surface %d requests %s clipboard (#%d)", id, p.Clipboard, p.RequestID)
}

func (v *view) ClipboardWrite(id int32, p event.ClipboardWrite) {
	v.note("surface %d writes %d bytes to %s clipboard", id, len(p.Text), p.Clipboard)
}

// drawText writes s at (x, y), clipped to width cells. Wide runes take two cells.
func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	text = runewidth.Truncate(text, width, "…")
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		s.SetContent(x, y, r, nil, style)
		x += w
	}
}

func (v *view) render(s tcell.Screen) {
	width, height := s.Size()
	if width <= 0 || height <= 0 {
		return
	}
	header := tcell.StyleDefault.Reverse(true)
	for x := 0; x < width; x++ {
		s.SetContent(x, 0, ' ', nil, header)
	}
	title := v.title
	if title == "" {
		title = "(untitled)"
	}
	drawText(s, 0, 0, width, fmt.Sprintf(" surface %d | %s", v.id, title), header)

	rows := height - 2
	if rows > 0 {
		start := 0
		if len(v.lines) > rows {
			start = len(v.lines) - rows
		}
		for i, line := range v.lines[start:] {
			drawText(s, 0, 1+i, width, line, tcell.StyleDefault)
		}
	}

	if height > 1 {
		focus := "off"
		if v.focused {
			focus = "on"
		}
		status := fmt.Sprintf(" focus:%s bells:%d events:%d  ctrl-q quits", focus, v.bells, len(v.lines))
		drawText(s, 0, height-1, width, status, tcell.StyleDefault.Dim(true))
	}
}

// keyInput translates a tcell key into an engine key press. Control keys are
// sent as their control character so the engine can map them either way.
func keyInput(ev *tcell.EventKey) binding.KeyInput {
	in := binding.KeyInput{
		Action:  core.ActionPress,
		Keycode: uint32(ev.Key()),
	}
	m := ev.Modifiers()
	if m&tcell.ModShift != 0 {
		in.Mods |= core.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		in.Mods |= core.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		in.Mods |= core.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		in.Mods |= core.ModSuper
	}

	switch k := ev.Key(); {
	case k == tcell.KeyRune:
		r := ev.Rune()
		in.Text = binding.String(string(r))
		in.Codepoint = binding.Uint32(uint32(r))
		// The rune already reflects shift.
		in.ConsumedMods = in.Mods & core.ModShift
	case k < 0x20 || k == tcell.KeyDEL:
		in.Text = binding.String(string(rune(k)))
		in.ConsumedMods = in.Mods & core.ModCtrl
	}
	return in
}
