// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/devshell/runner.go
// Summary: Interactive tcell host that drives one surface and shows its events.
// Usage: cmd/ghostbridge runs it when stdin is a terminal.
// Notes: The screen's event loop is the host loop; bridge deliveries arrive as
// interrupts and run inside PollEvent handling.

package devshell

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/ghostbridge/binding"
	"github.com/framegrace/ghostbridge/bridge"
	"github.com/framegrace/ghostbridge/event"
	"github.com/framegrace/ghostbridge/hostloop"
)

// Builder wires an engine to the executor the shell runs handlers on.
type Builder func(exec bridge.Executor) (*binding.Host, error)

// Options tune the shell.
type Options struct {
	CellWidth  float64
	CellHeight float64
	Handle     []byte // native handle passed to Create
	MaxLog     int    // event lines kept
}

func (o *Options) applyDefaults() {
	if o.CellWidth <= 0 {
		o.CellWidth = 8
	}
	if o.CellHeight <= 0 {
		o.CellHeight = 16
	}
	if o.Handle == nil {
		o.Handle = []byte("devshell")
	}
	if o.MaxLog <= 0 {
		o.MaxLog = 256
	}
}

var screenFactory = tcell.NewScreen

// SetScreenFactory overrides the screen factory used by Run. Passing nil restores the default.
func SetScreenFactory(factory func() (tcell.Screen, error)) {
	if factory == nil {
		screenFactory = tcell.NewScreen
		return
	}
	screenFactory = factory
}

// ErrCreateFailed is returned when the engine refuses the surface.
var ErrCreateFailed = errors.New("devshell: surface creation failed")

func (o Options) frame(w, h int) binding.Frame {
	return binding.Frame{Width: float64(w) * o.CellWidth, Height: float64(h) * o.CellHeight}
}

// Run creates one surface sized to the screen and forwards input to it until
// Ctrl-Q is pressed or the surface's process exits.
func Run(builder Builder, opts Options) error {
	opts.applyDefaults()

	screen, err := screenFactory()
	if err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()
	screen.Clear()
	screen.EnablePaste()
	screen.EnableFocus()

	loop := hostloop.NewScreenLoop(screen)
	host, err := builder(loop)
	if err != nil {
		return err
	}

	width, height := screen.Size()
	id, err := host.Create(opts.Handle, opts.frame(width, height))
	if err != nil {
		return err
	}
	if id < 0 {
		return ErrCreateFailed
	}
	defer host.Destroy(id)

	v := newView(id, opts.MaxLog)
	exited := false
	if err := host.OnEvent(func(ev event.Event) {
		event.Visit(ev, v)
		if ev.Kind() == event.KindSurfaceExit && ev.SurfaceID == id {
			exited = true
		}
	}); err != nil {
		return err
	}
	defer host.OnEvent(nil)
	host.SetFocus(id, true)
	v.focused = true

	draw := func() {
		screen.Clear()
		v.render(screen)
		screen.Show()
	}
	draw()

	var pasteBuffer []byte
	var inPaste bool

	for !exited {
		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch tev := ev.(type) {
		case *tcell.EventInterrupt:
			if hostloop.Dispatch(tev) {
				draw()
			}
		case *tcell.EventResize:
			w, h := tev.Size()
			host.Resize(id, opts.frame(w, h))
			draw()
		case *tcell.EventFocus:
			host.SetFocus(id, tev.Focused)
			v.focused = tev.Focused
			draw()
		case *tcell.EventPaste:
			if tev.Start() {
				inPaste = true
				pasteBuffer = nil
			} else if tev.End() {
				inPaste = false
				if len(pasteBuffer) > 0 {
					host.SendText(id, string(pasteBuffer))
				}
				pasteBuffer = nil
			}
		case *tcell.EventKey:
			if tev.Key() == tcell.KeyCtrlQ {
				return nil
			}
			if inPaste {
				if tev.Key() == tcell.KeyRune {
					pasteBuffer = append(pasteBuffer, []byte(string(tev.Rune()))...)
				} else if tev.Key() == tcell.KeyEnter || tev.Key() == 10 { // KeyEnter (CR) or LF
					pasteBuffer = append(pasteBuffer, '\n')
				}
			} else if !host.SendKey(id, keyInput(tev)) {
				v.note("key not accepted")
				draw()
			}
		}
	}
	draw()
	return nil
}
