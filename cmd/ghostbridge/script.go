// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/ghostbridge/script.go
// Summary: Headless host that runs JSON commands and prints results and events as JSON lines.
// Usage: One command per line, e.g. {"op":"createSurface","args":["AQ==",{"x":0,"y":0,"width":640,"height":480}]}.
// Blank lines and lines starting with # are skipped.

package main

import (
	"bufio"
	"bytes"
	"io"
	"log"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/framegrace/ghostbridge/binding"
	"github.com/framegrace/ghostbridge/event"
	"github.com/framegrace/ghostbridge/hostloop"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxLine = 1 << 20

type resultLine struct {
	Line      int    `json:"line"`
	Op        string `json:"op,omitempty"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	Violation bool   `json:"violation,omitempty"`
}

type eventLine struct {
	Event event.Event `json:"event"`
}

// script owns the surfaces its commands create. Everything except the exited
// channel is only touched on the loop.
type script struct {
	facade *binding.Facade
	loop   *hostloop.Loop
	enc    *jsoniter.Encoder

	live       map[int32]bool
	created    bool
	exitedCh   chan struct{}
	exitedOnce sync.Once
}

func newScript(facade *binding.Facade, loop *hostloop.Loop, out io.Writer) *script {
	return &script{
		facade:   facade,
		loop:     loop,
		enc:      json.NewEncoder(out),
		live:     make(map[int32]bool),
		exitedCh: make(chan struct{}),
	}
}

// exited is closed once every surface the script created has gone away.
func (s *script) exited() <-chan struct{} {
	return s.exitedCh
}

func (s *script) write(v any) {
	if err := s.enc.Encode(v); err != nil {
		log.Printf("Ghostbridge: encode output: %v", err)
	}
}

func (s *script) forget(id int32) {
	delete(s.live, id)
	if s.created && len(s.live) == 0 {
		s.exitedOnce.Do(func() { close(s.exitedCh) })
	}
}

func (s *script) onEvent(ev event.Event) {
	s.write(eventLine{Event: ev})
	if ev.Kind() == event.KindSurfaceExit {
		s.forget(ev.SurfaceID)
	}
}

func (s *script) exec(n int, cmd binding.Command) {
	res, err := s.facade.Dispatch(cmd)
	if err != nil {
		s.write(resultLine{Line: n, Op: cmd.Op, Error: err.Error(), Violation: binding.IsContractViolation(err)})
		return
	}
	switch cmd.Op {
	case "createSurface":
		if id, ok := res.(int32); ok && id >= 0 {
			s.live[id] = true
			s.created = true
		}
	case "destroySurface":
		if ok, _ := res.(bool); ok {
			if id, isNum := cmd.Args[0].(float64); isNum {
				s.forget(int32(id))
			}
		}
	}
	// Keep false and 0 in the output.
	s.write(map[string]any{"line": n, "op": cmd.Op, "result": res})
}

// run installs the event handler and executes every command read from r.
func (s *script) run(r io.Reader) error {
	var setErr error
	if err := s.loop.Call(func() {
		setErr = s.facade.SetEventHandler(s.onEvent, s.loop)
	}); err != nil {
		return err
	}
	if setErr != nil {
		return setErr
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		cmd, err := binding.DecodeCommand(line)
		lineNo := n
		if err != nil {
			if cerr := s.loop.Call(func() {
				s.write(resultLine{Line: lineNo, Error: err.Error(), Violation: binding.IsContractViolation(err)})
			}); cerr != nil {
				return cerr
			}
			continue
		}
		if err := s.loop.Call(func() { s.exec(lineNo, cmd) }); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// teardown destroys surfaces that are still live and removes the handler.
func (s *script) teardown() error {
	return s.loop.Call(func() {
		for id := range s.live {
			if _, err := s.facade.DestroySurface(id); err != nil {
				log.Printf("Ghostbridge: destroy %d: %v", id, err)
			}
		}
		s.live = make(map[int32]bool)
		s.facade.ClearEventHandler()
	})
}
