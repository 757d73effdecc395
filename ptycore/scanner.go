// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: ptycore/scanner.go
// Summary: Minimal VT output scanner that extracts engine notifications from pty output.
// Usage: Fed rune by rune from each surface's reader goroutine.
// Notes: Only BEL, title OSCs, OSC 52 and a few private modes are interpreted; everything
// else is consumed and ignored.

package ptycore

import (
	"strconv"
	"strings"
)

type scanState int

const (
	stateGround scanState = iota
	stateEscape
	stateCSI
	stateOSC
	stateCharset
	stateDCS
	stateDCSEscape
)

// sink receives what the scanner recognises.
type sink interface {
	bell()
	setTitle(title string)
	clipboard(selection string, data string)
	privateMode(mode int, set bool)
}

type scanner struct {
	state        scanState
	sink         sink
	params       []int
	currentParam int
	private      bool
	oscBuffer    []rune
}

func newScanner(s sink) *scanner {
	return &scanner{
		state:     stateGround,
		sink:      s,
		params:    make([]int, 0, maxCSIParams),
		oscBuffer: make([]rune, 0, 128),
	}
}

const (
	maxOSCLength  = 1 << 20
	maxCSIParams  = 32
	maxParamValue = 65535
)

// scan processes one rune of pty output.
func (p *scanner) scan(r rune) {
	switch p.state {
	case stateGround:
		switch r {
		case '\x1b':
			p.state = stateEscape
		case '\x07':
			p.sink.bell()
		}
	case stateEscape:
		switch r {
		case '[':
			p.state = stateCSI
			p.params = p.params[:0]
			p.currentParam = 0
			p.private = false
		case ']':
			p.state = stateOSC
			p.oscBuffer = p.oscBuffer[:0]
		case 'P':
			p.state = stateDCS
		case '(', ')':
			p.state = stateCharset
		case '\x1b':
		default:
			p.state = stateGround
		}
	case stateCSI:
		switch {
		case r >= '0' && r <= '9':
			p.currentParam = min(p.currentParam*10+int(r-'0'), maxParamValue)
		case r == ';':
			p.pushParam()
		case r >= '<' && r <= '?':
			p.private = true
		case r >= ' ' && r <= '/':
		case r >= '@' && r <= '~':
			p.pushParam()
			p.handleCSI(r)
			p.state = stateGround
		case r == '\x1b':
			p.state = stateEscape
		default:
			p.state = stateGround
		}
	case stateOSC:
		if r == '\x07' || r == '\x1b' { // BEL, or ESC starting ST
			p.handleOSC(p.oscBuffer)
			p.state = stateGround
			if r == '\x1b' {
				p.scan(r)
			}
		} else if len(p.oscBuffer) < maxOSCLength {
			p.oscBuffer = append(p.oscBuffer, r)
		}
	case stateDCS:
		if r == '\x1b' {
			p.state = stateDCSEscape
		}
	case stateDCSEscape:
		if r == '\\' {
			p.state = stateGround
		} else {
			p.state = stateDCS
		}
	case stateCharset:
		p.state = stateGround
	}
}

// pushParam ends the current CSI parameter. Parameters past maxCSIParams
// are discarded.
func (p *scanner) pushParam() {
	if len(p.params) < maxCSIParams {
		p.params = append(p.params, p.currentParam)
	}
	p.currentParam = 0
}

func (p *scanner) handleCSI(final rune) {
	if !p.private || (final != 'h' && final != 'l') {
		return
	}
	for _, mode := range p.params {
		p.sink.privateMode(mode, final == 'h')
	}
}

func (p *scanner) handleOSC(sequence []rune) {
	command, payload, ok := strings.Cut(string(sequence), ";")
	if !ok {
		return
	}
	code, err := strconv.Atoi(command)
	if err != nil {
		return
	}

	switch code {
	case 0, 2:
		p.sink.setTitle(payload)
	case 52:
		selection, data, ok := strings.Cut(payload, ";")
		if !ok {
			debugLog.Printf("ptycore: malformed OSC 52 %q", payload)
			return
		}
		p.sink.clipboard(selection, data)
	default:
		debugLog.Printf("ptycore: ignoring OSC %d", code)
	}
}

// clipboardFromSelection maps the first OSC 52 selection letter to the
// engine's clipboard value: c is standard, p and s are the selection, and
// anything else is passed through as its raw character value.
func clipboardFromSelection(selection string) int32 {
	if selection == "" {
		return 0
	}
	switch r := []rune(selection)[0]; r {
	case 'c':
		return 0
	case 'p', 's':
		return 1
	default:
		return int32(r)
	}
}
