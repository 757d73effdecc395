// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: ptycore/engine.go
// Summary: Reference core.Engine that backs every surface with a pty child process.
// Usage: Created by the host binary with a core.Notifier (usually bridge.Notifier).
// Notes: Each surface owns a reader and a waiter goroutine; both report through the
// notifier from those goroutines, never from the caller's.

package ptycore

import (
	"bufio"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/framegrace/ghostbridge/core"
	"github.com/framegrace/ghostbridge/surface"
)

const (
	modeAppCursor      = 1
	modeFocusReporting = 1004
)

// Options configure the engine.
type Options struct {
	Shell string   // program to run; $SHELL, then /bin/sh when empty
	Args  []string // arguments after the program name
	Term  string   // TERM for the child; xterm-256color when empty
	Env   []string // extra environment entries

	CellWidth  float64 // points per column
	CellHeight float64 // points per row

	// ConfirmClipboardWrite is passed through on every clipboard write.
	ConfirmClipboardWrite bool

	// KillTimeout bounds how long a destroyed child may ignore SIGTERM.
	KillTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.Term == "" {
		o.Term = "xterm-256color"
	}
	if o.CellWidth <= 0 {
		o.CellWidth = 8
	}
	if o.CellHeight <= 0 {
		o.CellHeight = 16
	}
	if o.KillTimeout <= 0 {
		o.KillTimeout = 2 * time.Second
	}
}

// Engine runs one child process per surface.
type Engine struct {
	opts     Options
	notifier core.Notifier

	mu       sync.Mutex
	shell    string
	ready    bool
	surfaces *surface.Table[*ptySurface]

	requests atomic.Uint64
}

var _ core.Engine = (*Engine)(nil)

// New creates an engine reporting to notifier. A nil notifier discards
// notifications.
func New(notifier core.Notifier, opts Options) *Engine {
	if notifier == nil {
		notifier = core.NopNotifier{}
	}
	opts.applyDefaults()
	return &Engine{
		opts:     opts,
		notifier: notifier,
		surfaces: surface.NewTable[*ptySurface](),
	}
}

// EnsureInitialized resolves the shell once.
func (e *Engine) EnsureInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		return true
	}
	shell := e.opts.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	path, err := exec.LookPath(shell)
	if err != nil {
		log.Printf("ptycore: shell %q not found: %v", shell, err)
		return false
	}
	e.shell = path
	e.ready = true
	debugLog.Printf("ptycore: using shell %s", path)
	return true
}

func (e *Engine) size(frame core.Frame, scale float64) *pty.Winsize {
	if scale <= 0 {
		scale = 1
	}
	cols := int(frame.Width / e.opts.CellWidth)
	rows := int(frame.Height / e.opts.CellHeight)
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &pty.Winsize{
		Cols: uint16(min(cols, 0xffff)),
		Rows: uint16(min(rows, 0xffff)),
		X:    uint16(min(int(frame.Width*scale), 0xffff)),
		Y:    uint16(min(int(frame.Height*scale), 0xffff)),
	}
}

// SurfaceCreate starts a child process. The native handle is not used by this
// engine beyond logging its size.
func (e *Engine) SurfaceCreate(buffer []byte, frame core.Frame, scale float64) int32 {
	if !e.EnsureInitialized() {
		return -1
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		debugLog.Printf("ptycore: rejecting empty frame %+v", frame)
		return -1
	}

	cmd := exec.Command(e.shell, e.opts.Args...)
	cmd.Env = append(os.Environ(), "TERM="+e.opts.Term)
	cmd.Env = append(cmd.Env, e.opts.Env...)

	ptmx, err := pty.StartWithSize(cmd, e.size(frame, scale))
	if err != nil {
		log.Printf("ptycore: failed to start pty: %v", err)
		return -1
	}
	s := &ptySurface{
		engine:     e,
		cmd:        cmd,
		pty:        ptmx,
		readerDone: make(chan struct{}),
		done:       make(chan struct{}),
	}
	s.scanner = newScanner(s)

	e.mu.Lock()
	id := e.surfaces.Insert(s)
	if id >= 0 {
		s.id = id
	}
	e.mu.Unlock()
	if id < 0 {
		log.Printf("ptycore: surface table full")
		_ = cmd.Process.Kill()
		_ = ptmx.Close()
		go func() { _ = cmd.Wait() }()
		return -1
	}

	go s.read()
	go s.wait()

	debugLog.Printf("ptycore: surface %d started pid %d (handle %d bytes)", id, cmd.Process.Pid, len(buffer))
	return id
}

func (e *Engine) lookup(id int32) (*ptySurface, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surfaces.Get(id)
}

// SurfaceDestroy terminates the child. Later notifications for the surface
// are suppressed and the id never resolves again.
func (e *Engine) SurfaceDestroy(id int32) bool {
	e.mu.Lock()
	s, ok := e.surfaces.Remove(id)
	e.mu.Unlock()
	if !ok {
		return false
	}
	s.stop(e.opts.KillTimeout)
	return true
}

func (e *Engine) SurfaceResize(id int32, frame core.Frame, scale float64) bool {
	s, ok := e.lookup(id)
	if !ok || frame.Width <= 0 || frame.Height <= 0 {
		return false
	}
	if err := pty.Setsize(s.pty, e.size(frame, scale)); err != nil {
		debugLog.Printf("ptycore: resize %d: %v", id, err)
		return false
	}
	return true
}

func (e *Engine) SurfaceSetFocus(id int32, focus bool) bool {
	s, ok := e.lookup(id)
	if !ok {
		return false
	}
	s.mu.Lock()
	s.focused = focus
	report := s.focusReporting
	s.mu.Unlock()
	if report {
		seq := "\x1b[O"
		if focus {
			seq = "\x1b[I"
		}
		return s.write([]byte(seq))
	}
	return true
}

func (e *Engine) SurfaceSetOccluded(id int32, occluded bool) bool {
	s, ok := e.lookup(id)
	if !ok {
		return false
	}
	s.mu.Lock()
	s.occluded = occluded
	s.mu.Unlock()
	return true
}

// SurfaceSendKey encodes and writes a key event. Releases and composing
// events are accepted without writing anything.
func (e *Engine) SurfaceSendKey(id int32, ev core.KeyEvent) bool {
	s, ok := e.lookup(id)
	if !ok {
		return false
	}
	if ev.Action == core.ActionRelease || ev.Composing {
		return true
	}
	s.mu.Lock()
	appMode := s.appCursor
	s.mu.Unlock()
	b := encodeKey(ev, appMode)
	if b == nil {
		debugLog.Printf("ptycore: no encoding for keycode %d codepoint %d", ev.Keycode, ev.UnshiftedCodepoint)
		return false
	}
	return s.write(b)
}

func (e *Engine) SurfaceSendText(id int32, text []byte) bool {
	s, ok := e.lookup(id)
	if !ok {
		return false
	}
	if len(text) == 0 {
		return true
	}
	return s.write(text)
}

// Len returns the number of live surfaces.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surfaces.Len()
}

// Close destroys every live surface.
func (e *Engine) Close() {
	e.mu.Lock()
	var live []int32
	e.surfaces.Each(func(id int32, _ *ptySurface) { live = append(live, id) })
	e.mu.Unlock()
	for _, id := range live {
		e.SurfaceDestroy(id)
	}
}

type ptySurface struct {
	engine  *Engine
	id      int32
	cmd     *exec.Cmd
	pty     *os.File
	scanner *scanner

	dead       atomic.Bool
	readerDone chan struct{}
	done       chan struct{}

	mu             sync.Mutex
	appCursor      bool
	focusReporting bool
	focused        bool
	occluded       bool
}

func (s *ptySurface) write(b []byte) bool {
	if s.dead.Load() {
		return false
	}
	if _, err := s.pty.Write(b); err != nil {
		debugLog.Printf("ptycore: write to surface %d: %v", s.id, err)
		return false
	}
	return true
}

func (s *ptySurface) read() {
	defer close(s.readerDone)
	reader := bufio.NewReader(s.pty)
	for {
		r, _, err := reader.ReadRune()
		if err != nil {
			// Linux reports EIO once the child side is gone.
			if !errors.Is(err, io.EOF) && !errors.Is(err, syscall.EIO) && !errors.Is(err, os.ErrClosed) {
				log.Printf("ptycore: reading surface %d: %v", s.id, err)
			}
			return
		}
		s.scanner.scan(r)
	}
}

// exitStatus converts a Wait error into an exit code; death by signal is
// reported as 128 plus the signal number.
func exitStatus(err error) uint32 {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + uint32(ws.Signal())
	}
	if code := exitErr.ExitCode(); code >= 0 {
		return uint32(code)
	}
	return 1
}

func (s *ptySurface) wait() {
	defer close(s.done)
	err := s.cmd.Wait()
	code := exitStatus(err)

	// Let the reader flush what the child wrote before it exited.
	select {
	case <-s.readerDone:
	case <-time.After(100 * time.Millisecond):
	}
	debugLog.Printf("ptycore: surface %d exited with %d", s.id, code)
	if !s.dead.Load() {
		s.engine.notifier.SurfaceExit(s.id, false, code)
	}
}

func (s *ptySurface) stop(grace time.Duration) {
	s.dead.Store(true)
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
	}
	_ = s.pty.Close()
	go func() {
		select {
		case <-s.done:
		case <-time.After(grace):
			log.Printf("ptycore: surface %d ignored SIGTERM, killing", s.id)
			_ = s.cmd.Process.Kill()
		}
	}()
}

// sink implementation; runs on the reader goroutine.

func (s *ptySurface) bell() {
	if !s.dead.Load() {
		s.engine.notifier.Bell(s.id)
	}
}

func (s *ptySurface) setTitle(title string) {
	if !s.dead.Load() {
		s.engine.notifier.SetTitle(s.id, title)
	}
}

func (s *ptySurface) clipboard(selection, data string) {
	if s.dead.Load() {
		return
	}
	kind := clipboardFromSelection(selection)
	if data == "?" {
		req := s.engine.requests.Add(1)
		s.engine.notifier.ClipboardReadRequest(s.id, req, kind)
		return
	}
	text, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		debugLog.Printf("ptycore: surface %d sent invalid OSC 52 payload: %v", s.id, err)
		return
	}
	s.engine.notifier.ClipboardWrite(s.id, string(text), kind, s.engine.opts.ConfirmClipboardWrite)
}

func (s *ptySurface) privateMode(mode int, set bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch mode {
	case modeAppCursor:
		s.appCursor = set
	case modeFocusReporting:
		s.focusReporting = set
	}
}
