// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/ghostbridge/main.go
// Summary: Host binary wiring the pty engine, the event bridge and the binding facade.
// Usage: `ghostbridge` opens the interactive devshell on a terminal; with -headless or a
// non-terminal stdin it reads JSON commands line by line and prints results and events.
// Notes: Flags override the YAML config; GHOSTBRIDGE_DEBUG turns on verbose logs everywhere.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/framegrace/ghostbridge/binding"
	"github.com/framegrace/ghostbridge/bridge"
	"github.com/framegrace/ghostbridge/config"
	"github.com/framegrace/ghostbridge/hostloop"
	"github.com/framegrace/ghostbridge/internal/devshell"
	"github.com/framegrace/ghostbridge/journal"
	"github.com/framegrace/ghostbridge/ptycore"
)

func main() {
	configPath := flag.String("config", "", "Config file (default: user config dir)")
	verboseLogs := flag.Bool("verbose-logs", false, "Enable verbose logging in every package")
	logFile := flag.String("log-file", "", "Append logs to this file")
	headless := flag.Bool("headless", false, "Read JSON commands from stdin even on a terminal")
	journalPath := flag.String("journal", "", "Record delivered events into this SQLite file")
	shell := flag.String("shell", "", "Program to run in new surfaces")
	linger := flag.Duration("linger", time.Second, "Headless: keep delivering events this long after stdin ends")
	statsEvery := flag.Duration("stats", 0, "Log bridge counters at this interval (0 disables)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (continuing with defaults)\n", err)
	}
	if *verboseLogs {
		cfg.Logging.Verbose = true
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	}
	if *shell != "" {
		cfg.Engine.Shell = *shell
	}
	if *journalPath != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = *journalPath
	}

	interactive := !*headless && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if interactive && cfg.Logging.File == "" {
		if path, err := config.Path(); err == nil {
			cfg.Logging.File = filepath.Join(filepath.Dir(path), "ghostbridge.log")
		}
	}
	closeLog, err := setupLogging(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	bridge.SetVerboseLogging(cfg.Logging.Verbose)
	binding.SetVerboseLogging(cfg.Logging.Verbose)
	ptycore.SetVerboseLogging(cfg.Logging.Verbose)
	journal.SetVerboseLogging(cfg.Logging.Verbose)

	b := bridge.New(
		bridge.WithQueueSize(cfg.Bridge.QueueSize),
		bridge.WithHandoffTimeout(cfg.Bridge.HandoffTimeout),
	)
	engine := ptycore.New(bridge.Notifier(b), ptycore.Options{
		Shell:                 cfg.Engine.Shell,
		Args:                  cfg.Engine.Args,
		Term:                  cfg.Engine.Term,
		CellWidth:             cfg.Engine.CellWidth,
		CellHeight:            cfg.Engine.CellHeight,
		ConfirmClipboardWrite: cfg.Engine.ConfirmClipboardWrite,
	})
	facade := binding.New(engine, b)

	var j *journal.Journal
	if cfg.Journal.Enabled {
		path := cfg.Journal.Path
		if path == "" {
			if path, err = config.DefaultJournalPath(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to resolve journal path: %v\n", err)
				os.Exit(1)
			}
		}
		j, err = journal.Open(path, journal.Options{
			BatchSize:       cfg.Journal.BatchSize,
			FlushInterval:   cfg.Journal.FlushInterval,
			RedactClipboard: cfg.Journal.RedactClipboard,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open journal: %v\n", err)
			os.Exit(1)
		}
		facade.WrapHandlers(j.Tee)
		log.Printf("Ghostbridge: journaling events to %s", path)
	}

	stopStats := startStats(b, *statsEvery)

	if interactive {
		err = devshell.Run(func(exec bridge.Executor) (*binding.Host, error) {
			return binding.NewHost(facade, exec), nil
		}, devshell.Options{
			CellWidth:  cfg.Engine.CellWidth,
			CellHeight: cfg.Engine.CellHeight,
		})
	} else {
		err = runHeadless(facade, *linger)
	}

	stopStats()
	b.Close()
	engine.Close()
	if j != nil {
		if cerr := j.Close(); cerr != nil {
			log.Printf("Ghostbridge: journal close: %v", cerr)
		}
		st := j.Stats()
		log.Printf("Ghostbridge: journal recorded=%d written=%d dropped=%d failed=%d",
			st.Recorded, st.Written, st.Dropped, st.Failed)
	}
	bridge.NewStatsLogger(log.Default()).ObserveBridgeStats(b.Stats())

	if err != nil {
		closeLog()
		fmt.Fprintf(os.Stderr, "ghostbridge: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Get(), config.Err()
	}
	cfg, err := config.Load(path)
	config.ApplyEnv(&cfg)
	return cfg, err
}

func setupLogging(cfg config.LoggingConfig) (func(), error) {
	if cfg.File == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	log.SetOutput(file)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() {
		log.SetOutput(os.Stderr)
		_ = file.Close()
	}, nil
}

func startStats(b *bridge.Bridge, every time.Duration) func() {
	if every <= 0 {
		return func() {}
	}
	observer := bridge.NewStatsLogger(log.Default())
	ticker := time.NewTicker(every)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				observer.ObserveBridgeStats(b.Stats())
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

// runHeadless runs the script on a host loop until stdin ends or a signal arrives.
func runHeadless(facade *binding.Facade, linger time.Duration) error {
	loop := hostloop.NewLoop(hostloop.DefaultCapacity)
	loop.Start()
	defer func() {
		loop.Stop()
		<-loop.Done()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	s := newScript(facade, loop, os.Stdout)
	errCh := make(chan error, 1)
	go func() { errCh <- s.run(os.Stdin) }()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case sig := <-sigCh:
		log.Printf("Ghostbridge: received %s, shutting down", sig)
		return s.teardown()
	}

	select {
	case <-time.After(linger):
	case <-s.exited():
	case sig := <-sigCh:
		log.Printf("Ghostbridge: received %s, shutting down", sig)
	}
	return s.teardown()
}
