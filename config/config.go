// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Typed ghostbridge configuration and the process-wide config store.

package config

import (
	"os"
	"strings"
	"sync"
	"time"
)

// DebugEnv enables verbose logging in every package when set to a true value.
const DebugEnv = "GHOSTBRIDGE_DEBUG"

// BridgeConfig tunes event delivery.
type BridgeConfig struct {
	QueueSize      int           `yaml:"queue_size"`
	HandoffTimeout time.Duration `yaml:"handoff_timeout"`
}

// EngineConfig configures the pty reference engine.
type EngineConfig struct {
	Shell                 string   `yaml:"shell"`
	Args                  []string `yaml:"args,omitempty"`
	Term                  string   `yaml:"term"`
	CellWidth             float64  `yaml:"cell_width"`
	CellHeight            float64  `yaml:"cell_height"`
	ConfirmClipboardWrite bool     `yaml:"confirm_clipboard_write"`
}

// JournalConfig configures the optional event journal.
type JournalConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Path            string        `yaml:"path"`
	BatchSize       int           `yaml:"batch_size"`
	FlushInterval   time.Duration `yaml:"flush_interval"`
	RedactClipboard bool          `yaml:"redact_clipboard"`
}

// LoggingConfig selects log verbosity and destination.
type LoggingConfig struct {
	Verbose bool   `yaml:"verbose"`
	File    string `yaml:"file"`
}

// Config is the whole ghostbridge.yaml document.
type Config struct {
	Bridge  BridgeConfig  `yaml:"bridge"`
	Engine  EngineConfig  `yaml:"engine"`
	Journal JournalConfig `yaml:"journal"`
	Logging LoggingConfig `yaml:"logging"`
}

var (
	mu      sync.RWMutex
	once    sync.Once
	current Config
	loadErr error
)

// Err returns the most recent load error.
func Err() error {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return loadErr
}

// Get returns the process-wide configuration, loading it on first use.
func Get() Config {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set replaces the in-memory configuration.
func Set(cfg Config) {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}

// Reload re-reads the configuration file.
func Reload() error {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	current, loadErr = LoadDefault()
	return loadErr
}

// Save writes the in-memory configuration to the default path.
func Save() error {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	path, err := configPath()
	if err != nil {
		return err
	}
	return Write(path, current)
}

func initStore() {
	mu.Lock()
	defer mu.Unlock()
	current, loadErr = LoadDefault()
}

// ApplyEnv overlays environment settings onto cfg.
func ApplyEnv(cfg *Config) {
	if envTrue(os.Getenv(DebugEnv)) {
		cfg.Logging.Verbose = true
	}
}

func envTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
