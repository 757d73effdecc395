// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/store.go
// Summary: Load, defaults and write logic for the YAML config file.

package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bridge: BridgeConfig{
			QueueSize:      1024,
			HandoffTimeout: 5 * time.Millisecond,
		},
		Engine: EngineConfig{
			Term:                  "xterm-256color",
			CellWidth:             8,
			CellHeight:            16,
			ConfirmClipboardWrite: true,
		},
		Journal: JournalConfig{
			BatchSize:       100,
			FlushInterval:   500 * time.Millisecond,
			RedactClipboard: true,
		},
	}
}

// normalize replaces out-of-range values with defaults.
func normalize(cfg *Config) {
	def := Default()
	if cfg.Bridge.QueueSize <= 0 {
		log.Printf("Config: bridge.queue_size %d out of range, using %d", cfg.Bridge.QueueSize, def.Bridge.QueueSize)
		cfg.Bridge.QueueSize = def.Bridge.QueueSize
	}
	if cfg.Bridge.HandoffTimeout < 0 {
		log.Printf("Config: bridge.handoff_timeout %s is negative, using 0", cfg.Bridge.HandoffTimeout)
		cfg.Bridge.HandoffTimeout = 0
	}
	if cfg.Engine.Term == "" {
		cfg.Engine.Term = def.Engine.Term
	}
	if cfg.Engine.CellWidth <= 0 {
		cfg.Engine.CellWidth = def.Engine.CellWidth
	}
	if cfg.Engine.CellHeight <= 0 {
		cfg.Engine.CellHeight = def.Engine.CellHeight
	}
	if cfg.Journal.BatchSize <= 0 {
		cfg.Journal.BatchSize = def.Journal.BatchSize
	}
	if cfg.Journal.FlushInterval <= 0 {
		cfg.Journal.FlushInterval = def.Journal.FlushInterval
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults; a malformed one is logged and also yields the defaults.
func Load(path string) (Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (Config, bool, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		log.Printf("Config: Failed to read config %s: %v", path, err)
		return cfg, true, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && len(bytes.TrimSpace(data)) > 0 {
		log.Printf("Config: Failed to parse config %s: %v", path, err)
		return Default(), true, fmt.Errorf("config: parse %s: %w", path, err)
	}
	normalize(&cfg)
	return cfg, true, nil
}

// LoadDefault loads the config from the default path and writes the defaults
// there when no file exists yet. Environment settings are applied last.
func LoadDefault() (Config, error) {
	path, err := configPath()
	if err != nil {
		log.Printf("Config: Failed to resolve config path: %v", err)
		cfg := Default()
		ApplyEnv(&cfg)
		return cfg, err
	}
	cfg, exists, err := load(path)
	if !exists {
		if werr := Write(path, cfg); werr != nil {
			log.Printf("Config: Failed to write default config: %v", werr)
		}
	} else if err == nil {
		log.Printf("Config: Loaded config from %s", path)
	}
	ApplyEnv(&cfg)
	return cfg, err
}

// Write stores cfg as YAML at path.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
