// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for ghostbridge configuration and data files.

package config

import (
	"os"
	"path/filepath"
)

const (
	configName  = "ghostbridge.yaml"
	journalName = "journal.db"
)

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "ghostbridge"), nil
}

func configPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, configName), nil
}

// Path returns the default configuration file location.
func Path() (string, error) {
	return configPath()
}

// DefaultJournalPath returns where the journal lives when no path is configured.
func DefaultJournalPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, journalName), nil
}
