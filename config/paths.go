// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for termlens configuration and runtime files.

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "termlens"), nil
}

func systemConfigPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, systemConfigName), nil
}

// DefaultSocketPath returns the control socket location: the user runtime
// directory when the system provides one, a per-uid /tmp path otherwise.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "termlens.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("termlens-%d.sock", os.Getuid()))
}

// DefaultHistoryPath returns where the frame history database lives unless
// the config overrides it.
func DefaultHistoryPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "termlens", "history.db"), nil
}

// SocketPath resolves the configured socket path, falling back to the
// default location when the config leaves it empty.
func SocketPath() string {
	if path := System().GetString("server", "socket", ""); path != "" {
		return path
	}
	return DefaultSocketPath()
}

// HistoryPath resolves the configured history database path, falling back
// to the default location when the config leaves it empty.
func HistoryPath() (string, error) {
	if path := System().GetString("history", "path", ""); path != "" {
		return path, nil
	}
	return DefaultHistoryPath()
}
