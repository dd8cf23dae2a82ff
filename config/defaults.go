// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for the termlens configuration file.

package config

// applySystemDefaults fills in any keys a loaded config is missing. The
// embedded defaults file carries the same values; this keeps configs
// written by older builds working after new keys appear.
func applySystemDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("", Section{
		"serverName": "termlens",
	})
	cfg.RegisterDefaults("server", Section{
		"socket":        "",
		"default_cols":  80,
		"default_rows":  24,
		"max_sessions":  32,
		"frame_backlog": 64,
	})
	cfg.RegisterDefaults("publisher", Section{
		"settle_ms":       25,
		"max_interval_ms": 250,
	})
	cfg.RegisterDefaults("history", Section{
		"enabled":  true,
		"path":     "",
		"batch":    64,
		"flush_ms": 500,
	})
	cfg.RegisterDefaults("client", Section{
		"redraw_hz":       60.0,
		"highlight":       false,
		"ping_interval_s": 30,
	})
}
