// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/termlens-server/main.go
// Summary: The termlens session server: spawns PTY sessions, publishes frames
// over the control socket and records history.
// Usage: Run by operators; clients connect with termlens-attach.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"termlens/config"
	"termlens/server"
)

func main() {
	cfg := config.System()
	if err := config.Err(); err != nil {
		log.Printf("config: falling back to defaults: %v", err)
	}

	defaultStore := ""
	if cfg.GetBool("history", "enabled", true) {
		if path, err := config.HistoryPath(); err == nil {
			defaultStore = path
		}
	}

	socketPath := flag.String("socket", config.SocketPath(), "Unix socket path")
	serverName := flag.String("name", cfg.GetString("", "serverName", "termlens"), "Server name announced to clients")
	command := flag.String("command", "", "Command run in new sessions (default: $SHELL)")
	cols := flag.Int("cols", cfg.GetInt("server", "default_cols", 80), "Default session width")
	rows := flag.Int("rows", cfg.GetInt("server", "default_rows", 24), "Default session height")
	maxSessions := flag.Int("max-sessions", cfg.GetInt("server", "max_sessions", 32), "Maximum concurrent sessions")
	backlog := flag.Int("backlog", cfg.GetInt("server", "frame_backlog", 64), "Frames retained per session")
	settle := flag.Duration("settle", time.Duration(cfg.GetInt("publisher", "settle_ms", 25))*time.Millisecond, "Quiet time before a frame is published")
	maxInterval := flag.Duration("max-interval", time.Duration(cfg.GetInt("publisher", "max_interval_ms", 250))*time.Millisecond, "Maximum time between frames under sustained output")
	storePath := flag.String("store", defaultStore, "Frame history database path (empty disables recording)")
	verbose := flag.Bool("verbose", false, "Log per-session events")
	cpuProfile := flag.String("pprof-cpu", "", "Write CPU profile to file")
	memProfile := flag.String("pprof-mem", "", "Write heap profile to file on exit")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create CPU profile: %v\n", err)
			os.Exit(1)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	var sinks []server.EventSink
	if *verbose {
		sinks = append(sinks, server.NewLogSink(log.Default()))
	}

	var store *server.FrameStore
	if *storePath != "" {
		storeCfg := server.DefaultStoreConfig(*storePath)
		storeCfg.BatchSize = cfg.GetInt("history", "batch", storeCfg.BatchSize)
		storeCfg.FlushEvery = time.Duration(cfg.GetInt("history", "flush_ms", 500)) * time.Millisecond
		var err error
		store, err = server.OpenFrameStoreWithConfig(storeCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open frame store: %v\n", err)
			os.Exit(1)
		}
		sinks = append(sinks, server.NewStoreSink(store))
	}

	mgrCfg := server.ManagerConfig{
		ServerName:   *serverName,
		Command:      *command,
		DefaultCols:  *cols,
		DefaultRows:  *rows,
		MaxSessions:  *maxSessions,
		FrameBacklog: *backlog,
		Settle:       *settle,
		MaxInterval:  *maxInterval,
		Sink:         server.MultiSink(sinks...),
	}
	if *verbose {
		mgrCfg.Observer = server.NewPublishLogger(log.Default())
	}

	srv := server.NewServer(*socketPath, server.NewManager(mgrCfg))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("termlens server listening on %s\n", *socketPath)
	if store != nil {
		fmt.Printf("recording frames to %s\n", *storePath)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigCh
		if sig == syscall.SIGHUP {
			log.Println("Received SIGHUP, reloading configuration...")
			if err := config.Reload(); err != nil {
				log.Printf("Failed to reload config: %v", err)
			} else {
				log.Println("Config reloaded successfully.")
			}
			continue
		}
		// SIGINT or SIGTERM -> Exit
		break
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Printf("shutdown incomplete: %v", err)
	}
	if store != nil {
		_ = store.Close()
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create heap profile: %v\n", err)
		} else {
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write heap profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	fmt.Println("Server stopped")
}
