// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/termlens-run/main.go
// Summary: One-shot runner: spawns a command under the terminal emulator,
// waits for it to exit and prints the final screen.
// Usage: termlens-run [flags] command [args...]; used in scripts and CI to
// capture what a command leaves on screen.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"termlens/server"
)

func main() {
	cols := flag.Int("cols", 0, "Emulator width (default: the invoking terminal's, else 80)")
	rows := flag.Int("rows", 0, "Emulator height (default: the invoking terminal's, else 24)")
	timeout := flag.Duration("timeout", 0, "Kill the command after this long (0 waits forever)")
	verbose := flag.Bool("verbose", false, "Print a run summary to stderr")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: termlens-run [flags] command [args...]")
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "[termlens-run] ", log.LstdFlags)

	width, height := *cols, *rows
	if width <= 0 || height <= 0 {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if width <= 0 {
				width = w
			}
			if height <= 0 {
				height = h
			}
		}
	}

	id, err := uuid.NewRandom()
	if err != nil {
		logger.Fatalf("session id: %v", err)
	}
	session, err := server.StartSession(id, server.SessionConfig{
		Command: args[0],
		Args:    args[1:],
		Cols:    width,
		Rows:    height,
	})
	if err != nil {
		logger.Fatalf("start failed: %v", err)
	}

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigC:
			logger.Printf("received signal %v, terminating command", sig)
			session.Close()
		case <-session.Done():
		}
	}()

	if *timeout > 0 {
		timer := time.AfterFunc(*timeout, func() {
			logger.Printf("timeout after %s, terminating command", *timeout)
			session.Close()
		})
		defer timer.Stop()
	}

	waitErr := session.Wait()

	// The feed loop has consumed everything the PTY had before Done
	// closes, so this snapshot is the command's final screen.
	snapshot := session.Snapshot()
	for _, line := range strings.Split(snapshot.Screen, "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
	session.Close()

	code := 0
	if waitErr != nil {
		if ee, ok := waitErr.(*exec.ExitError); ok {
			code = ee.ExitCode()
		} else {
			code = 1
		}
	}
	if *verbose {
		logger.Printf("exit=%d frames=%d cursor=(%d,%d)", code, snapshot.Frame, snapshot.CursorX, snapshot.CursorY)
	}
	os.Exit(code)
}
