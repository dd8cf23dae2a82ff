// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/termlens-search/main.go
// Summary: Queries the frame history database: full-text search across
// recorded screens, session listings and single-frame retrieval.
// Usage: termlens-search [-store path] term...; -list shows sessions,
// -session with -at prints one stored screen.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"termlens/config"
	"termlens/server"
)

func main() {
	defaultStore := ""
	if path, err := config.HistoryPath(); err == nil {
		defaultStore = path
	}

	storePath := flag.String("store", defaultStore, "Frame history database path")
	sessionStr := flag.String("session", "", "Restrict to one session (UUID)")
	limit := flag.Int("limit", 20, "Maximum matches to print")
	list := flag.Bool("list", false, "List recorded sessions instead of searching")
	at := flag.Uint64("at", 0, "Print the stored screen with this frame counter (needs -session)")
	full := flag.Bool("full", false, "Print whole screens instead of matching lines")
	flag.Parse()

	logger := log.New(os.Stderr, "", 0)
	if *storePath == "" {
		logger.Fatal("no history database configured; pass -store")
	}
	if _, err := os.Stat(*storePath); err != nil {
		logger.Fatalf("history database: %v", err)
	}

	store, err := server.OpenFrameStore(*storePath)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer store.Close()

	var sessionID [16]byte
	haveSession := false
	if *sessionStr != "" {
		parsed, err := uuid.Parse(*sessionStr)
		if err != nil {
			logger.Fatalf("invalid session id %q: %v", *sessionStr, err)
		}
		sessionID = parsed
		haveSession = true
	}

	switch {
	case *list:
		listSessions(store, logger)
	case *at > 0:
		if !haveSession {
			logger.Fatal("-at needs -session")
		}
		printFrame(store, logger, sessionID, *at)
	default:
		term := strings.Join(flag.Args(), " ")
		if term == "" {
			logger.Fatal("usage: termlens-search [flags] term...")
		}
		searchFrames(store, logger, term, sessionID, haveSession, *limit, *full)
	}
}

func listSessions(store *server.FrameStore, logger *log.Logger) {
	sessions, err := store.Sessions()
	if err != nil {
		logger.Fatalf("list sessions: %v", err)
	}
	if len(sessions) == 0 {
		fmt.Println("no recorded sessions")
		return
	}
	for _, s := range sessions {
		fmt.Printf("%s  %6d frames  %s .. %s\n",
			s.Session, s.Frames,
			s.First.Format(time.DateTime), s.Last.Format(time.DateTime))
	}
}

func printFrame(store *server.FrameStore, logger *log.Logger, sessionID [16]byte, frame uint64) {
	rec, err := store.FrameAt(sessionID, frame)
	if err != nil {
		logger.Fatalf("frame %d: %v", frame, err)
	}
	fmt.Printf("session %s frame %d at %s\n\n", rec.Session, rec.Frame, rec.Timestamp.Format(time.DateTime))
	printScreen(rec.Screen)
}

func searchFrames(store *server.FrameStore, logger *log.Logger, term string, sessionID [16]byte, haveSession bool, limit int, full bool) {
	var (
		records []server.FrameRecord
		err     error
	)
	if haveSession {
		records, err = store.SearchSession(sessionID, term, limit)
	} else {
		records, err = store.Search(term, limit)
	}
	if err != nil {
		logger.Fatalf("search: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("no matches")
		return
	}

	for _, rec := range records {
		fmt.Printf("%s  %s #%d\n", rec.Timestamp.Format(time.DateTime), rec.Session, rec.Frame)
		if full {
			printScreen(rec.Screen)
			fmt.Println()
			continue
		}
		for _, line := range matchingLines(rec.Screen, term) {
			fmt.Printf("    %s\n", line)
		}
	}
}

// matchingLines returns the screen lines containing the term, ignoring
// case the way the trigram index does. Matches that the index found across
// line boundaries fall back to the first non-blank line.
func matchingLines(screen, term string) []string {
	var out []string
	needle := strings.ToLower(term)
	for _, line := range strings.Split(screen, "\n") {
		if strings.Contains(strings.ToLower(line), needle) {
			out = append(out, strings.TrimRight(line, " "))
		}
	}
	if out == nil {
		for _, line := range strings.Split(screen, "\n") {
			if trimmed := strings.TrimRight(line, " "); trimmed != "" {
				out = append(out, trimmed)
				break
			}
		}
	}
	return out
}

func printScreen(screen string) {
	for _, line := range strings.Split(screen, "\n") {
		fmt.Println(strings.TrimRight(line, " "))
	}
}
