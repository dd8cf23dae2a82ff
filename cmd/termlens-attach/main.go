// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/termlens-attach/main.go
// Summary: Interactive viewer: attaches to a termlens server, renders frames
// with tcell and forwards keystrokes.
// Usage: termlens-attach [-socket path]; Ctrl-] detaches, Ctrl-T toggles
// the code-view overlay.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"

	"termlens/client"
	"termlens/config"
)

func main() {
	cfg := config.System()

	socket := flag.String("socket", config.SocketPath(), "Unix socket path")
	name := flag.String("name", "termlens-attach", "Client name sent in the handshake")
	codeView := flag.Bool("code-view", cfg.GetBool("client", "highlight", false), "Start with the syntax-highlight overlay on")
	styleName := flag.String("style", "", "Chroma style for the code view")
	plain := flag.Bool("plain", false, "Skip color overlays, render text only")
	pingInterval := flag.Duration("ping-interval", time.Duration(cfg.GetInt("client", "ping_interval_s", 30))*time.Second, "Liveness probe interval")
	flag.Parse()

	logFile, err := setupLogging()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
	} else {
		defer logFile.Close()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create screen failed: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "init screen failed: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	cols, rows := screen.Size()
	cl, err := client.Attach(*socket, client.Options{
		ClientName: *name,
		Cols:       uint16(cols),
		Rows:       uint16(rows),
		Styled:     !*plain,
	})
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "attach failed: %v\n", err)
		os.Exit(1)
	}
	defer cl.Close()
	log.Printf("attached to %s, session %x", cl.ServerName(), sessionTag(cl.SessionID()))

	renderer := client.NewRenderer()
	hl := client.NewHighlighter()
	hl.SetStyle(*styleName)
	renderer.SetHighlighter(hl)
	if *codeView {
		renderer.ToggleCodeView()
	}

	events := make(chan tcell.Event, 32)
	stopEvents := make(chan struct{})
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-stopEvents:
				close(events)
				return
			}
		}
	}()
	defer func() {
		close(stopEvents)
		screen.PostEventWait(tcell.NewEventInterrupt(nil))
	}()

	pingTicker := time.NewTicker(*pingInterval)
	defer pingTicker.Stop()

	// Drawing is decoupled from receiving: updates land in pending and the
	// redraw ticker paints the latest one, coalescing bursts client-side.
	hz := cfg.GetFloat("client", "redraw_hz", 60.0)
	if hz <= 0 {
		hz = 60.0
	}
	redraw := time.NewTicker(time.Duration(float64(time.Second) / hz))
	defer redraw.Stop()

	var last client.Update
	var pending bool
	for {
		select {
		case update, ok := <-cl.Frames():
			if !ok {
				reportExit(screen, cl)
				return
			}
			last = update
			pending = true

		case <-redraw.C:
			if pending {
				renderer.Draw(screen, last, statusLine(cl, renderer))
				pending = false
			}

		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch ev.Key() {
				case tcell.KeyCtrlRightSq: // Ctrl-], detach
					reportExit(screen, cl)
					return
				case tcell.KeyCtrlT:
					renderer.ToggleCodeView()
					renderer.Draw(screen, last, statusLine(cl, renderer))
				default:
					if data := client.EncodeKey(ev); len(data) > 0 {
						if err := cl.SendInput(data); err != nil {
							log.Printf("send input failed: %v", err)
						}
					}
				}
			case *tcell.EventResize:
				screen.Sync()
				w, h := screen.Size()
				if err := cl.SendResize(w, h); err != nil {
					log.Printf("send resize failed: %v", err)
				}
				renderer.Draw(screen, last, statusLine(cl, renderer))
			case *tcell.EventInterrupt:
				// Ignore; used to wake PollEvent for shutdown.
			}

		case <-pingTicker.C:
			if err := cl.SendPing(); err != nil {
				log.Printf("send ping failed: %v", err)
			}
		}
	}
}

func statusLine(cl *client.Client, renderer *client.Renderer) string {
	status := fmt.Sprintf(" %s %x", cl.ServerName(), sessionTag(cl.SessionID()))
	if rtt := cl.Latency(); rtt > 0 {
		status += fmt.Sprintf(" · %s", rtt.Round(time.Millisecond))
	}
	if renderer.CodeView() {
		status += " · code view"
	}
	return status + " · Ctrl-] detach"
}

func sessionTag(id [16]byte) []byte {
	return id[:4]
}

// reportExit restores the terminal before explaining why the session ended;
// tcell owns the screen until Fini.
func reportExit(screen tcell.Screen, cl *client.Client) {
	screen.Fini()
	if reason := cl.ByeReason(); reason != "" {
		fmt.Printf("detached: %s\n", reason)
		return
	}
	if err := cl.Err(); err != nil {
		fmt.Printf("connection lost: %v\n", err)
		return
	}
	fmt.Println("detached")
}

// setupLogging routes the standard logger to a file; stderr belongs to
// tcell while the screen is live.
func setupLogging() (*os.File, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	logDir := filepath.Join(configDir, "termlens", "logs")
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, err
	}
	logPath := filepath.Join(logDir, "attach.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	log.SetOutput(file)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return file, nil
}
