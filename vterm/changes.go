// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/changes.go
// Summary: Write entry point, change detection and listener fan-out.
// Notes: Detection is a deliberate full-text compare of the rendered
// screen before and after each chunk. It is blind to attribute-only
// changes; that blindness is part of the contract.

package vterm

import (
	"reflect"
	"time"
	"unicode/utf8"
)

// ChangeEvent describes one detected change to the rendered screen text.
// Events are immutable and passed by value.
type ChangeEvent struct {
	// Frame is the monotonically increasing change counter; the first
	// detected change is frame 1.
	Frame uint64
	// Time is when the change was detected.
	Time time.Time
	// Before and After are the full ScreenText snapshots surrounding the
	// chunk that caused the change.
	Before string
	After  string
	// Cursor is the cursor position after the chunk was consumed.
	Cursor Position
	// Input is the exact chunk whose processing produced the change.
	Input string
}

// Listener receives change events. Listeners run synchronously on the
// Write call stack, in registration order; a listener that blocks delays
// Write and everything behind it.
type Listener func(ChangeEvent)

type listenerEntry struct {
	key uintptr
	fn  Listener
}

// Write consumes one chunk of terminal output, implementing io.Writer. It
// always reports the full chunk written. An incomplete UTF-8 rune at the
// end of the chunk is held back and prepended to the next call.
//
// The call is wrapped by change detection: when the rendered screen text
// differs afterwards, the frame counter increments, the sticky change flag
// is set and every registered listener is invoked with a ChangeEvent.
// Chunks that only move the cursor or touch attributes fire nothing.
func (t *VTerm) Write(p []byte) (int, error) {
	n := len(p)
	data := p
	if len(t.utf8Tail) > 0 {
		data = append(t.utf8Tail, p...)
		t.utf8Tail = nil
	}
	if cut := incompleteTailLen(data); cut > 0 {
		t.utf8Tail = append([]byte(nil), data[len(data)-cut:]...)
		data = data[:len(data)-cut]
	}
	if len(data) > 0 {
		t.feed(string(data))
	}
	return n, nil
}

// WriteString consumes a chunk given as a string.
func (t *VTerm) WriteString(s string) {
	t.Write([]byte(s))
}

// feed runs one chunk through the parser under change detection.
func (t *VTerm) feed(chunk string) {
	before := t.ScreenText()
	for _, r := range chunk {
		t.parser.Parse(r)
	}
	after := t.ScreenText()
	if before == after {
		return
	}

	t.frames++
	t.changed.Store(true)
	ev := ChangeEvent{
		Frame:  t.frames,
		Time:   time.Now(),
		Before: before,
		After:  after,
		Cursor: t.CursorPos(),
		Input:  chunk,
	}
	t.notify(ev)
}

// notify invokes the listeners registered when the event fired, skipping
// any that are removed by an earlier listener during dispatch.
func (t *VTerm) notify(ev ChangeEvent) {
	snapshot := make([]listenerEntry, len(t.listeners))
	copy(snapshot, t.listeners)
	for _, e := range snapshot {
		if !t.registered(e.key) {
			continue
		}
		t.invoke(e.fn, ev)
	}
}

// invoke isolates a single listener call: a panic is recovered and logged,
// never propagated, so the remaining listeners still run.
func (t *VTerm) invoke(fn Listener, ev ChangeEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			t.logf("vterm: screen change listener panicked: %v", rec)
		}
	}()
	fn(ev)
}

// listenerKey is the identity used for deduplication and removal: the
// function's code pointer. Closures created from the same function literal
// share identity, as do method values of different receivers.
func listenerKey(fn Listener) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

func (t *VTerm) registered(key uintptr) bool {
	for _, e := range t.listeners {
		if e.key == key {
			return true
		}
	}
	return false
}

func (t *VTerm) removeListener(key uintptr) {
	for i, e := range t.listeners {
		if e.key == key {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return
		}
	}
}

// OnScreenChange registers a listener for change events and returns a
// cancel function that removes exactly this registration; calling it more
// than once is harmless. Registering a listener that is already subscribed
// does not add a second registration. A nil listener is a programmer
// error and panics immediately.
func (t *VTerm) OnScreenChange(fn Listener) (cancel func()) {
	if fn == nil {
		panic("vterm: OnScreenChange requires a non-nil listener")
	}
	key := listenerKey(fn)
	if !t.registered(key) {
		t.listeners = append(t.listeners, listenerEntry{key: key, fn: fn})
	}
	return func() { t.removeListener(key) }
}

// OffScreenChange removes a listener by identity. Removing a listener that
// is not registered does nothing.
func (t *VTerm) OffScreenChange(fn Listener) {
	if fn == nil {
		return
	}
	t.removeListener(listenerKey(fn))
}

// HasChangedSinceLastRead reports whether the screen changed since the
// last read of this flag, clearing it atomically. The flag is sticky:
// multiple changes between reads coalesce into a single true. This is the
// one accessor safe to poll from another goroutine.
func (t *VTerm) HasChangedSinceLastRead() bool {
	return t.changed.Swap(false)
}

// MarkAsRead clears the sticky change flag without reading it.
func (t *VTerm) MarkAsRead() {
	t.changed.Store(false)
}

// FrameCount returns the cumulative number of change events fired. It
// equals the Frame field of the most recent event.
func (t *VTerm) FrameCount() uint64 { return t.frames }

// incompleteTailLen returns how many bytes at the end of b form the start
// of a UTF-8 rune whose remaining bytes have not arrived yet.
func incompleteTailLen(b []byte) int {
	i := len(b) - 1
	for i >= 0 && len(b)-i < utf8.UTFMax && b[i]&0xC0 == 0x80 {
		i--
	}
	if i < 0 || b[i] < 0x80 {
		return 0
	}
	var need int
	switch {
	case b[i]&0xE0 == 0xC0:
		need = 2
	case b[i]&0xF0 == 0xE0:
		need = 3
	case b[i]&0xF8 == 0xF0:
		need = 4
	default:
		return 0 // invalid leading byte; let the decoder see it
	}
	if len(b)-i < need {
		return len(b) - i
	}
	return 0
}
