// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/changes_test.go
// Summary: Tests for change detection, the sticky change flag and
// listener subscription semantics.

package vterm

import (
	"io"
	"log"
	"testing"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestWriteReportsFullChunk(t *testing.T) {
	term := New(10, 3)
	chunk := []byte("Hello\x1b[2J\x1b[1") // ends mid-sequence
	n, err := term.Write(chunk)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(chunk) {
		t.Fatalf("Write reported %d bytes, expected %d", n, len(chunk))
	}
}

func TestSimpleWriteDetected(t *testing.T) {
	term := New(10, 3)
	term.WriteString("Hello")

	if got, want := term.ScreenText(), "Hello     \n          \n          "; got != want {
		t.Errorf("screen text:\nexpected %q\ngot      %q", want, got)
	}
	if x, y := term.CursorX(), term.CursorY(); x != 5 || y != 0 {
		t.Errorf("cursor: expected (5,0), got (%d,%d)", x, y)
	}
	if !term.HasChangedSinceLastRead() {
		t.Error("expected change flag after first write")
	}
	if term.HasChangedSinceLastRead() {
		t.Error("change flag must clear after being read")
	}
}

func TestWrapAcrossRows(t *testing.T) {
	term := New(5, 3)
	term.WriteString("HelloWorld")

	if got, want := term.ScreenText(), "Hello\nWorld\n     "; got != want {
		t.Errorf("screen text:\nexpected %q\ngot      %q", want, got)
	}
	if x, y := term.CursorX(), term.CursorY(); x != 5 || y != 1 {
		t.Errorf("cursor: expected (5,1) pending wrap, got (%d,%d)", x, y)
	}
}

func TestCursorMovesFireNoEvents(t *testing.T) {
	term := New(10, 3)
	events := 0
	term.OnScreenChange(func(ChangeEvent) { events++ })

	term.WriteString("Hello")
	if events != 1 {
		t.Fatalf("expected 1 event after text write, got %d", events)
	}

	for i := 0; i < 100; i++ {
		term.WriteString("\x1b[1;1H")
	}
	if events != 1 {
		t.Fatalf("cursor-only writes fired %d extra events", events-1)
	}
	if !term.HasChangedSinceLastRead() {
		t.Fatal("flag from the text write should still be set")
	}

	term.WriteString("New")
	if events != 2 {
		t.Fatalf("expected 2 events total, got %d", events)
	}
	if !term.HasChangedSinceLastRead() {
		t.Error("expected change flag after second text write")
	}
}

func TestCursorRelativeMoveClamped(t *testing.T) {
	term := New(10, 3)
	term.WriteString("\x1b[3;6H")
	if x, y := term.CursorX(), term.CursorY(); x != 5 || y != 2 {
		t.Fatalf("setup cursor: expected (5,2), got (%d,%d)", x, y)
	}

	term.WriteString("\x1b[2A")
	if x, y := term.CursorX(), term.CursorY(); x != 5 || y != 0 {
		t.Errorf("cursor: expected (5,0), got (%d,%d)", x, y)
	}
	if term.FrameCount() != 0 {
		t.Errorf("cursor motion produced %d change frames", term.FrameCount())
	}
}

func TestAttributeOnlyWritesFireNoEvents(t *testing.T) {
	term := New(10, 3)
	events := 0
	term.OnScreenChange(func(ChangeEvent) { events++ })

	term.WriteString("\x1b[1;31;44m")
	if events != 0 {
		t.Errorf("attribute change fired %d events", events)
	}
	if term.HasChangedSinceLastRead() {
		t.Error("attribute change must not set the flag")
	}
}

func TestOverwriteWithSameTextFiresNothing(t *testing.T) {
	term := New(10, 3)
	term.WriteString("Hello")
	term.MarkAsRead()

	term.WriteString("\x1b[1;1HHello")
	if term.HasChangedSinceLastRead() {
		t.Error("rewriting identical text must not set the flag")
	}
	if term.FrameCount() != 1 {
		t.Errorf("expected frame count 1, got %d", term.FrameCount())
	}
}

func TestStickyFlagCoalesces(t *testing.T) {
	term := New(10, 3)
	if term.HasChangedSinceLastRead() {
		t.Fatal("new terminal must start unchanged")
	}

	term.WriteString("a")
	term.WriteString("b")
	term.WriteString("c")

	if !term.HasChangedSinceLastRead() {
		t.Fatal("expected flag after writes")
	}
	if term.HasChangedSinceLastRead() {
		t.Fatal("three changes must coalesce into one read")
	}
}

func TestFrameCounter(t *testing.T) {
	term := New(10, 3)
	var frames []uint64
	term.OnScreenChange(func(ev ChangeEvent) { frames = append(frames, ev.Frame) })

	term.WriteString("a")
	term.WriteString("\x1b[1;1H") // no change
	term.WriteString("b")
	term.WriteString("c")

	want := []uint64{1, 2, 3}
	if len(frames) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(frames))
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("event %d: expected frame %d, got %d", i, want[i], frames[i])
		}
	}
	if term.FrameCount() != 3 {
		t.Errorf("FrameCount: expected 3, got %d", term.FrameCount())
	}
}

func TestChangeEventContents(t *testing.T) {
	term := New(5, 2)
	var got ChangeEvent
	term.OnScreenChange(func(ev ChangeEvent) { got = ev })

	term.WriteString("hi")

	if got.Before != "     \n     " {
		t.Errorf("Before: expected blank screen, got %q", got.Before)
	}
	if got.After != "hi   \n     " {
		t.Errorf("After: expected %q, got %q", "hi   \n     ", got.After)
	}
	if got.Cursor != (Position{X: 2, Y: 0}) {
		t.Errorf("Cursor: expected (2,0), got (%d,%d)", got.Cursor.X, got.Cursor.Y)
	}
	if got.Input != "hi" {
		t.Errorf("Input: expected %q, got %q", "hi", got.Input)
	}
	if got.Time.IsZero() {
		t.Error("Time must be set")
	}
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	term := New(10, 3)
	var order []string
	term.OnScreenChange(func(ChangeEvent) { order = append(order, "first") })
	term.OnScreenChange(func(ChangeEvent) { order = append(order, "second") })
	term.OnScreenChange(func(ChangeEvent) { order = append(order, "third") })

	term.WriteString("x")

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("call order: expected %v, got %v", want, order)
		}
	}
}

func TestListenerPanicIsolated(t *testing.T) {
	term := New(10, 3, WithLogger(quietLogger()))
	secondRan := false
	term.OnScreenChange(func(ChangeEvent) { panic("listener bug") })
	term.OnScreenChange(func(ChangeEvent) { secondRan = true })

	term.WriteString("x") // must not panic

	if !secondRan {
		t.Error("panic in one listener must not starve the others")
	}
	if !term.HasChangedSinceLastRead() {
		t.Error("change flag must survive a listener panic")
	}
}

func TestDuplicateRegistrationIgnored(t *testing.T) {
	term := New(10, 3)
	calls := 0
	fn := func(ChangeEvent) { calls++ }

	term.OnScreenChange(fn)
	term.OnScreenChange(fn)

	term.WriteString("x")
	if calls != 1 {
		t.Errorf("duplicate registration: expected 1 call, got %d", calls)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	term := New(10, 3)
	calls := 0
	cancel := term.OnScreenChange(func(ChangeEvent) { calls++ })

	term.WriteString("a")
	cancel()
	term.WriteString("b")

	if calls != 1 {
		t.Errorf("expected 1 call before cancel, got %d", calls)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	term := New(10, 3)
	other := 0
	cancel := term.OnScreenChange(func(ChangeEvent) {})
	term.OnScreenChange(func(ChangeEvent) { other++ })

	cancel()
	cancel() // second call must not remove anyone else

	term.WriteString("x")
	if other != 1 {
		t.Errorf("surviving listener: expected 1 call, got %d", other)
	}
}

func TestOffScreenChange(t *testing.T) {
	term := New(10, 3)
	calls := 0
	fn := func(ChangeEvent) { calls++ }
	term.OnScreenChange(fn)

	term.OffScreenChange(fn)
	term.WriteString("x")
	if calls != 0 {
		t.Errorf("removed listener was called %d times", calls)
	}

	term.OffScreenChange(fn)  // not registered: no-op
	term.OffScreenChange(nil) // nil: no-op
}

func TestOnScreenChangeNilPanics(t *testing.T) {
	term := New(10, 3)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil listener")
		}
	}()
	term.OnScreenChange(nil)
}

// TestListenerRemovedDuringDispatchSkipped verifies a listener removed
// by an earlier listener in the same event does not run.
func TestListenerRemovedDuringDispatchSkipped(t *testing.T) {
	term := New(10, 3)
	secondCalls := 0
	var cancelSecond func()
	term.OnScreenChange(func(ChangeEvent) { cancelSecond() })
	cancelSecond = term.OnScreenChange(func(ChangeEvent) { secondCalls++ })

	term.WriteString("x")
	if secondCalls != 0 {
		t.Errorf("listener removed mid-dispatch ran %d times", secondCalls)
	}
}

// TestSplitUTF8AcrossWrites verifies a multibyte rune cut by a chunk
// boundary is held back and completed by the next write.
func TestSplitUTF8AcrossWrites(t *testing.T) {
	term := New(10, 3)
	raw := []byte("hé") // 0x68 0xC3 0xA9

	term.Write(raw[:2]) // 'h' plus half of 'é'
	if got := term.ScreenText()[:2]; got != "h " {
		t.Fatalf("after partial write: expected %q, got %q", "h ", got)
	}

	term.Write(raw[2:])
	h := &harness{term: term}
	h.AssertText(t, 0, 0, "hé")
	h.AssertCursor(t, 2, 0)
}

func TestResetClearsScreenWithoutEvent(t *testing.T) {
	term := New(10, 3)
	events := 0
	term.OnScreenChange(func(ChangeEvent) { events++ })
	term.WriteString("Hello\x1b[31m")
	term.MarkAsRead()

	term.Reset()

	if got, want := term.ScreenText(), "          \n          \n          "; got != want {
		t.Errorf("after reset: expected blank screen, got %q", got)
	}
	if x, y := term.CursorX(), term.CursorY(); x != 0 || y != 0 {
		t.Errorf("after reset: expected cursor (0,0), got (%d,%d)", x, y)
	}
	if events != 1 {
		t.Errorf("Reset fired %d extra events", events-1)
	}
	if term.HasChangedSinceLastRead() {
		t.Error("Reset must not set the change flag")
	}
	if term.FrameCount() != 1 {
		t.Errorf("Reset must not advance frames, got %d", term.FrameCount())
	}

	// Listeners survive a reset.
	term.WriteString("x")
	if events != 2 {
		t.Errorf("listener lost across reset: %d events", events)
	}
}

// TestRISFullReset verifies ESC c inside the byte stream resets screen,
// attributes and modes. Unlike the Reset method it runs under change
// detection like any other input.
func TestRISFullReset(t *testing.T) {
	h := newHarness(10, 3)
	h.Send("Hi\x1b[31m\x1b[?25l\x1b[2;5r")
	h.Send("\x1bc")

	h.AssertScreen(t, "", "", "")
	h.AssertCursor(t, 0, 0)
	h.AssertScrollRegion(t, 0, 2)
	if !h.term.CursorVisible() {
		t.Error("RIS must restore cursor visibility")
	}

	h.Send("X")
	cell := h.Cell(0, 0)
	if cell.FG != DefaultFG {
		t.Errorf("RIS must reset SGR state, got fg %v", cell.FG)
	}
}
