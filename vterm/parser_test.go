// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/parser_test.go
// Summary: Tests for the escape sequence state machine.
// Notes: Exercises parameter accumulation, sequences split across
// writes, unknown finals, OSC termination and control byte handling.

package vterm

import "testing"

func TestPlainTextPrinting(t *testing.T) {
	h := newHarness(10, 3)
	h.Send("Hello")
	h.AssertText(t, 0, 0, "Hello")
	h.AssertCursor(t, 5, 0)
	h.AssertBlank(t, 5, 0)
}

func TestTextMixedWithSequences(t *testing.T) {
	h := newHarness(20, 3)
	h.Send("a\x1b[Cb")
	h.AssertRune(t, 0, 0, 'a')
	h.AssertBlank(t, 1, 0)
	h.AssertRune(t, 2, 0, 'b')
	h.AssertCursor(t, 3, 0)
}

func TestMultiDigitParameters(t *testing.T) {
	h := newHarness(150, 24)
	h.Send("\x1b[120G")
	h.AssertCursor(t, 119, 0)

	h.Send("\x1b[23;101H")
	h.AssertCursor(t, 100, 22)
}

// TestParametersResetBetweenSequences catches stale accumulator state:
// a parameter from one sequence must never leak into the next.
func TestParametersResetBetweenSequences(t *testing.T) {
	h := newHarness(80, 24)
	h.Send("\x1b[5C")
	h.AssertCursor(t, 5, 0)
	h.Send("\x1b[C") // default 1, not a leftover 5
	h.AssertCursor(t, 6, 0)
}

// TestSequenceSplitAcrossWrites verifies that a partial escape sequence
// at the end of one write resumes in the next. PTY reads deliver
// arbitrary chunk boundaries, so this happens constantly in practice.
func TestSequenceSplitAcrossWrites(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		wantX  int
		wantY  int
	}{
		{"split after ESC", []string{"\x1b", "[5;10H"}, 9, 4},
		{"split after bracket", []string{"\x1b[", "5;10H"}, 9, 4},
		{"split mid-parameter", []string{"\x1b[5;1", "0H"}, 9, 4},
		{"split before final", []string{"\x1b[5;10", "H"}, 9, 4},
		{"one byte at a time", []string{"\x1b", "[", "5", ";", "1", "0", "H"}, 9, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(80, 24)
			for _, chunk := range tt.chunks {
				h.Send(chunk)
			}
			h.AssertCursor(t, tt.wantX, tt.wantY)
		})
	}
}

func TestTruncatedSequenceStaysPending(t *testing.T) {
	h := newHarness(80, 24)
	h.Send("\x1b[5")
	h.AssertCursor(t, 0, 0) // nothing dispatched yet
	h.AssertLineBlank(t, 0)
	h.Send("C")
	h.AssertCursor(t, 5, 0)
}

// TestUnknownCSIFinal verifies unrecognized finals are consumed without
// side effects and without corrupting the byte stream that follows.
func TestUnknownCSIFinal(t *testing.T) {
	h := newHarness(20, 3)
	h.Send("\x1b[5z")
	h.AssertCursor(t, 0, 0)
	h.Send("ok")
	h.AssertText(t, 0, 0, "ok")
}

func TestUnknownEscapeByte(t *testing.T) {
	h := newHarness(20, 3)
	h.Send("\x1b=") // application keypad, not implemented
	h.AssertCursor(t, 0, 0)
	h.Send("ok")
	h.AssertText(t, 0, 0, "ok")
}

// TestCSIIntermediateBytes verifies bytes in the 0x20-0x2F range are
// collected rather than treated as finals. ESC[ q (set cursor style)
// must not dispatch on the space.
func TestCSIIntermediateBytes(t *testing.T) {
	h := newHarness(20, 3)
	h.Send("\x1b[2 q")
	h.AssertCursor(t, 0, 0)
	h.Send("ok")
	h.AssertText(t, 0, 0, "ok")
}

// TestOSCDiscard verifies operating system commands (window title and
// friends) are swallowed whole, with both BEL and ESC \ terminators.
func TestOSCDiscard(t *testing.T) {
	t.Run("BEL terminator", func(t *testing.T) {
		h := newHarness(30, 3)
		h.Send("\x1b]0;window title\x07after")
		h.AssertText(t, 0, 0, "after")
		h.AssertCursor(t, 5, 0)
	})

	t.Run("ESC backslash terminator", func(t *testing.T) {
		h := newHarness(30, 3)
		h.Send("\x1b]2;window title\x1b\\after")
		h.AssertText(t, 0, 0, "after")
		h.AssertCursor(t, 5, 0)
	})

	t.Run("split across writes", func(t *testing.T) {
		h := newHarness(30, 3)
		h.Send("\x1b]0;win")
		h.Send("dow title\x07after")
		h.AssertText(t, 0, 0, "after")
	})
}

// TestIgnoredControlBytes verifies that C0 bytes without terminal
// meaning here (ETX, EOT, BEL, SUB) leave the screen untouched.
func TestIgnoredControlBytes(t *testing.T) {
	h := newHarness(20, 3)
	h.Send("ab\x03\x04\x07\x1acd")
	h.AssertText(t, 0, 0, "abcd")
	h.AssertCursor(t, 4, 0)
}

func TestCarriageReturnAndLineFeed(t *testing.T) {
	h := newHarness(10, 3)
	h.Send("one\r\ntwo")
	h.AssertText(t, 0, 0, "one")
	h.AssertText(t, 0, 1, "two")
	h.AssertCursor(t, 3, 1)
}

// TestBareLineFeedResetsColumn documents that LF alone behaves like
// CRLF: the column resets to zero on every line feed.
func TestBareLineFeedResetsColumn(t *testing.T) {
	h := newHarness(10, 3)
	h.Send("one\ntwo")
	h.AssertText(t, 0, 0, "one")
	h.AssertText(t, 0, 1, "two")
	h.AssertCursor(t, 3, 1)
}

func TestCarriageReturnOverwrites(t *testing.T) {
	h := newHarness(12, 3)
	h.Send("progress 10%\rdone.")
	h.AssertText(t, 0, 0, "done.ess 10%")
	h.AssertCursor(t, 5, 0)
}

func TestUnicodeText(t *testing.T) {
	h := newHarness(10, 3)
	h.Send("héllo wörld")
	h.AssertText(t, 0, 0, "héllo wörl")
	h.AssertRune(t, 0, 1, 'd')
}
