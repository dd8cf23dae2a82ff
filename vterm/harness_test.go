// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/harness_test.go
// Summary: Shared test harness: feed sequences, assert cells and cursor.

package vterm

import (
	"fmt"
	"strings"
	"testing"
)

type harness struct {
	term *VTerm
}

func newHarness(cols, rows int) *harness {
	return &harness{term: New(cols, rows)}
}

// Send feeds a string through the public write path.
func (h *harness) Send(seq string) {
	h.term.WriteString(seq)
}

// Cell returns the cell at (x, y).
func (h *harness) Cell(x, y int) Cell {
	return h.term.Cell(x, y)
}

// AssertCursor verifies the cursor position.
func (h *harness) AssertCursor(t *testing.T, wantX, wantY int) {
	t.Helper()
	gotX, gotY := h.term.CursorX(), h.term.CursorY()
	if gotX != wantX || gotY != wantY {
		t.Errorf("cursor: expected (%d,%d), got (%d,%d)", wantX, wantY, gotX, gotY)
	}
}

// AssertRune verifies a single cell's rune.
func (h *harness) AssertRune(t *testing.T, x, y int, want rune) {
	t.Helper()
	got := h.Cell(x, y).Rune
	if got != want {
		t.Errorf("cell[%d,%d]: expected %q, got %q", x, y, want, got)
	}
}

// AssertText verifies a run of cells starting at (x, y).
func (h *harness) AssertText(t *testing.T, x, y int, want string) {
	t.Helper()
	for i, r := range []rune(want) {
		h.AssertRune(t, x+i, y, r)
	}
}

// AssertBlank verifies a cell holds a space.
func (h *harness) AssertBlank(t *testing.T, x, y int) {
	t.Helper()
	got := h.Cell(x, y).Rune
	if got != ' ' {
		t.Errorf("cell[%d,%d]: expected blank, got %q", x, y, got)
	}
}

// AssertLineBlank verifies an entire row is blank.
func (h *harness) AssertLineBlank(t *testing.T, y int) {
	t.Helper()
	cols, _ := h.term.Size()
	for x := 0; x < cols; x++ {
		h.AssertBlank(t, x, y)
	}
}

// AssertScrollRegion verifies the active scroll region.
func (h *harness) AssertScrollRegion(t *testing.T, wantTop, wantBottom int) {
	t.Helper()
	top, bottom := h.term.ScrollRegion()
	if top != wantTop || bottom != wantBottom {
		t.Errorf("scroll region: expected [%d,%d], got [%d,%d]", wantTop, wantBottom, top, bottom)
	}
}

// AssertScreen verifies the full rendered text. Expected rows shorter than
// the grid width are padded with spaces; missing rows are blank.
func (h *harness) AssertScreen(t *testing.T, rows ...string) {
	t.Helper()
	if got, want := h.term.ScreenText(), h.padded(rows); got != want {
		t.Errorf("screen mismatch:\nexpected:\n%s\ngot:\n%s", frame(want), frame(got))
	}
}

func (h *harness) padded(rows []string) string {
	cols, height := h.term.Size()
	lines := make([]string, height)
	for y := 0; y < height; y++ {
		line := ""
		if y < len(rows) {
			line = rows[y]
		}
		if pad := cols - len([]rune(line)); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		lines[y] = line
	}
	return strings.Join(lines, "\n")
}

// frame wraps screen text in delimiters so trailing spaces are visible in
// failure output.
func frame(s string) string {
	var sb strings.Builder
	for _, line := range strings.Split(s, "\n") {
		fmt.Fprintf(&sb, "|%s|\n", line)
	}
	return sb.String()
}
