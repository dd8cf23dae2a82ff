// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/screen.go
// Summary: Rendered-text snapshot and resizing.

package vterm

import "strings"

// ScreenText renders the screen as exactly rows lines of exactly cols
// characters each, space padded, joined with newlines. Attributes are not
// represented; two screens with identical characters but different colors
// render identically.
func (t *VTerm) ScreenText() string {
	var sb strings.Builder
	sb.Grow(t.rows * (t.cols + 1))
	for y := 0; y < t.rows; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for _, c := range t.buf.Row(y) {
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Resize reallocates the grid at the new dimensions, preserving the
// overlapping top-left rectangle of cells. No reflow is performed: content
// outside the overlap is discarded. The cursor is clamped into the new
// bounds and the scroll region bottom into the new row count; the region
// top is left untouched. An active alternate-screen snapshot is resized
// the same way so that leaving the alternate screen always restores a grid
// of the current size. Resize is not a write: it fires no change event.
func (t *VTerm) Resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if cols == t.cols && rows == t.rows {
		return
	}

	grid := NewBuffer(cols, rows, blankCell(DefaultFG, DefaultBG, 0))
	grid.CopyFrom(t.buf)
	t.buf = grid

	if t.alt != nil {
		snap := NewBuffer(cols, rows, blankCell(DefaultFG, DefaultBG, 0))
		snap.CopyFrom(t.alt.buf)
		t.alt.buf = snap
		if t.alt.cursor.X > cols-1 {
			t.alt.cursor.X = cols - 1
		}
		if t.alt.cursor.Y > rows-1 {
			t.alt.cursor.Y = rows - 1
		}
	}

	t.cols, t.rows = cols, rows
	t.setCursorPos(t.cursorX, t.cursorY)
	if t.regionBottom > rows-1 {
		t.regionBottom = rows - 1
	}
}
