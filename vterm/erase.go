// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/erase.go
// Summary: Erase-in-display, erase-in-line and character deletion.
// Notes: Erased cells are spaces carrying the current attributes, not
// neutral defaults.

package vterm

// eraseInDisplay implements ED (CSI J). Mode 0 erases from the cursor to
// the end of the screen, 1 from the start to the cursor inclusive, 2 the
// whole screen. Other modes are ignored. The cursor does not move.
func (t *VTerm) eraseInDisplay(mode int) {
	blank := t.blank()
	switch mode {
	case 0:
		t.buf.FillSpan(t.cursorY, t.cursorX, t.cols-1, blank)
		for y := t.cursorY + 1; y < t.rows; y++ {
			t.buf.FillRow(y, blank)
		}
	case 1:
		for y := 0; y < t.cursorY; y++ {
			t.buf.FillRow(y, blank)
		}
		t.buf.FillSpan(t.cursorY, 0, t.cursorX, blank)
	case 2:
		for y := 0; y < t.rows; y++ {
			t.buf.FillRow(y, blank)
		}
	}
}

// eraseInLine implements EL (CSI K) with the same mode meanings as ED
// confined to the cursor row.
func (t *VTerm) eraseInLine(mode int) {
	blank := t.blank()
	switch mode {
	case 0:
		t.buf.FillSpan(t.cursorY, t.cursorX, t.cols-1, blank)
	case 1:
		t.buf.FillSpan(t.cursorY, 0, t.cursorX, blank)
	case 2:
		t.buf.FillRow(t.cursorY, blank)
	}
}

// deleteCharacters implements DCH (CSI P): shift the cursor row left by n
// starting at the cursor column and blank the vacated tail.
func (t *VTerm) deleteCharacters(n int) {
	row := t.buf.Row(t.cursorY)
	if row == nil || t.cursorX >= t.cols {
		return
	}
	if n > t.cols-t.cursorX {
		n = t.cols - t.cursorX
	}
	if n < 1 {
		return
	}
	copy(row[t.cursorX:], row[t.cursorX+n:])
	blank := t.blank()
	for x := t.cols - n; x < t.cols; x++ {
		row[x] = blank
	}
}
