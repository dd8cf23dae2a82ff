// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/cursor.go
// Summary: Cursor addressing, relative movement and save/restore.

package vterm

// setCursorPos moves the cursor to (x, y), clamping both axes into the
// grid. Out-of-range requests are clamped, never rejected.
func (t *VTerm) setCursorPos(x, y int) {
	if x < 0 {
		x = 0
	}
	if x >= t.cols {
		x = t.cols - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= t.rows {
		y = t.rows - 1
	}
	t.cursorX = x
	t.cursorY = y
}

// moveCursor shifts the cursor by (dx, dy) with clamping.
func (t *VTerm) moveCursor(dx, dy int) {
	t.setCursorPos(t.cursorX+dx, t.cursorY+dy)
}

// saveCursor captures the current position (ESC 7 / CSI s). One slot: a
// save overwrites the previous value, and the value persists until the
// next save.
func (t *VTerm) saveCursor() {
	t.saved = Position{X: t.cursorX, Y: t.cursorY}
}

// restoreCursor returns to the last saved position, clamped in case the
// grid shrank since the save (ESC 8 / CSI u). Before any save this is the
// origin.
func (t *VTerm) restoreCursor() {
	t.setCursorPos(t.saved.X, t.saved.Y)
}

// CursorX returns the cursor column. After printing in the last column the
// cursor rests one past it (x == cols) until the next wrap or movement.
func (t *VTerm) CursorX() int { return t.cursorX }

// CursorY returns the cursor row.
func (t *VTerm) CursorY() int { return t.cursorY }

// CursorPos returns a snapshot of the cursor position.
func (t *VTerm) CursorPos() Position {
	return Position{X: t.cursorX, Y: t.cursorY}
}
