// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/altscreen.go
// Summary: Alternate screen snapshot and restore (DEC private mode 1049).

package vterm

// altScreen holds the main screen while the alternate screen is active.
// At most one snapshot exists; it is created on enable and discarded on
// disable.
type altScreen struct {
	buf    *Buffer
	cursor Position
}

// InAltScreen reports whether the alternate screen is active.
func (t *VTerm) InAltScreen() bool { return t.alt != nil }

// enterAltScreen snapshots the buffer and cursor, then presents a fresh
// blank screen with the cursor at the origin. Enabling while already
// active is a no-op: the existing snapshot is deliberately not refreshed.
func (t *VTerm) enterAltScreen() {
	if t.alt != nil {
		return
	}
	t.alt = &altScreen{
		buf:    t.buf.Clone(),
		cursor: Position{X: t.cursorX, Y: t.cursorY},
	}
	t.buf = NewBuffer(t.cols, t.rows, blankCell(DefaultFG, DefaultBG, 0))
	t.cursorX, t.cursorY = 0, 0
}

// exitAltScreen restores the snapshotted buffer and cursor and discards
// the snapshot. Disabling while inactive is a no-op. The restore is exact,
// including a cursor resting past the last column; Resize keeps the
// snapshot's dimensions in step with the live grid, so the restored buffer
// always matches the current size.
func (t *VTerm) exitAltScreen() {
	if t.alt == nil {
		return
	}
	t.buf = t.alt.buf
	t.cursorX, t.cursorY = t.alt.cursor.X, t.alt.cursor.Y
	t.alt = nil
}
