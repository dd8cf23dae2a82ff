// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/scroll.go
// Summary: Scroll region handling, region scrolls and line insert/delete.

package vterm

// setScrollRegion sets the rows (inclusive, 0-indexed) that scrolls and
// line edits operate within. Bounds are clamped into the grid; a region
// without at least two rows is ignored. Setting the region homes the
// cursor to the region's first row.
func (t *VTerm) setScrollRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom > t.rows-1 {
		bottom = t.rows - 1
	}
	if top >= bottom {
		return
	}
	t.regionTop = top
	t.regionBottom = bottom
	t.setCursorPos(0, top)
}

// scrollUp shifts the rows of the scroll region up by n, blanking the
// vacated rows at the bottom of the region.
func (t *VTerm) scrollUp(n int) {
	height := t.regionBottom - t.regionTop + 1
	if n > height {
		n = height
	}
	if n < 1 {
		return
	}
	for y := t.regionTop; y+n <= t.regionBottom; y++ {
		t.buf.CopyRow(y, y+n)
	}
	blank := t.blank()
	for y := t.regionBottom - n + 1; y <= t.regionBottom; y++ {
		t.buf.FillRow(y, blank)
	}
}

// scrollDown shifts the rows of the scroll region down by n, blanking the
// vacated rows at the top of the region.
func (t *VTerm) scrollDown(n int) {
	height := t.regionBottom - t.regionTop + 1
	if n > height {
		n = height
	}
	if n < 1 {
		return
	}
	for y := t.regionBottom; y-n >= t.regionTop; y-- {
		t.buf.CopyRow(y, y-n)
	}
	blank := t.blank()
	for y := t.regionTop; y < t.regionTop+n; y++ {
		t.buf.FillRow(y, blank)
	}
}

// reverseIndex moves the cursor up one row, scrolling the region down when
// the cursor sits on the region's top row (ESC M).
func (t *VTerm) reverseIndex() {
	if t.cursorY == t.regionTop {
		t.scrollDown(1)
		return
	}
	if t.cursorY > 0 {
		t.cursorY--
	}
}

// insertLines shifts the rows between the cursor row and the region bottom
// down by n, blanking the opened rows (CSI L). Below the region it does
// nothing.
func (t *VTerm) insertLines(n int) {
	if t.cursorY > t.regionBottom {
		return
	}
	span := t.regionBottom - t.cursorY + 1
	if n > span {
		n = span
	}
	if n < 1 {
		return
	}
	for y := t.regionBottom; y-n >= t.cursorY; y-- {
		t.buf.CopyRow(y, y-n)
	}
	blank := t.blank()
	for y := t.cursorY; y < t.cursorY+n; y++ {
		t.buf.FillRow(y, blank)
	}
}

// deleteLines removes n rows at the cursor, pulling the rows below up to
// the region bottom and blanking the freed rows (CSI M).
func (t *VTerm) deleteLines(n int) {
	if t.cursorY > t.regionBottom {
		return
	}
	span := t.regionBottom - t.cursorY + 1
	if n > span {
		n = span
	}
	if n < 1 {
		return
	}
	for y := t.cursorY; y+n <= t.regionBottom; y++ {
		t.buf.CopyRow(y, y+n)
	}
	blank := t.blank()
	for y := t.regionBottom - n + 1; y <= t.regionBottom; y++ {
		t.buf.FillRow(y, blank)
	}
}
