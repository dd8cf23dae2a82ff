// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/csi.go
// Summary: CSI final-byte dispatch table.

package vterm

import "strings"

// csiParam returns the i-th parameter, substituting def when the parameter
// is absent or zero. Counting sequences treat zero as their default.
func csiParam(params []int, i, def int) int {
	if i < len(params) && params[i] > 0 {
		return params[i]
	}
	return def
}

// csiMode returns the i-th parameter with zero as the natural default,
// for selectors where 0 is a meaningful value (erase modes).
func csiMode(params []int, i int) int {
	if i < len(params) {
		return params[i]
	}
	return 0
}

// processCSI dispatches a completed control sequence. Unrecognized finals
// are dropped with no effect.
func (t *VTerm) processCSI(final rune, params []int, intermediate string) {
	switch final {
	case 'A':
		t.moveCursor(0, -csiParam(params, 0, 1))
	case 'B':
		t.moveCursor(0, csiParam(params, 0, 1))
	case 'C':
		t.moveCursor(csiParam(params, 0, 1), 0)
	case 'D':
		t.moveCursor(-csiParam(params, 0, 1), 0)
	case 'H', 'f':
		row := csiParam(params, 0, 1)
		col := csiParam(params, 1, 1)
		t.setCursorPos(col-1, row-1)
	case 'd':
		t.setCursorPos(t.cursorX, csiParam(params, 0, 1)-1)
	case 'G':
		t.setCursorPos(csiParam(params, 0, 1)-1, t.cursorY)
	case 'J':
		t.eraseInDisplay(csiMode(params, 0))
	case 'K':
		t.eraseInLine(csiMode(params, 0))
	case 'L':
		t.insertLines(csiParam(params, 0, 1))
	case 'M':
		t.deleteLines(csiParam(params, 0, 1))
	case 'P':
		t.deleteCharacters(csiParam(params, 0, 1))
	case 'S':
		t.scrollUp(csiParam(params, 0, 1))
	case 'T':
		t.scrollDown(csiParam(params, 0, 1))
	case 'r':
		top := csiParam(params, 0, 1)
		bottom := csiParam(params, 1, t.rows)
		t.setScrollRegion(top-1, bottom-1)
	case 'm':
		t.handleSGR(params)
	case 'h':
		if strings.ContainsRune(intermediate, '?') {
			t.setPrivateModes(params, true)
		}
	case 'l':
		if strings.ContainsRune(intermediate, '?') {
			t.setPrivateModes(params, false)
		}
	case 's':
		t.saveCursor()
	case 'u':
		t.restoreCursor()
	}
}
