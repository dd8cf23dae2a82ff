// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/modes.go
// Summary: DEC private mode set/reset (CSI ? h / CSI ? l).

package vterm

// Recognized DEC private modes. Everything else is accepted syntactically
// and ignored.
const (
	modeCursorVisible = 25
	modeAltScreen     = 1049
)

// setPrivateModes applies each mode parameter of a DECSET/DECRST sequence.
func (t *VTerm) setPrivateModes(params []int, set bool) {
	for _, p := range params {
		switch p {
		case modeCursorVisible:
			t.cursorVisible = set
		case modeAltScreen:
			if set {
				t.enterAltScreen()
			} else {
				t.exitAltScreen()
			}
		}
	}
}
