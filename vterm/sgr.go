// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/sgr.go
// Summary: SGR (Select Graphic Rendition) attribute and color state.

package vterm

// handleSGR applies each SGR parameter to the current attribute state.
// Codes outside the supported set are ignored; extended color selectors
// (38/48) are not interpreted, so their argument parameters fall through
// harmlessly as unknown codes.
func (t *VTerm) handleSGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	for _, p := range params {
		switch {
		case p == 0:
			t.resetAttributes()
		case p == 1:
			t.currentAttr |= AttrBold
		case p == 4:
			t.currentAttr |= AttrUnderline
		case p == 7:
			t.currentAttr |= AttrReverse
		case p == 22:
			t.currentAttr &^= AttrBold
		case p == 24:
			t.currentAttr &^= AttrUnderline
		case p == 27:
			t.currentAttr &^= AttrReverse
		case p >= 30 && p <= 37:
			t.currentFG = Color(p - 30)
		case p >= 40 && p <= 47:
			t.currentBG = Color(p - 40)
		}
	}
}

// resetAttributes returns colors and attributes to their defaults.
func (t *VTerm) resetAttributes() {
	t.currentFG = DefaultFG
	t.currentBG = DefaultBG
	t.currentAttr = 0
}
