// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/cell.go
// Summary: Cell, color and attribute types stored in the terminal grid.
// Usage: Consumed by the buffer and by anything rendering a screen snapshot.

package vterm

// Attribute is a bitmask of text attributes carried by a cell.
type Attribute uint8

const (
	AttrBold Attribute = 1 << iota
	AttrUnderline
	AttrReverse
)

// String returns a human-readable representation of the attribute flags.
func (a Attribute) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	if a&AttrBold != 0 {
		parts = append(parts, "bold")
	}
	if a&AttrUnderline != 0 {
		parts = append(parts, "underline")
	}
	if a&AttrReverse != 0 {
		parts = append(parts, "reverse")
	}
	if len(parts) == 0 {
		return "unknown"
	}
	result := parts[0]
	for i := 1; i < len(parts); i++ {
		result += "|" + parts[i]
	}
	return result
}

// Color is one of the eight basic ANSI palette entries. The emulator only
// tracks the classic palette; extended SGR color codes are ignored.
type Color uint8

const (
	ColorBlack Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
)

var colorNames = [...]string{
	"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",
}

// String returns the color's ANSI name.
func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "invalid"
}

// Default colors a fresh terminal starts with.
const (
	DefaultFG = ColorWhite
	DefaultBG = ColorBlack
)

// Cell represents a single character cell on the screen. Cells are value
// types; the grid copies them on every mutation and never aliases.
type Cell struct {
	Rune rune
	FG   Color
	BG   Color
	Attr Attribute
}

// blankCell returns an empty cell carrying the given colors and attributes.
func blankCell(fg, bg Color, attr Attribute) Cell {
	return Cell{Rune: ' ', FG: fg, BG: bg, Attr: attr}
}
