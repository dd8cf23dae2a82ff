// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/vterm.go
// Summary: The terminal instance: grid ownership, printing and control codes.
// Usage: Construct with New, feed bytes with Write, read with ScreenText.

package vterm

import (
	"log"
	"sync/atomic"
)

// Position is a zero-indexed cursor location.
type Position struct {
	X int
	Y int
}

// VTerm emulates a fixed-size character terminal. It consumes a byte stream
// containing VT100/ANSI control sequences and maintains the screen a real
// terminal would display.
//
// The instance is single-threaded: one Write call runs start to finish,
// including listener dispatch, before it returns. Callers deliver chunks in
// arrival order from one goroutine; only the sticky change flag may be
// polled concurrently.
type VTerm struct {
	cols int
	rows int
	buf  *Buffer

	cursorX int // may rest at cols after printing in the last column
	cursorY int
	saved   Position

	regionTop    int
	regionBottom int

	currentFG   Color
	currentBG   Color
	currentAttr Attribute

	cursorVisible bool
	alt           *altScreen

	parser *Parser
	logger *log.Logger

	frames    uint64
	changed   atomic.Bool
	listeners []listenerEntry

	utf8Tail []byte
}

// Option configures a terminal at construction time.
type Option func(*VTerm)

// WithLogger routes diagnostics (listener panics) to the given logger
// instead of the process default.
func WithLogger(l *log.Logger) Option {
	return func(t *VTerm) { t.logger = l }
}

// New creates a blank terminal of the given size with the cursor at the
// origin and the scroll region spanning the full height. Dimensions below
// 1 are raised to 1.
func New(cols, rows int, opts ...Option) *VTerm {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	t := &VTerm{
		cols:          cols,
		rows:          rows,
		buf:           NewBuffer(cols, rows, blankCell(DefaultFG, DefaultBG, 0)),
		regionBottom:  rows - 1,
		currentFG:     DefaultFG,
		currentBG:     DefaultBG,
		cursorVisible: true,
	}
	t.parser = NewParser(t)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *VTerm) logf(format string, args ...any) {
	if t.logger != nil {
		t.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Size returns the grid dimensions.
func (t *VTerm) Size() (cols, rows int) { return t.cols, t.rows }

// CursorVisible reports the DECTCEM cursor visibility state.
func (t *VTerm) CursorVisible() bool { return t.cursorVisible }

// ScrollRegion returns the active scroll region rows, inclusive.
func (t *VTerm) ScrollRegion() (top, bottom int) { return t.regionTop, t.regionBottom }

// Cell returns a copy of the cell at (x, y), or the zero Cell out of bounds.
func (t *VTerm) Cell(x, y int) Cell { return t.buf.At(x, y) }

// blank returns an empty cell carrying the current colors and attributes.
// Erase and scroll operations blank with the live attribute state.
func (t *VTerm) blank() Cell {
	return blankCell(t.currentFG, t.currentBG, t.currentAttr)
}

// printChar writes a printable rune at the cursor and advances it. When the
// cursor rests past the last column the write wraps first: column zero of
// the next line, scrolling if the cursor sits on the bottom row. The cursor
// is allowed to rest at x == cols between writes; no blank filler row is
// inserted on wrap.
func (t *VTerm) printChar(r rune) {
	if t.cursorX >= t.cols {
		t.cursorX = 0
		t.lineFeed()
	}
	t.buf.Set(t.cursorX, t.cursorY, Cell{Rune: r, FG: t.currentFG, BG: t.currentBG, Attr: t.currentAttr})
	t.cursorX++
}

// lineFeed moves to the next line, scrolling the whole buffer when the
// cursor is on the bottom row. The column always resets to zero: this
// emulator merges CR into LF on purpose and downstream behavior depends
// on it.
func (t *VTerm) lineFeed() {
	t.cursorX = 0
	if t.cursorY >= t.rows-1 {
		t.scrollBufferUp()
		return
	}
	t.cursorY++
}

// index moves the cursor down one line without touching the column,
// scrolling the whole buffer from the bottom row (ESC D).
func (t *VTerm) index() {
	if t.cursorY >= t.rows-1 {
		t.scrollBufferUp()
		return
	}
	t.cursorY++
}

// scrollBufferUp shifts every row of the buffer up by one, ignoring the
// scroll region, and blanks the bottom row. Line feeds at the bottom of the
// screen scroll the full buffer even when a region is set.
func (t *VTerm) scrollBufferUp() {
	for y := 0; y < t.rows-1; y++ {
		t.buf.CopyRow(y, y+1)
	}
	t.buf.FillRow(t.rows-1, t.blank())
}

func (t *VTerm) carriageReturn() {
	t.cursorX = 0
}

// nextLine is CR followed by LF (ESC E).
func (t *VTerm) nextLine() {
	t.carriageReturn()
	t.lineFeed()
}

func (t *VTerm) backspace() {
	if t.cursorX > 0 {
		t.cursorX--
	}
}

// tab advances the cursor to the next multiple-of-8 column, clamped to the
// last column.
func (t *VTerm) tab() {
	next := (t.cursorX/8 + 1) * 8
	if next > t.cols-1 {
		next = t.cols - 1
	}
	t.cursorX = next
}

// fullReset reinitializes the terminal in place (ESC c): blank grid,
// cursor home, default attributes, full-height scroll region, cursor
// visible, alternate screen discarded. The frame counter, change flag and
// listener registry belong to the instance and survive.
func (t *VTerm) fullReset() {
	t.buf = NewBuffer(t.cols, t.rows, blankCell(DefaultFG, DefaultBG, 0))
	t.cursorX, t.cursorY = 0, 0
	t.saved = Position{}
	t.regionTop, t.regionBottom = 0, t.rows-1
	t.currentFG, t.currentBG, t.currentAttr = DefaultFG, DefaultBG, 0
	t.cursorVisible = true
	t.alt = nil
}

// Reset reinitializes the terminal as fullReset does and additionally
// abandons any control sequence left pending by a truncated chunk. Reset
// is not a write: it fires no change event.
func (t *VTerm) Reset() {
	t.fullReset()
	t.parser.reset()
	t.utf8Tail = nil
}
