// Copyright © 2026 Termlens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vterm/parser.go
// Summary: Escape sequence state machine driving the terminal grid.
// Notes: Keeps parsing concerns isolated from buffer mutation.

package vterm

type parseState int

const (
	stateNormal parseState = iota
	stateEscape
	stateCSI
	stateOSC
)

// Parser consumes one rune at a time and dispatches completed control
// sequences to its terminal. A chunk may end in the middle of a sequence;
// the parser simply stays in its current state until more input arrives.
type Parser struct {
	state        parseState
	term         *VTerm
	params       []int
	current      int
	intermediate []rune
}

// NewParser returns a parser feeding the given terminal.
func NewParser(t *VTerm) *Parser {
	return &Parser{
		state:        stateNormal,
		term:         t,
		params:       make([]int, 0, 16),
		intermediate: make([]rune, 0, 4),
	}
}

// reset abandons any in-progress sequence and returns to ground state.
func (p *Parser) reset() {
	p.state = stateNormal
	p.params = p.params[:0]
	p.current = 0
	p.intermediate = p.intermediate[:0]
}

// Parse processes a single rune.
func (p *Parser) Parse(r rune) {
	switch p.state {
	case stateNormal:
		switch r {
		case '\x1b':
			p.state = stateEscape
		case '\n':
			p.term.lineFeed()
		case '\r':
			p.term.carriageReturn()
		case '\b':
			p.term.backspace()
		case '\t':
			p.term.tab()
		case '\a':
			// BEL: no visible effect
		default:
			if r >= ' ' {
				p.term.printChar(r)
			}
			// Remaining control codes (0x03, 0x04, 0x1a, ...) are
			// passed through to the child process elsewhere and have
			// no effect on the screen.
		}
	case stateEscape:
		switch r {
		case '[':
			p.state = stateCSI
			p.params = p.params[:0]
			p.current = 0
			p.intermediate = p.intermediate[:0]
		case ']':
			p.state = stateOSC
		case 'D':
			p.term.index()
			p.state = stateNormal
		case 'M':
			p.term.reverseIndex()
			p.state = stateNormal
		case 'E':
			p.term.nextLine()
			p.state = stateNormal
		case '7':
			p.term.saveCursor()
			p.state = stateNormal
		case '8':
			p.term.restoreCursor()
			p.state = stateNormal
		case 'c':
			p.term.fullReset()
			p.state = stateNormal
		default:
			// Unknown escape finals are dropped, never an error.
			p.state = stateNormal
		}
	case stateCSI:
		switch {
		case r >= '0' && r <= '9':
			p.current = p.current*10 + int(r-'0')
		case r == ';':
			p.params = append(p.params, p.current)
			p.current = 0
		case (r >= ' ' && r <= '/') || r == '?':
			p.intermediate = append(p.intermediate, r)
		default:
			// Final byte: flush the pending parameter and dispatch.
			p.params = append(p.params, p.current)
			p.term.processCSI(r, p.params, string(p.intermediate))
			p.reset()
		}
	case stateOSC:
		// OSC payloads (titles etc.) are consumed and discarded until a
		// BEL or ESC terminator. The ESC of an ESC-backslash terminator
		// moves to escape state, where the backslash is dropped.
		switch r {
		case '\a':
			p.state = stateNormal
		case '\x1b':
			p.state = stateEscape
		}
	}
}
