package server

import (
	"termlens/protocol"
	"termlens/vterm"
)

// defaultStyle is the style a fresh cell carries. Cells matching it are
// left out of the overlay; the plain frame already has their text.
var defaultStyle = protocol.CellStyle{FG: uint8(vterm.DefaultFG), BG: uint8(vterm.DefaultBG), Attr: 0}

// styledSnapshot walks the grid and collects the non-default style runs as
// a colour overlay for the frame with the given counter. The caller must
// hold whatever lock guards the emulator.
func styledSnapshot(term *vterm.VTerm, frame uint64) protocol.StyledFrame {
	sf := protocol.StyledFrame{Frame: frame}
	index := make(map[protocol.CellStyle]uint16)
	intern := func(st protocol.CellStyle) uint16 {
		if i, ok := index[st]; ok {
			return i
		}
		i := uint16(len(sf.Styles))
		sf.Styles = append(sf.Styles, st)
		index[st] = i
		return i
	}

	cols, rows := term.Size()
	for y := 0; y < rows; y++ {
		var spans []protocol.StyledSpan
		var run []rune
		runStart := 0
		runStyle := defaultStyle

		flush := func() {
			if len(run) == 0 {
				return
			}
			spans = append(spans, protocol.StyledSpan{
				Col:   uint16(runStart),
				Style: intern(runStyle),
				Text:  string(run),
			})
			run = run[:0]
		}

		for x := 0; x < cols; x++ {
			cell := term.Cell(x, y)
			st := protocol.CellStyle{FG: uint8(cell.FG), BG: uint8(cell.BG), Attr: uint8(cell.Attr)}
			if st == defaultStyle {
				flush()
				continue
			}
			if len(run) > 0 && st != runStyle {
				flush()
			}
			if len(run) == 0 {
				runStart = x
				runStyle = st
			}
			run = append(run, cell.Rune)
		}
		flush()

		if len(spans) > 0 {
			sf.Rows = append(sf.Rows, protocol.StyledRow{Row: uint16(y), Spans: spans})
		}
	}
	return sf
}
