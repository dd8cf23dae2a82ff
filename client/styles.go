package client

import (
	"github.com/gdamore/tcell/v2"

	"termlens/protocol"
	"termlens/vterm"
)

// paletteStyle maps a wire cell style to tcell. The emulator tracks the
// classic eight-color palette, which lines up with tcell's palette indices.
// A plane still at the emulator default keeps tcell's default color so the
// viewer's own theme shows through.
func paletteStyle(st protocol.CellStyle) tcell.Style {
	style := tcell.StyleDefault
	if st.FG != uint8(vterm.DefaultFG) {
		style = style.Foreground(tcell.PaletteColor(int(st.FG)))
	}
	if st.BG != uint8(vterm.DefaultBG) {
		style = style.Background(tcell.PaletteColor(int(st.BG)))
	}
	if st.Attr&protocol.StyleBold != 0 {
		style = style.Bold(true)
	}
	if st.Attr&protocol.StyleUnderline != 0 {
		style = style.Underline(true)
	}
	if st.Attr&protocol.StyleReverse != 0 {
		style = style.Reverse(true)
	}
	return style
}

// applyOverlay paints the overlay's style runs onto the split lines in
// place. The span text matches the plain frame, so only the styles change;
// spans falling outside the lines are clipped.
func applyOverlay(lines []StyledLine, overlay *protocol.StyledFrame) {
	if overlay == nil {
		return
	}
	styles := make([]tcell.Style, len(overlay.Styles))
	for i, st := range overlay.Styles {
		styles[i] = paletteStyle(st)
	}
	for _, row := range overlay.Rows {
		y := int(row.Row)
		if y >= len(lines) {
			continue
		}
		line := lines[y]
		for _, span := range row.Spans {
			if int(span.Style) >= len(styles) {
				continue
			}
			style := styles[span.Style]
			x := int(span.Col)
			for range span.Text {
				if x >= len(line.Styles) {
					break
				}
				line.Styles[x] = style
				x++
			}
		}
	}
}
