package client

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Renderer draws received frames onto a tcell screen. The emulator counts
// one cell per input rune, so wide runes shift everything after them when
// drawn; the renderer re-derives the cursor's screen column from the rune
// widths on its row to keep the visible cursor on the right glyph.
type Renderer struct {
	hl       *Highlighter
	codeView bool
}

// NewRenderer returns a renderer with code view off.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// SetHighlighter installs the highlighter used when code view is on.
func (r *Renderer) SetHighlighter(h *Highlighter) {
	r.hl = h
}

// ToggleCodeView flips the code-view overlay and reports the new state.
// Without a highlighter the toggle stays off.
func (r *Renderer) ToggleCodeView() bool {
	if r.hl == nil {
		return false
	}
	r.codeView = !r.codeView
	return r.codeView
}

// CodeView reports whether the overlay is active.
func (r *Renderer) CodeView() bool {
	return r.codeView && r.hl != nil
}

// Draw paints the update over the whole screen, with a reverse-video status
// bar on the bottom row when status is non-empty. It calls Show itself.
// The session's own colors and the code-view overlay are mutually
// exclusive; code view wins while it is on.
func (r *Renderer) Draw(s tcell.Screen, update Update, status string) {
	frame := update.Frame
	width, height := s.Size()
	body := height
	if status != "" {
		body--
	}

	var lines []StyledLine
	if r.CodeView() {
		lines = r.hl.Highlight(frame.Screen)
	} else {
		lines = splitLines(frame.Screen)
		applyOverlay(lines, update.Styled)
	}

	for y := 0; y < body; y++ {
		x := 0
		if y < len(lines) {
			line := lines[y]
			for i := 0; i < len(line.Runes) && x < width; i++ {
				s.SetContent(x, y, line.Runes[i], nil, line.Styles[i])
				x += cellWidth(line.Runes[i])
			}
		}
		for ; x < width; x++ {
			s.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}

	if status != "" && height > 0 {
		drawStatus(s, height-1, width, status)
	}

	cx, cy := int(frame.CursorX), int(frame.CursorY)
	if frame.CursorVisible && cy >= 0 && cy < body {
		s.ShowCursor(cursorColumn(lines, cx, cy), cy)
	} else {
		s.HideCursor()
	}
	s.Show()
}

// cursorColumn maps the emulator's cell column to a screen column by
// summing the drawn widths of the runes before it on the cursor row.
func cursorColumn(lines []StyledLine, cx, cy int) int {
	if cy < 0 || cy >= len(lines) {
		return cx
	}
	runes := lines[cy].Runes
	x := 0
	for i := 0; i < cx && i < len(runes); i++ {
		x += cellWidth(runes[i])
	}
	if cx > len(runes) {
		x += cx - len(runes)
	}
	return x
}

func drawStatus(s tcell.Screen, y, width int, text string) {
	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range text {
		if x >= width {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x += cellWidth(r)
	}
	for ; x < width; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

// cellWidth never reports less than one column so zero-width input cannot
// stall the draw loop or desync the cursor mapping.
func cellWidth(r rune) int {
	if w := runewidth.RuneWidth(r); w > 1 {
		return w
	}
	return 1
}
