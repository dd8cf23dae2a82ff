package client

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gdamore/tcell/v2"
	"github.com/go-enry/go-enry/v2"
)

const defaultStyleName = "catppuccin-mocha"

// StyledLine is one screen row with a per-rune style vector. Styles is
// always the same length as Runes.
type StyledLine struct {
	Runes  []rune
	Styles []tcell.Style
}

// Highlighter colorizes plain screen text for the code-view overlay. Frames
// carry no color, so the overlay re-derives it: go-enry guesses the language
// from content, chroma tokenizes, and token colors become tcell styles.
type Highlighter struct {
	styleName string
	lexerName string
}

// NewHighlighter returns a highlighter using content-based language
// detection and the default color style.
func NewHighlighter() *Highlighter {
	return &Highlighter{styleName: defaultStyleName}
}

// SetStyle selects a chroma style by name. Unknown names fall back to the
// chroma default style.
func (h *Highlighter) SetStyle(name string) {
	if name != "" {
		h.styleName = name
	}
}

// SetLexer pins the lexer by name, bypassing language detection.
func (h *Highlighter) SetLexer(name string) {
	h.lexerName = name
}

// DetectLanguage guesses the language of the screen text from content alone.
// Returns the empty string for blank input.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return enry.GetLanguage("", []byte(text))
}

// Highlight tokenizes the whole text as one block and returns one StyledLine
// per input line. Tokenizing across lines gives the lexer full context
// (package/import/func structure and the like). Lines come back with default
// styles when nothing distinct applies.
func (h *Highlighter) Highlight(text string) []StyledLine {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	style := styles.Get(h.styleName)
	lexer := h.resolveLexer(text)
	lexer = chroma.Coalesce(lexer)

	tokens, err := chroma.Tokenise(lexer, nil, text)
	if err != nil {
		return lines
	}

	baseColour := style.Get(chroma.Text).Colour

	row, col := 0, 0
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		entry := style.Get(tok.Type)
		tokStyle, distinct := styleFromEntry(entry, baseColour)
		for _, r := range tok.Value {
			if r == '\n' {
				row++
				col = 0
				continue
			}
			if row < len(lines) && col < len(lines[row].Styles) && distinct {
				lines[row].Styles[col] = tokStyle
			}
			col++
		}
	}
	return lines
}

func (h *Highlighter) resolveLexer(text string) chroma.Lexer {
	if h.lexerName != "" {
		if l := lexers.Get(h.lexerName); l != nil {
			return l
		}
	}
	if lang := DetectLanguage(text); lang != "" {
		if l := lexers.Get(lang); l != nil {
			return l
		}
	}
	if l := lexers.Analyse(text); l != nil {
		return l
	}
	return lexers.Fallback
}

// styleFromEntry maps a chroma style entry to a tcell style. Tokens whose
// color matches the style's base text color keep the terminal default FG so
// ordinary text stays in the viewer's own colors; distinct reports whether
// the entry changes anything at all.
func styleFromEntry(entry chroma.StyleEntry, baseColour chroma.Colour) (tcell.Style, bool) {
	style := tcell.StyleDefault
	distinct := false
	if entry.Colour.IsSet() && entry.Colour != baseColour {
		style = style.Foreground(tcell.NewRGBColor(
			int32(entry.Colour.Red()),
			int32(entry.Colour.Green()),
			int32(entry.Colour.Blue()),
		))
		distinct = true
	}
	if entry.Bold == chroma.Yes {
		style = style.Bold(true)
		distinct = true
	}
	if entry.Italic == chroma.Yes {
		style = style.Italic(true)
		distinct = true
	}
	if entry.Underline == chroma.Yes {
		style = style.Underline(true)
		distinct = true
	}
	return style, distinct
}

func splitLines(text string) []StyledLine {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]StyledLine, len(raw))
	for i, s := range raw {
		runes := []rune(s)
		lineStyles := make([]tcell.Style, len(runes))
		for j := range lineStyles {
			lineStyles[j] = tcell.StyleDefault
		}
		lines[i] = StyledLine{Runes: runes, Styles: lineStyles}
	}
	return lines
}
