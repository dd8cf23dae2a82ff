package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// CellStyle captures the styling of a span in the emulator's own terms: an
// ANSI palette index per plane plus the attribute bitmask. Values are raw
// integers; it is up to higher layers to translate to tcell.Style.
type CellStyle struct {
	FG   uint8
	BG   uint8
	Attr uint8
}

// Attribute bits carried in CellStyle.Attr. These mirror the emulator's
// attribute mask so the server can copy cells across without translation.
const (
	StyleBold uint8 = 1 << iota
	StyleUnderline
	StyleReverse
)

// StyledSpan covers a contiguous run of cells on a row that share one style.
type StyledSpan struct {
	Col   uint16
	Style uint16
	Text  string
}

// StyledRow lists the non-default spans of a single row. Rows that are
// entirely default-styled are omitted; the plain Frame already carries
// their text.
type StyledRow struct {
	Row   uint16
	Spans []StyledSpan
}

// StyledFrame is the colour overlay for a screen snapshot. Frame matches the
// sequence of the plain Frame it decorates; the server sends the overlay
// first so the client has the styles in hand when the text arrives.
type StyledFrame struct {
	Frame  uint64
	Styles []CellStyle
	Rows   []StyledRow
}

var (
	ErrStyledFrameTooLarge = errors.New("protocol: styled frame exceeds limits")
	errInvalidSpan         = errors.New("protocol: invalid span")
)

// EncodeStyledFrame serialises the overlay into a compact binary form.
func EncodeStyledFrame(sf StyledFrame) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 64))
	if err := binary.Write(buf, binary.LittleEndian, sf.Frame); err != nil {
		return nil, err
	}

	if len(sf.Styles) > 0xFFFF || len(sf.Rows) > 0xFFFF {
		return nil, ErrStyledFrameTooLarge
	}

	if err := binary.Write(buf, binary.LittleEndian, uint16(len(sf.Styles))); err != nil {
		return nil, err
	}
	for _, style := range sf.Styles {
		buf.WriteByte(style.FG)
		buf.WriteByte(style.BG)
		buf.WriteByte(style.Attr)
	}

	if err := binary.Write(buf, binary.LittleEndian, uint16(len(sf.Rows))); err != nil {
		return nil, err
	}
	for _, row := range sf.Rows {
		if len(row.Spans) > 0xFFFF {
			return nil, ErrStyledFrameTooLarge
		}
		if err := binary.Write(buf, binary.LittleEndian, row.Row); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, uint16(len(row.Spans))); err != nil {
			return nil, err
		}
		for _, span := range row.Spans {
			textBytes := []byte(span.Text)
			if len(textBytes) > 0xFFFF {
				return nil, errInvalidSpan
			}
			if int(span.Style) >= len(sf.Styles) {
				return nil, errInvalidSpan
			}
			if err := binary.Write(buf, binary.LittleEndian, span.Col); err != nil {
				return nil, err
			}
			if err := binary.Write(buf, binary.LittleEndian, span.Style); err != nil {
				return nil, err
			}
			if err := binary.Write(buf, binary.LittleEndian, uint16(len(textBytes))); err != nil {
				return nil, err
			}
			if len(textBytes) > 0 {
				if _, err := buf.Write(textBytes); err != nil {
					return nil, err
				}
			}
		}
	}

	return buf.Bytes(), nil
}

// DecodeStyledFrame reverses EncodeStyledFrame.
func DecodeStyledFrame(b []byte) (StyledFrame, error) {
	var sf StyledFrame
	if len(b) < 10 { // frame(8) + styleCount(2)
		return sf, errPayloadShort
	}
	sf.Frame = binary.LittleEndian.Uint64(b[:8])
	styleCount := binary.LittleEndian.Uint16(b[8:10])
	b = b[10:]

	sf.Styles = make([]CellStyle, styleCount)
	for i := 0; i < int(styleCount); i++ {
		if len(b) < 3 {
			return sf, errPayloadShort
		}
		sf.Styles[i] = CellStyle{FG: b[0], BG: b[1], Attr: b[2]}
		b = b[3:]
	}

	if len(b) < 2 {
		return sf, errPayloadShort
	}
	rowCount := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	sf.Rows = make([]StyledRow, rowCount)
	for i := 0; i < int(rowCount); i++ {
		if len(b) < 4 {
			return sf, errPayloadShort
		}
		row := binary.LittleEndian.Uint16(b[:2])
		spanCount := binary.LittleEndian.Uint16(b[2:4])
		b = b[4:]
		spans := make([]StyledSpan, spanCount)
		for s := 0; s < int(spanCount); s++ {
			if len(b) < 6 {
				return sf, errPayloadShort
			}
			col := binary.LittleEndian.Uint16(b[:2])
			style := binary.LittleEndian.Uint16(b[2:4])
			textLen := binary.LittleEndian.Uint16(b[4:6])
			b = b[6:]
			if int(style) >= int(styleCount) {
				return sf, errInvalidSpan
			}
			if len(b) < int(textLen) {
				return sf, errPayloadShort
			}
			text := string(b[:textLen])
			b = b[textLen:]
			spans[s] = StyledSpan{Col: col, Style: style, Text: text}
		}
		sf.Rows[i] = StyledRow{Row: row, Spans: spans}
	}

	return sf, nil
}
