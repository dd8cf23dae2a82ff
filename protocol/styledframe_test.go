package protocol

import "testing"

func TestStyledFrameRoundTrip(t *testing.T) {
	sf := StyledFrame{
		Frame: 42,
		Styles: []CellStyle{
			{FG: 2, BG: 0, Attr: StyleBold},
			{FG: 7, BG: 4, Attr: StyleReverse | StyleUnderline},
		},
		Rows: []StyledRow{
			{Row: 0, Spans: []StyledSpan{{Col: 0, Style: 0, Text: "PASS"}}},
			{Row: 3, Spans: []StyledSpan{
				{Col: 2, Style: 1, Text: "inverted"},
				{Col: 20, Style: 0, Text: "green"},
			}},
		},
	}

	payload, err := EncodeStyledFrame(sf)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeStyledFrame(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if decoded.Frame != sf.Frame || len(decoded.Styles) != len(sf.Styles) || len(decoded.Rows) != len(sf.Rows) {
		t.Fatalf("metadata mismatch: %#v", decoded)
	}
	for i := range sf.Styles {
		if decoded.Styles[i] != sf.Styles[i] {
			t.Fatalf("style %d mismatch: %#v vs %#v", i, decoded.Styles[i], sf.Styles[i])
		}
	}
	for i := range sf.Rows {
		if decoded.Rows[i].Row != sf.Rows[i].Row || len(decoded.Rows[i].Spans) != len(sf.Rows[i].Spans) {
			t.Fatalf("row %d mismatch", i)
		}
		for j := range sf.Rows[i].Spans {
			if decoded.Rows[i].Spans[j] != sf.Rows[i].Spans[j] {
				t.Fatalf("span mismatch: %#v vs %#v", decoded.Rows[i].Spans[j], sf.Rows[i].Spans[j])
			}
		}
	}
}

func TestStyledFrameEmpty(t *testing.T) {
	payload, err := EncodeStyledFrame(StyledFrame{Frame: 7})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeStyledFrame(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Frame != 7 || len(decoded.Styles) != 0 || len(decoded.Rows) != 0 {
		t.Fatalf("expected empty overlay, got %#v", decoded)
	}
}

func TestStyledFrameRejectsDanglingStyleIndex(t *testing.T) {
	sf := StyledFrame{
		Frame:  1,
		Styles: []CellStyle{{FG: 7, BG: 0}},
		Rows: []StyledRow{
			{Row: 0, Spans: []StyledSpan{{Col: 0, Style: 3, Text: "x"}}},
		},
	}
	if _, err := EncodeStyledFrame(sf); err == nil {
		t.Fatal("expected encode error for out-of-range style index")
	}
}

func TestStyledFrameInvalid(t *testing.T) {
	if _, err := DecodeStyledFrame([]byte("short")); err == nil {
		t.Fatal("expected error for short payload")
	}
}
