package client

import (
	"fmt"
	"net"
	"testing"
	"time"

	"termlens/protocol"
)

// fakeServer answers the handshake on the far end of a pipe, pushes one
// styled overlay plus its frame, then absorbs client writes until the
// connection closes.
func fakeServer(conn net.Conn, sessionID [16]byte) error {
	hdr, payload, err := protocol.ReadMessage(conn)
	if err != nil {
		return err
	}
	if hdr.Type != protocol.MsgHello {
		return fmt.Errorf("expected hello, got %v", hdr.Type)
	}
	hello, err := protocol.DecodeHello(payload)
	if err != nil {
		return err
	}
	if hello.Flags&protocol.HelloStyled == 0 {
		return fmt.Errorf("styled capability not requested")
	}

	welcome, err := protocol.EncodeWelcome(protocol.Welcome{
		SessionID:  sessionID,
		ServerName: "test-server",
		Cols:       80,
		Rows:       24,
		LastFrame:  4,
	})
	if err != nil {
		return err
	}
	base := protocol.Header{
		Version:   protocol.Version,
		Type:      protocol.MsgWelcome,
		Flags:     protocol.FlagChecksum,
		SessionID: sessionID,
	}
	if err := protocol.WriteMessage(conn, base, welcome); err != nil {
		return err
	}

	overlay, err := protocol.EncodeStyledFrame(protocol.StyledFrame{
		Frame:  5,
		Styles: []protocol.CellStyle{{FG: 1}},
		Rows:   []protocol.StyledRow{{Row: 0, Spans: []protocol.StyledSpan{{Col: 0, Style: 0, Text: "hi"}}}},
	})
	if err != nil {
		return err
	}
	oh := base
	oh.Type = protocol.MsgStyledFrame
	oh.Sequence = 5
	if err := protocol.WriteMessage(conn, oh, overlay); err != nil {
		return err
	}

	framePayload, err := protocol.EncodeFrame(protocol.Frame{Frame: 5, Screen: "hi there", CursorVisible: true})
	if err != nil {
		return err
	}
	fh := base
	fh.Type = protocol.MsgFrame
	fh.Sequence = 5
	if err := protocol.WriteMessage(conn, fh, framePayload); err != nil {
		return err
	}

	for {
		if _, _, err := protocol.ReadMessage(conn); err != nil {
			return nil
		}
	}
}

func TestAttachHandshakeAndFramePairing(t *testing.T) {
	cliSide, srvSide := net.Pipe()
	defer srvSide.Close()

	var sessionID [16]byte
	sessionID[0] = 0xAB

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- fakeServer(srvSide, sessionID)
	}()

	c, err := attachConn(cliSide, Options{ClientName: "test", Styled: true})
	if err != nil {
		cliSide.Close()
		t.Fatalf("attach failed: %v", err)
	}
	defer c.Close()

	if c.ServerName() != "test-server" {
		t.Fatalf("unexpected server name %q", c.ServerName())
	}
	if cols, rows := c.Size(); cols != 80 || rows != 24 {
		t.Fatalf("unexpected size %dx%d", cols, rows)
	}
	if c.LastFrame() != 4 {
		t.Fatalf("unexpected last frame %d", c.LastFrame())
	}
	if c.SessionID() != sessionID {
		t.Fatalf("session id not carried over")
	}

	select {
	case update := <-c.Frames():
		if update.Frame.Frame != 5 || update.Frame.Screen != "hi there" {
			t.Fatalf("unexpected frame %#v", update.Frame)
		}
		if update.Styled == nil {
			t.Fatalf("overlay not paired with its frame")
		}
		if update.Styled.Frame != 5 || len(update.Styled.Rows) != 1 {
			t.Fatalf("unexpected overlay %#v", update.Styled)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no update delivered")
	}

	c.Close()
	if err := <-srvErr; err != nil {
		t.Fatalf("server side: %v", err)
	}
}

func TestAttachRejectsNonWelcomeReply(t *testing.T) {
	cliSide, srvSide := net.Pipe()
	defer srvSide.Close()
	defer cliSide.Close()

	go func() {
		if _, _, err := protocol.ReadMessage(srvSide); err != nil {
			return
		}
		payload, _ := protocol.EncodeBye(protocol.Bye{Reason: "full"})
		hdr := protocol.Header{Version: protocol.Version, Type: protocol.MsgBye, Flags: protocol.FlagChecksum}
		_ = protocol.WriteMessage(srvSide, hdr, payload)
	}()

	if _, err := attachConn(cliSide, Options{ClientName: "test"}); err == nil {
		t.Fatalf("expected handshake failure")
	}
}
