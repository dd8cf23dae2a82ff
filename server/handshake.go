package server

import (
	"errors"
	"io"

	"termlens/protocol"
)

var errUnexpectedMessage = errors.New("server: unexpected message during handshake")

// handleHandshake performs the Hello/Welcome exchange and creates the
// session this connection will serve. The returned flags are the client's
// Hello capability bits.
func handleHandshake(rw io.ReadWriter, mgr *Manager) (*Session, uint16, error) {
	header, payload, err := protocol.ReadMessage(rw)
	if err != nil {
		return nil, 0, err
	}
	if header.Type != protocol.MsgHello {
		return nil, 0, errUnexpectedMessage
	}
	hello, err := protocol.DecodeHello(payload)
	if err != nil {
		return nil, 0, err
	}

	session, err := mgr.Create(hello.ClientName, int(hello.Cols), int(hello.Rows))
	if err != nil {
		return nil, 0, err
	}

	cols, rows := session.Size()
	welcome := protocol.Welcome{
		SessionID:  session.ID(),
		ServerName: mgr.ServerName(),
		Cols:       uint16(cols),
		Rows:       uint16(rows),
		LastFrame:  session.LastFrame(),
	}
	payload, err = protocol.EncodeWelcome(welcome)
	if err != nil {
		mgr.Close(session.ID())
		return nil, 0, err
	}
	welcomeHeader := protocol.Header{
		Version:   protocol.Version,
		Type:      protocol.MsgWelcome,
		Flags:     protocol.FlagChecksum,
		SessionID: session.ID(),
	}
	if err := protocol.WriteMessage(rw, welcomeHeader, payload); err != nil {
		mgr.Close(session.ID())
		return nil, 0, err
	}
	return session, hello.Flags, nil
}
