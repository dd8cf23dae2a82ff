package server

import (
	"io"
	"net"
	"sync"
	"time"

	"termlens/protocol"
)

// connection serves one attached viewer: it flushes queued frames out and
// handles the viewer's input, resize and liveness messages.
type connection struct {
	conn     net.Conn
	session  *Session
	sink     EventSink
	styled   bool
	lastSent uint64
	writeMu  sync.Mutex
}

func newConnection(conn net.Conn, session *Session, sink EventSink, flags uint16) *connection {
	if sink == nil {
		sink = nopSink{}
	}
	return &connection{
		conn:    conn,
		session: session,
		sink:    sink,
		styled:  flags&protocol.HelloStyled != 0,
	}
}

// serve runs until the viewer disconnects, the session is torn down, or
// the session has ended and its final frame has been delivered. The short
// read deadline doubles as the polling interval for queued frames.
func (c *connection) serve() error {
	_ = c.conn.SetDeadline(time.Time{})
	for {
		if err := c.sendPending(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if c.session.Closed() {
			return nil
		}
		if c.session.Drained() && c.lastSent == c.session.LastFrame() {
			return c.sendBye("session ended")
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
		header, payload, err := protocol.ReadMessage(c.conn)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		switch header.Type {
		case protocol.MsgInput:
			input, err := protocol.DecodeInput(payload)
			if err != nil {
				return err
			}
			if err := c.session.SendInput(input.Data); err != nil {
				return err
			}
			c.sink.InputForwarded(c.session, len(input.Data))
		case protocol.MsgResize:
			size, err := protocol.DecodeResize(payload)
			if err != nil {
				return err
			}
			c.session.Resize(int(size.Cols), int(size.Rows))
		case protocol.MsgPing:
			ping, err := protocol.DecodePing(payload)
			if err != nil {
				return err
			}
			pong, err := protocol.EncodePong(protocol.Pong{Timestamp: ping.Timestamp})
			if err != nil {
				return err
			}
			if err := c.writeControl(protocol.MsgPong, pong); err != nil {
				return err
			}
		case protocol.MsgBye:
			return nil
		default:
			// Unknown messages are ignored.
		}
	}
}

// sendPending flushes queued frames the viewer has not seen yet. For
// styled-capable viewers the colour overlay goes out first, so the styles
// are in hand when the matching text arrives.
func (c *connection) sendPending() error {
	for _, pkt := range c.session.Pending(c.lastSent) {
		if pkt.Sequence <= c.lastSent {
			continue
		}
		if c.styled && len(pkt.Styled) > 0 {
			styledHeader := pkt.Header
			styledHeader.Type = protocol.MsgStyledFrame
			if err := c.writeMessage(styledHeader, pkt.Styled); err != nil {
				return err
			}
		}
		if err := c.writeMessage(pkt.Header, pkt.Payload); err != nil {
			return err
		}
		c.lastSent = pkt.Sequence
	}
	return nil
}

func (c *connection) sendBye(reason string) error {
	payload, err := protocol.EncodeBye(protocol.Bye{Reason: reason})
	if err != nil {
		return err
	}
	return c.writeControl(protocol.MsgBye, payload)
}

func (c *connection) writeControl(msgType protocol.MessageType, payload []byte) error {
	header := protocol.Header{
		Version:   protocol.Version,
		Type:      msgType,
		Flags:     protocol.FlagChecksum,
		SessionID: c.session.ID(),
	}
	return c.writeMessage(header, payload)
}

func (c *connection) writeMessage(header protocol.Header, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteMessage(c.conn, header, payload)
}
