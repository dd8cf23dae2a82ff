package client

import (
	"fmt"
	"net"
	"sync"
	"time"

	"termlens/protocol"
)

const dialTimeout = 5 * time.Second

// Options configures Attach. A zero Cols/Rows tells the server to keep its
// default geometry. Styled asks the server for colour overlays alongside
// the plain text frames.
type Options struct {
	ClientName string
	Cols       uint16
	Rows       uint16
	Styled     bool
}

// Update is one delivered screen state: the text frame plus, when the
// server sent one, the colour overlay that decorates it.
type Update struct {
	Frame  protocol.Frame
	Styled *protocol.StyledFrame
}

// Client is an attached viewer connection. Updates arrive on Frames() until
// the server says goodbye or the connection breaks; after the channel
// closes, Err and ByeReason explain which it was.
type Client struct {
	conn       net.Conn
	sessionID  [16]byte
	serverName string
	cols       uint16
	rows       uint16
	lastFrame  uint64

	frames chan Update
	done   chan struct{}

	writeMu sync.Mutex

	mu        sync.Mutex
	readErr   error
	byeReason string
	latency   time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Attach dials the server socket, performs the handshake and starts the
// read pump. The returned client owns the connection.
func Attach(socketPath string, opts Options) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	c, err := attachConn(conn, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// attachConn runs the handshake over an established connection. On error the
// caller still owns conn.
func attachConn(conn net.Conn, opts Options) (*Client, error) {
	name := opts.ClientName
	if name == "" {
		name = "termlens-attach"
	}
	var flags uint16
	if opts.Styled {
		flags |= protocol.HelloStyled
	}
	payload, err := protocol.EncodeHello(protocol.Hello{ClientName: name, Cols: opts.Cols, Rows: opts.Rows, Flags: flags})
	if err != nil {
		return nil, err
	}
	hdr := protocol.Header{Version: protocol.Version, Type: protocol.MsgHello, Flags: protocol.FlagChecksum}
	if err := protocol.WriteMessage(conn, hdr, payload); err != nil {
		return nil, err
	}

	replyHdr, replyPayload, err := protocol.ReadMessage(conn)
	if err != nil {
		return nil, err
	}
	if replyHdr.Type != protocol.MsgWelcome {
		return nil, fmt.Errorf("unexpected message %v during handshake", replyHdr.Type)
	}
	welcome, err := protocol.DecodeWelcome(replyPayload)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:       conn,
		sessionID:  welcome.SessionID,
		serverName: welcome.ServerName,
		cols:       welcome.Cols,
		rows:       welcome.Rows,
		lastFrame:  welcome.LastFrame,
		frames:     make(chan Update, 8),
		done:       make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

// readPump owns the read side of the connection. It runs until the server
// says goodbye, the connection breaks, or Close is called. Overlays arrive
// before the frame they decorate; the pump holds the latest one and pairs
// it with the next frame carrying the same counter.
func (c *Client) readPump() {
	defer close(c.frames)
	var pending *protocol.StyledFrame
	for {
		hdr, payload, err := protocol.ReadMessage(c.conn)
		if err != nil {
			if !c.closing() {
				c.mu.Lock()
				c.readErr = err
				c.mu.Unlock()
			}
			return
		}

		switch hdr.Type {
		case protocol.MsgStyledFrame:
			// A bad overlay is dropped, not fatal; the text frame
			// still renders.
			if sf, err := protocol.DecodeStyledFrame(payload); err == nil {
				pending = &sf
			}
		case protocol.MsgFrame:
			frame, err := protocol.DecodeFrame(payload)
			if err != nil {
				c.mu.Lock()
				c.readErr = err
				c.mu.Unlock()
				return
			}
			update := Update{Frame: frame}
			if pending != nil && pending.Frame == frame.Frame {
				update.Styled = pending
			}
			pending = nil
			select {
			case c.frames <- update:
			case <-c.done:
				return
			}
		case protocol.MsgPong:
			if pong, err := protocol.DecodePong(payload); err == nil {
				rtt := time.Since(time.UnixMicro(pong.Timestamp))
				c.mu.Lock()
				c.latency = rtt
				c.mu.Unlock()
			}
		case protocol.MsgBye:
			reason := ""
			if bye, err := protocol.DecodeBye(payload); err == nil {
				reason = bye.Reason
			}
			c.mu.Lock()
			c.byeReason = reason
			c.mu.Unlock()
			return
		default:
			// Unknown messages are ignored.
		}
	}
}

// Frames returns the channel of incoming screen updates. The channel is
// closed when the connection ends.
func (c *Client) Frames() <-chan Update {
	return c.frames
}

// SendInput forwards raw keyboard bytes to the session's terminal.
func (c *Client) SendInput(data []byte) error {
	payload, err := protocol.EncodeInput(protocol.Input{Data: data})
	if err != nil {
		return err
	}
	return c.writeControl(protocol.MsgInput, payload)
}

// SendResize asks the server to resize the session.
func (c *Client) SendResize(cols, rows int) error {
	if cols < 0 || cols > 0xFFFF || rows < 0 || rows > 0xFFFF {
		return fmt.Errorf("size %dx%d out of range", cols, rows)
	}
	payload, err := protocol.EncodeResize(protocol.Resize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		return err
	}
	return c.writeControl(protocol.MsgResize, payload)
}

// SendPing sends a liveness probe. The matching pong updates Latency.
func (c *Client) SendPing() error {
	payload, err := protocol.EncodePing(protocol.Ping{Timestamp: time.Now().UnixMicro()})
	if err != nil {
		return err
	}
	return c.writeControl(protocol.MsgPing, payload)
}

// Latency returns the round-trip time measured by the last ping, or zero if
// no pong has arrived yet.
func (c *Client) Latency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

// Err returns the read error that ended the connection, or nil for a clean
// goodbye or a local Close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// ByeReason returns the reason the server gave when it closed the
// connection, or the empty string if it didn't.
func (c *Client) ByeReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byeReason
}

// SessionID returns the session created for this connection.
func (c *Client) SessionID() [16]byte {
	return c.sessionID
}

// ServerName returns the name the server announced in the handshake.
func (c *Client) ServerName() string {
	return c.serverName
}

// Size returns the session geometry from the handshake.
func (c *Client) Size() (cols, rows int) {
	return int(c.cols), int(c.rows)
}

// LastFrame returns the session's frame counter at handshake time, so the
// caller can tell whether the first frame it receives is fresh.
func (c *Client) LastFrame() uint64 {
	return c.lastFrame
}

// Close says goodbye and tears down the connection. Safe to call more than
// once and concurrently with channel reads.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		if payload, err := protocol.EncodeBye(protocol.Bye{Reason: "detach"}); err == nil {
			_ = c.writeControl(protocol.MsgBye, payload)
		}
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *Client) closing() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) writeControl(msgType protocol.MessageType, payload []byte) error {
	header := protocol.Header{
		Version:   protocol.Version,
		Type:      msgType,
		Flags:     protocol.FlagChecksum,
		SessionID: c.sessionID,
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteMessage(c.conn, header, payload)
}
