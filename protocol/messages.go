package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var (
	errStringTooLong = errors.New("protocol: string exceeds 64KB limit")
	errBlobTooLong   = errors.New("protocol: blob exceeds maximum payload size")
	errPayloadShort  = errors.New("protocol: payload too short")
)

// Hello capability bits.
const (
	// HelloStyled asks the server to precede each frame with a styled
	// overlay (MsgStyledFrame) carrying colour and attribute spans.
	HelloStyled uint16 = 1 << iota
)

// Hello initiates the handshake from client to server. Cols and Rows carry
// the client's local terminal size; a zero size means the client has no
// opinion and takes the session's current geometry. Flags carries the
// capability bits above.
type Hello struct {
	ClientName string
	Cols       uint16
	Rows       uint16
	Flags      uint16
}

// Welcome is returned by the server acknowledging the handshake. LastFrame
// is the session's current frame counter so the client knows whether the
// first frame it receives is fresh or historical.
type Welcome struct {
	SessionID  [16]byte
	ServerName string
	Cols       uint16
	Rows       uint16
	LastFrame  uint64
}

// Frame carries one rendered screen snapshot from server to client.
type Frame struct {
	Frame         uint64
	UnixMicro     int64
	CursorX       int16
	CursorY       int16
	CursorVisible bool
	Screen        string
}

// Input carries raw keyboard bytes from client to the session's PTY.
type Input struct {
	Data []byte
}

// Resize asks the server to change the session's terminal geometry.
type Resize struct {
	Cols uint16
	Rows uint16
}

// Ping/Pong keep the connection alive.
type Ping struct {
	Timestamp int64
}

type Pong struct {
	Timestamp int64
}

// Bye informs the peer that the connection is closing.
type Bye struct {
	Reason string
}

func encodeString(buf *bytes.Buffer, value string) error {
	if len(value) > 0xFFFF {
		return errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := buf.WriteString(value); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, errPayloadShort
	}
	length := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	if uint16(len(b)) < length {
		return "", nil, errPayloadShort
	}
	return string(b[:length]), b[length:], nil
}

// encodeBlob writes a uint32-length-prefixed byte run. Screen snapshots of
// large terminals outgrow the 64KB string limit, so they go through here.
func encodeBlob(buf *bytes.Buffer, value []byte) error {
	if len(value) > MaxPayload {
		return errBlobTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := buf.Write(value); err != nil {
			return err
		}
	}
	return nil
}

func decodeBlob(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, errPayloadShort
	}
	length := binary.LittleEndian.Uint32(b[:4])
	b = b[4:]
	if length > MaxPayload || uint32(len(b)) < length {
		return nil, nil, errPayloadShort
	}
	return append([]byte(nil), b[:length]...), b[length:], nil
}

func EncodeHello(h Hello) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8+len(h.ClientName)))
	if err := encodeString(buf, h.ClientName); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, h.Cols); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, h.Rows); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, h.Flags); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeHello(b []byte) (Hello, error) {
	var h Hello
	name, rest, err := decodeString(b)
	if err != nil {
		return h, err
	}
	h.ClientName = name
	if len(rest) < 6 {
		return h, errPayloadShort
	}
	h.Cols = binary.LittleEndian.Uint16(rest[0:2])
	h.Rows = binary.LittleEndian.Uint16(rest[2:4])
	h.Flags = binary.LittleEndian.Uint16(rest[4:6])
	return h, nil
}

func EncodeWelcome(w Welcome) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 32+len(w.ServerName)))
	buf.Write(w.SessionID[:])
	if err := encodeString(buf, w.ServerName); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.Cols); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.Rows); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.LastFrame); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWelcome(b []byte) (Welcome, error) {
	var w Welcome
	if len(b) < 16 {
		return w, errPayloadShort
	}
	copy(w.SessionID[:], b[:16])
	name, rest, err := decodeString(b[16:])
	if err != nil {
		return w, err
	}
	w.ServerName = name
	if len(rest) < 12 {
		return w, errPayloadShort
	}
	w.Cols = binary.LittleEndian.Uint16(rest[0:2])
	w.Rows = binary.LittleEndian.Uint16(rest[2:4])
	w.LastFrame = binary.LittleEndian.Uint64(rest[4:12])
	return w, nil
}

func EncodeFrame(f Frame) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 25+len(f.Screen)))
	if err := binary.Write(buf, binary.LittleEndian, f.Frame); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, f.UnixMicro); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, f.CursorX); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, f.CursorY); err != nil {
		return nil, err
	}
	if f.CursorVisible {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	if err := encodeBlob(buf, []byte(f.Screen)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	if len(b) < 21 {
		return f, errPayloadShort
	}
	f.Frame = binary.LittleEndian.Uint64(b[0:8])
	f.UnixMicro = int64(binary.LittleEndian.Uint64(b[8:16]))
	f.CursorX = int16(binary.LittleEndian.Uint16(b[16:18]))
	f.CursorY = int16(binary.LittleEndian.Uint16(b[18:20]))
	f.CursorVisible = b[20] != 0
	screen, _, err := decodeBlob(b[21:])
	if err != nil {
		return f, err
	}
	f.Screen = string(screen)
	return f, nil
}

func EncodeInput(in Input) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4+len(in.Data)))
	if err := encodeBlob(buf, in.Data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeInput(b []byte) (Input, error) {
	var in Input
	data, _, err := decodeBlob(b)
	if err != nil {
		return in, err
	}
	in.Data = data
	return in, nil
}

func EncodeResize(r Resize) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4))
	if err := binary.Write(buf, binary.LittleEndian, r.Cols); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, r.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeResize(b []byte) (Resize, error) {
	var r Resize
	if len(b) < 4 {
		return r, errPayloadShort
	}
	r.Cols = binary.LittleEndian.Uint16(b[0:2])
	r.Rows = binary.LittleEndian.Uint16(b[2:4])
	return r, nil
}

func EncodePing(p Ping) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8))
	if err := binary.Write(buf, binary.LittleEndian, p.Timestamp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodePing(b []byte) (Ping, error) {
	var p Ping
	if len(b) < 8 {
		return p, errPayloadShort
	}
	p.Timestamp = int64(binary.LittleEndian.Uint64(b[:8]))
	return p, nil
}

func EncodePong(p Pong) ([]byte, error) {
	return EncodePing(Ping{Timestamp: p.Timestamp})
}

func DecodePong(b []byte) (Pong, error) {
	ping, err := DecodePing(b)
	if err != nil {
		return Pong{}, err
	}
	return Pong{Timestamp: ping.Timestamp}, nil
}

func EncodeBye(bye Bye) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 2+len(bye.Reason)))
	if err := encodeString(buf, bye.Reason); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeBye(b []byte) (Bye, error) {
	var bye Bye
	reason, _, err := decodeString(b)
	if err != nil {
		return bye, err
	}
	bye.Reason = reason
	return bye, nil
}
