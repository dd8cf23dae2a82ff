package server

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"termlens/protocol"
	"termlens/vterm"
)

var ErrSessionClosed = errors.New("server: session closed")

// FramePacket holds an encoded frame message queued for delivery. Styled
// carries the encoded colour overlay for the same sequence, or nil when
// the snapshot has no styling beyond the defaults.
type FramePacket struct {
	Sequence uint64
	Header   protocol.Header
	Payload  []byte
	Styled   []byte
}

// SessionConfig describes the child process and emulator for one session.
type SessionConfig struct {
	Command string
	Args    []string
	Cols    int
	Rows    int
	// MaxFrames bounds the published frame queue; the oldest frames are
	// dropped when it overflows. Zero means unbounded.
	MaxFrames int
}

// Session runs one child process under a PTY, feeds its output to a
// virtual terminal and queues published frames for delivery. The session
// mutex serializes all emulator access: the feed goroutine, resizes and
// frame captures.
type Session struct {
	id [16]byte

	mu        sync.Mutex
	term      *vterm.VTerm
	frames    []FramePacket
	nextSeq   uint64
	maxFrames int
	closed    bool

	cmd  *exec.Cmd
	ptmx *os.File

	done      chan struct{} // closed once the child has exited and been reaped
	drained   chan struct{} // closed once the final post-exit frame is queued
	drainOnce sync.Once
	exitErr   error
}

func newSession(id [16]byte, term *vterm.VTerm, maxFrames int) *Session {
	if maxFrames < 0 {
		maxFrames = 0
	}
	return &Session{
		id:        id,
		term:      term,
		frames:    make([]FramePacket, 0, 64),
		maxFrames: maxFrames,
		done:      make(chan struct{}),
		drained:   make(chan struct{}),
	}
}

// StartSession spawns cfg.Command under a PTY sized cfg.Cols by cfg.Rows
// and starts the goroutine that feeds PTY output to the emulator.
func StartSession(id [16]byte, cfg SessionConfig) (*Session, error) {
	cols, rows := cfg.Cols, cfg.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	command := cfg.Command
	if command == "" {
		command = defaultShell()
	}

	cmd := exec.Command(command, cfg.Args...)
	cmd.Env = append(os.Environ(), "TERM=xterm")
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, err
	}

	s := newSession(id, vterm.New(cols, rows), cfg.MaxFrames)
	s.cmd = cmd
	s.ptmx = ptmx
	go s.feedLoop()
	return s, nil
}

func defaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

// feedLoop copies PTY output into the emulator until the child exits.
// Reads happen outside the mutex; only the emulator write is serialized.
func (s *Session) feedLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.term.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			break
		}
	}
	s.exitErr = s.cmd.Wait()
	close(s.done)
}

func (s *Session) ID() [16]byte {
	return s.id
}

// Size returns the emulator dimensions.
func (s *Session) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term.Size()
}

// SendInput writes raw bytes to the PTY. The write happens outside the
// session mutex so a full PTY input buffer cannot stall the feed loop.
func (s *Session) SendInput(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	s.mu.Lock()
	if s.closed || s.ptmx == nil {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	ptmx := s.ptmx
	s.mu.Unlock()

	_, err := ptmx.Write(data)
	return err
}

// Resize changes the emulator size first, so output provoked by the
// child's SIGWINCH lands on a buffer that already has the new shape.
func (s *Session) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.term.Resize(cols, rows)
	ptmx := s.ptmx
	s.mu.Unlock()

	if ptmx != nil {
		pty.Setsize(ptmx, &pty.Winsize{
			Rows: uint16(rows),
			Cols: uint16(cols),
		})
	}
}

// TakeChanged reports and clears the emulator's sticky change flag. It is
// safe to call from any goroutine.
func (s *Session) TakeChanged() bool {
	return s.term.HasChangedSinceLastRead()
}

// Snapshot captures the current screen as a frame message.
func (s *Session) Snapshot() protocol.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() protocol.Frame {
	return protocol.Frame{
		Frame:         s.term.FrameCount(),
		UnixMicro:     time.Now().UnixMicro(),
		CursorX:       int16(s.term.CursorX()),
		CursorY:       int16(s.term.CursorY()),
		CursorVisible: s.term.CursorVisible(),
		Screen:        s.term.ScreenText(),
	}
}

// PublishFrame snapshots the screen and queues it for delivery. Every
// frame is a complete snapshot, so frames dropped past the queue limit
// only cost intermediate states, never the final one.
func (s *Session) PublishFrame() (protocol.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return protocol.Frame{}, ErrSessionClosed
	}

	frame := s.snapshotLocked()
	payload, err := protocol.EncodeFrame(frame)
	if err != nil {
		return protocol.Frame{}, err
	}

	// The overlay is optional; if it cannot be encoded the plain frame
	// still goes out.
	var styled []byte
	if overlay := styledSnapshot(s.term, frame.Frame); len(overlay.Rows) > 0 {
		styled, _ = protocol.EncodeStyledFrame(overlay)
	}

	seq := s.nextSeq + 1
	s.frames = append(s.frames, FramePacket{
		Sequence: seq,
		Header: protocol.Header{
			Version:   protocol.Version,
			Type:      protocol.MsgFrame,
			Flags:     protocol.FlagChecksum,
			SessionID: s.id,
			Sequence:  seq,
		},
		Payload: payload,
		Styled:  styled,
	})
	s.nextSeq = seq

	if s.maxFrames > 0 && len(s.frames) > s.maxFrames {
		drop := len(s.frames) - s.maxFrames
		s.frames = append([]FramePacket(nil), s.frames[drop:]...)
	}
	return frame, nil
}

// Pending returns a copy of the queued frames with sequence numbers above
// the provided one. The result is safe to iterate without the lock.
func (s *Session) Pending(after uint64) []FramePacket {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, pkt := range s.frames {
		if pkt.Sequence > after {
			out := make([]FramePacket, len(s.frames)-i)
			copy(out, s.frames[i:])
			return out
		}
	}
	return nil
}

// LastFrame returns the sequence number of the most recently queued frame.
func (s *Session) LastFrame() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSeq
}

// OnScreenChange registers an emulator change listener under the session
// mutex. The listener runs on the feed goroutine and must not block or
// call back into the session.
func (s *Session) OnScreenChange(fn vterm.Listener) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inner := s.term.OnScreenChange(fn)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		inner()
	}
}

// Done is closed once the child process has exited and been reaped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Exited reports whether the child process has exited.
func (s *Session) Exited() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the child exits and returns its exit error.
func (s *Session) Wait() error {
	<-s.done
	return s.exitErr
}

// markDrained records that the final frame after child exit is queued.
func (s *Session) markDrained() {
	s.drainOnce.Do(func() { close(s.drained) })
}

// Drained reports whether the final post-exit frame has been queued. A
// connection that has delivered everything up to LastFrame on a drained
// session has shown the viewer the session's last state.
func (s *Session) Drained() bool {
	select {
	case <-s.drained:
		return true
	default:
		return false
	}
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close tears the session down: the PTY is closed, which unblocks the
// feed loop, and the child is asked to terminate. The frame queue is
// released.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.frames = nil
	s.mu.Unlock()

	if s.ptmx != nil {
		s.ptmx.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Signal(syscall.SIGTERM)
	}
}
