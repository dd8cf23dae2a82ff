package server

import (
	"log"

	"termlens/protocol"
)

// EventSink receives session lifecycle and frame events.
type EventSink interface {
	SessionStarted(session *Session, clientName string)
	FramePublished(session *Session, frame protocol.Frame)
	InputForwarded(session *Session, bytes int)
	SessionEnded(session *Session)
}

// nopSink discards events when no sink is provided.
type nopSink struct{}

func (nopSink) SessionStarted(*Session, string)         {}
func (nopSink) FramePublished(*Session, protocol.Frame) {}
func (nopSink) InputForwarded(*Session, int)            {}
func (nopSink) SessionEnded(*Session)                   {}

// LogSink logs events to the provided logger.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(l *log.Logger) *LogSink {
	if l == nil {
		l = log.Default()
	}
	return &LogSink{logger: l}
}

func (s *LogSink) SessionStarted(session *Session, clientName string) {
	id := session.ID()
	s.logger.Printf("session=%x started client=%q", id[:4], clientName)
}

func (s *LogSink) FramePublished(session *Session, frame protocol.Frame) {
	id := session.ID()
	s.logger.Printf("session=%x frame=%d screen=%dB", id[:4], frame.Frame, len(frame.Screen))
}

func (s *LogSink) InputForwarded(session *Session, bytes int) {
	id := session.ID()
	s.logger.Printf("session=%x input=%dB", id[:4], bytes)
}

func (s *LogSink) SessionEnded(session *Session) {
	id := session.ID()
	s.logger.Printf("session=%x ended", id[:4])
}

// MultiSink fans events out to every given sink, skipping nils.
func MultiSink(sinks ...EventSink) EventSink {
	out := make([]EventSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return nopSink{}
	case 1:
		return out[0]
	}
	return multiSink(out)
}

type multiSink []EventSink

func (m multiSink) SessionStarted(session *Session, clientName string) {
	for _, s := range m {
		s.SessionStarted(session, clientName)
	}
}

func (m multiSink) FramePublished(session *Session, frame protocol.Frame) {
	for _, s := range m {
		s.FramePublished(session, frame)
	}
}

func (m multiSink) InputForwarded(session *Session, bytes int) {
	for _, s := range m {
		s.InputForwarded(session, bytes)
	}
}

func (m multiSink) SessionEnded(session *Session) {
	for _, s := range m {
		s.SessionEnded(session)
	}
}
