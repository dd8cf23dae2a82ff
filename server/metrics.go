package server

import (
	"log"
	"time"

	"termlens/protocol"
)

// PublishObserver records publish timings for instrumentation.
type PublishObserver interface {
	ObservePublish(session *Session, frame protocol.Frame, duration time.Duration)
}

// PublishLogger logs publish metrics to the provided logger.
type PublishLogger struct {
	logger *log.Logger
}

// NewPublishLogger creates a publish observer that logs metrics.
func NewPublishLogger(l *log.Logger) *PublishLogger {
	if l == nil {
		l = log.Default()
	}
	return &PublishLogger{logger: l}
}

func (p *PublishLogger) ObservePublish(session *Session, frame protocol.Frame, duration time.Duration) {
	if p == nil || p.logger == nil || session == nil {
		return
	}
	id := session.ID()
	p.logger.Printf("publish session=%x frame=%d bytes=%d duration=%s", id[:4], frame.Frame, len(frame.Screen), duration)
}
