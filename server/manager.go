package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("server: session not found")
	ErrTooManySessions = errors.New("server: session limit reached")
)

// ManagerConfig carries the recipe for new sessions.
type ManagerConfig struct {
	ServerName   string
	Command      string
	Args         []string
	DefaultCols  int
	DefaultRows  int
	MaxSessions  int
	FrameBacklog int
	Settle       time.Duration
	MaxInterval  time.Duration
	Sink         EventSink
	Observer     PublishObserver
}

type managed struct {
	session   *Session
	publisher *Publisher
}

// Manager tracks active sessions and coordinates creation and teardown.
type Manager struct {
	mu       sync.RWMutex
	cfg      ManagerConfig
	sessions map[[16]byte]*managed
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.ServerName == "" {
		cfg.ServerName = "termlens"
	}
	if cfg.DefaultCols <= 0 {
		cfg.DefaultCols = 80
	}
	if cfg.DefaultRows <= 0 {
		cfg.DefaultRows = 24
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 32
	}
	if cfg.FrameBacklog <= 0 {
		cfg.FrameBacklog = 64
	}
	if cfg.Sink == nil {
		cfg.Sink = nopSink{}
	}
	return &Manager{cfg: cfg, sessions: make(map[[16]byte]*managed)}
}

// Create starts a new session and its publisher, applying the default
// dimensions when the client expressed no preference.
func (m *Manager) Create(clientName string, cols, rows int) (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	if cols <= 0 {
		cols = m.cfg.DefaultCols
	}
	if rows <= 0 {
		rows = m.cfg.DefaultRows
	}

	m.mu.Lock()
	if len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}

	session, err := StartSession(id, SessionConfig{
		Command:   m.cfg.Command,
		Args:      m.cfg.Args,
		Cols:      cols,
		Rows:      rows,
		MaxFrames: m.cfg.FrameBacklog,
	})
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	publisher := NewPublisher(session, PublisherConfig{
		Settle:      m.cfg.Settle,
		MaxInterval: m.cfg.MaxInterval,
		Sink:        m.cfg.Sink,
	})
	publisher.SetObserver(m.cfg.Observer)
	publisher.Start()

	m.sessions[id] = &managed{session: session, publisher: publisher}
	m.mu.Unlock()

	m.cfg.Sink.SessionStarted(session, clientName)
	return session, nil
}

func (m *Manager) Lookup(id [16]byte) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.session, nil
}

// Close stops the session's publisher, flushing its final frame, then
// tears the session down. Closing an unknown id does nothing.
func (m *Manager) Close(id [16]byte) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	entry.publisher.Stop()
	entry.session.Close()
	m.cfg.Sink.SessionEnded(entry.session)
}

// CloseAll tears down every active session.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([][16]byte, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Close(id)
	}
}

func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) ServerName() string {
	return m.cfg.ServerName
}

func (m *Manager) Sink() EventSink {
	return m.cfg.Sink
}
