package server

import (
	"context"
	"log"
	"net"
	"os"
	"sync"
)

// Server listens on a Unix domain socket and serves one session per
// connection.
type Server struct {
	addr     string
	manager  *Manager
	listener net.Listener
	quit     chan struct{}
	wg       sync.WaitGroup
}

func NewServer(addr string, manager *Manager) *Server {
	if manager == nil {
		manager = NewManager(ManagerConfig{})
	}
	return &Server{addr: addr, manager: manager, quit: make(chan struct{})}
}

func (s *Server) Start() error {
	if err := os.RemoveAll(s.addr); err != nil {
		return err
	}
	l, err := net.Listen("unix", s.addr)
	if err != nil {
		return err
	}
	s.listener = l
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	session, flags, err := handleHandshake(conn, s.manager)
	if err != nil {
		log.Printf("server: handshake failed: %v", err)
		return
	}
	id := session.ID()
	log.Printf("server: session %x attached", id[:4])

	c := newConnection(conn, session, s.manager.Sink(), flags)
	if err := c.serve(); err != nil {
		log.Printf("server: session %x connection error: %v", id[:4], err)
	}
	s.manager.Close(id)
	log.Printf("server: session %x detached", id[:4])
}

// Stop closes the listener, tears down every session and waits for
// connection handlers to finish or the context to expire.
func (s *Server) Stop(ctx context.Context) error {
	close(s.quit)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.manager.CloseAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Server) Manager() *Manager {
	return s.manager
}
