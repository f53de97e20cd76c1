package knifesql

import (
	"fmt"
	"sync"
)

type connState uint8

const (
	stateClosed connState = iota
	stateOpen
)

// session owns at most one live connection handle of type C and serializes
// every use of it. The handle is reachable only while the state is open.
type session[C any] struct {
	engine EngineKind
	closer func(C) error
	lost   func(C, error) bool

	mu    sync.Mutex
	state connState
	conn  C
}

// newSession builds a closed session. lost reports whether an error returned
// while using the handle means the server side of the connection is gone.
func newSession[C any](engine EngineKind, closer func(C) error, lost func(C, error) bool) *session[C] {
	return &session[C]{engine: engine, closer: closer, lost: lost}
}

// open installs the handle returned by dial. An existing handle is closed
// first, and its close error is ignored. On a dial error the session stays closed.
func (s *session[C]) open(dial func() (C, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateOpen {
		_ = s.closer(s.conn)
		s.reset()
	}

	conn, err := dial()
	if err != nil {
		return err
	}
	s.conn = conn
	s.state = stateOpen
	return nil
}

// release closes the handle if one is open. The session is closed afterwards
// even if the driver reports an error.
func (s *session[C]) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateOpen {
		return nil
	}
	err := s.closer(s.conn)
	s.reset()
	return err
}

// with runs fn against the open handle, or fails with ErrNotConnected. When
// fn fails because the connection was lost, the handle is released and the
// error matches ErrNotConnected as well as the driver's cause.
func (s *session[C]) with(fn func(C) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateOpen {
		return notConnected(s.engine)
	}
	err := fn(s.conn)
	if err != nil && s.lost != nil && s.lost(s.conn, err) {
		_ = s.closer(s.conn)
		s.reset()
		return fmt.Errorf("%w: connection lost: %w", notConnected(s.engine), err)
	}
	return err
}

func (s *session[C]) connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateOpen
}

func (s *session[C]) reset() {
	var zero C
	s.conn = zero
	s.state = stateClosed
}
