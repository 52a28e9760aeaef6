package dwh

import (
	"context"

	"github.com/google/uuid"
)

// Session owns the one connection a runner sequence executes on.
//
// Thread-Safety: NOT safe for concurrent use.
//
// Lifecycle:
//  1. Created by SessionManager.Open()
//  2. Used by exactly one sequence
//  3. Cleaned up via Close() (idempotent)
type Session struct {
	conn  Conn
	runID uuid.UUID
}

// NewSession creates a new Session instance.
//
// Panics if conn is nil (programmer error - SessionManager should never
// create a Session without a connection).
func NewSession(conn Conn, runID uuid.UUID) *Session {
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &Session{conn: conn, runID: runID}
}

// Conn returns the session connection. Valid until Close() is called.
func (s *Session) Conn() Conn {
	return s.conn
}

// RunID identifies this sequence run in logs and metrics.
func (s *Session) RunID() uuid.UUID {
	return s.runID
}

// Close terminates the connection. Safe to call multiple times.
func (s *Session) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close(ctx)
	s.conn = nil
	return err
}
