package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/vvka-141/sparkify-dwh/internal/db"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// ConnectorFactory builds the connector for a connection configuration.
type ConnectorFactory func(ctx context.Context, config *dwh.ConnectionConfig, logger dwh.Logger) (dwh.Connector, error)

// SessionOpener opens the single-connection session a sequence runs on.
type SessionOpener interface {
	Open(ctx context.Context) (*dwh.Session, error)
}

// SessionManager connects to the warehouse and wraps the connection in a Session.
//
// SessionManager is safe for concurrent use as long as the injected
// connectorFactory and logger are.
type SessionManager struct {
	connectorFactory ConnectorFactory
	config           *dwh.ConnectionConfig
	runID            uuid.UUID
	logger           dwh.Logger
}

// NewSessionManager creates a new SessionManager with all dependencies injected.
//
// Panics if any dependency is nil. Panics indicate programmer error
// (incorrect dependency injection setup).
func NewSessionManager(
	connectorFactory ConnectorFactory,
	config *dwh.ConnectionConfig,
	runID uuid.UUID,
	logger dwh.Logger,
) *SessionManager {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &SessionManager{
		connectorFactory: connectorFactory,
		config:           config,
		runID:            runID,
		logger:           logger,
	}
}

// Open establishes one connection and returns it as a Session.
// The caller is responsible for closing the session.
func (sm *SessionManager) Open(ctx context.Context) (*dwh.Session, error) {
	connector, err := sm.connectorFactory(ctx, sm.config, sm.logger)
	if err != nil {
		return nil, err
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	sm.logger.Info("Connected to %s:%d/%s", sm.config.Host, sm.config.Port, sm.config.Database)
	sm.logger.Verbose("Run %s as %s", sm.runID, sm.config.Username)

	return dwh.NewSession(db.NewConnAdapter(conn), sm.runID), nil
}
