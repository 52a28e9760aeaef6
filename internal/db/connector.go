package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/sparkify-dwh/internal/retry"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// dialer opens one connection from a resolved config. Overridden in tests.
type dialer func(ctx context.Context, config *pgx.ConnConfig) (*pgx.Conn, error)

func dialAndPing(ctx context.Context, config *pgx.ConnConfig) (*pgx.Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx) //nolint:errcheck
		return nil, err
	}
	return conn, nil
}

func newExecutor(config *dwh.ConnectionConfig, logger dwh.Logger) *retry.Executor {
	return retry.NewExecutor(
		retry.NewConnectClassifier(),
		retry.NewExponentialBackoff(config.ConnectRetries),
	).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Info("Connect to %s:%d failed (%v), retry %d/%d in %v",
			config.Host, config.Port, err, attempt+1, config.ConnectRetries, delay.Round(time.Millisecond))
	})
}

// pgxConfig turns a ConnectionConfig into a pgx config with server
// notices routed to the logger.
func pgxConfig(config *dwh.ConnectionConfig, logger dwh.Logger) (*pgx.ConnConfig, error) {
	connConfig, err := pgx.ParseConfig(BuildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w: %w", dwh.ErrConfiguration, err)
	}
	if config.SimpleProtocol {
		connConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	connConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("%s: %s", notice.Severity, notice.Message)
	}
	return connConfig, nil
}

// StandardConnector authenticates with the configured user and password.
type StandardConnector struct {
	config   *dwh.ConnectionConfig
	logger   dwh.Logger
	executor *retry.Executor
	dial     dialer
}

// NewStandardConnector creates a password connector. Transient connect
// failures are retried config.ConnectRetries times.
func NewStandardConnector(config *dwh.ConnectionConfig, logger dwh.Logger) *StandardConnector {
	return &StandardConnector{
		config:   config,
		logger:   logger,
		executor: newExecutor(config, logger),
		dial:     dialAndPing,
	}
}

// Connect opens and pings one connection.
func (c *StandardConnector) Connect(ctx context.Context) (*pgx.Conn, error) {
	connConfig, err := pgxConfig(c.config, c.logger)
	if err != nil {
		return nil, err
	}

	var conn *pgx.Conn
	err = c.executor.Execute(ctx, func(ctx context.Context) error {
		var dialErr error
		conn, dialErr = c.dial(ctx, connConfig)
		return dialErr
	})
	if err != nil {
		return nil, wrapConnectionError(err, c.config)
	}
	return conn, nil
}

// CredentialConnector fetches temporary credentials before every attempt
// and logs in with them.
type CredentialConnector struct {
	config   *dwh.ConnectionConfig
	provider CredentialProvider
	logger   dwh.Logger
	executor *retry.Executor
	dial     dialer
}

// NewCredentialConnector creates a connector backed by provider.
func NewCredentialConnector(config *dwh.ConnectionConfig, provider CredentialProvider, logger dwh.Logger) *CredentialConnector {
	return &CredentialConnector{
		config:   config,
		provider: provider,
		logger:   logger,
		executor: newExecutor(config, logger),
		dial:     dialAndPing,
	}
}

// Connect acquires credentials, then opens and pings one connection.
func (c *CredentialConnector) Connect(ctx context.Context) (*pgx.Conn, error) {
	var conn *pgx.Conn
	err := c.executor.Execute(ctx, func(ctx context.Context) error {
		creds, err := c.provider.Credentials(ctx)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", dwh.ErrConnection, c.provider, err)
		}
		if remaining := time.Until(creds.ExpiresAt); remaining < 5*time.Minute {
			c.logger.Info("Warning: temporary credentials expire in %v", remaining.Round(time.Second))
		}
		c.logger.Verbose("Using temporary credentials for %s from %s", creds.User, c.provider)

		withCreds := *c.config
		withCreds.Username = creds.User
		withCreds.Password = creds.Password

		connConfig, err := pgxConfig(&withCreds, c.logger)
		if err != nil {
			return err
		}
		conn, err = c.dial(ctx, connConfig)
		return err
	})
	if err != nil {
		if errors.Is(err, dwh.ErrConnection) || errors.Is(err, dwh.ErrConfiguration) {
			return nil, err
		}
		return nil, wrapConnectionError(err, c.config)
	}
	return conn, nil
}

// NewConnector returns the connector for config.AuthMethod.
func NewConnector(ctx context.Context, config *dwh.ConnectionConfig, logger dwh.Logger) (dwh.Connector, error) {
	switch config.AuthMethod {
	case dwh.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil

	case dwh.AuthMethodRedshiftIAM:
		awsConfig, err := loadAWSConfig(ctx, config.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dwh.ErrConnection, err)
		}
		provider, err := NewRedshiftCredentialProvider(
			redshift.NewFromConfig(awsConfig), config.ClusterIdentifier, config.Database, config.Username)
		if err != nil {
			return nil, err
		}
		return NewCredentialConnector(config, provider, logger), nil

	case dwh.AuthMethodRDSIAM:
		awsConfig, err := loadAWSConfig(ctx, config.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dwh.ErrConnection, err)
		}
		endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)
		provider, err := NewRDSTokenProvider(endpoint, config.AWSRegion, config.Username, awsConfig.Credentials)
		if err != nil {
			return nil, err
		}
		return NewCredentialConnector(config, provider, logger), nil

	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, dwh.ErrConfiguration)
	}
}

// wrapConnectionError wraps a raw connect error in dwh.ErrConnection with
// actionable guidance.
func wrapConnectionError(err error, config *dwh.ConnectionConfig) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: connect cancelled: %w", dwh.ErrConnection, err)
	}

	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`%w: connection refused to %s

Possible causes:
  - The cluster is paused, resizing or still being created
  - Wrong CLUSTER.HOST or CLUSTER.DB_PORT

Original error: %w`, dwh.ErrConnection, addr, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`%w: cannot resolve host "%s"

Possible causes:
  - CLUSTER.HOST is misspelled or the cluster was deleted
  - DNS is not reachable from this network

Original error: %w`, dwh.ErrConnection, config.Host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`%w: password authentication failed for user "%s"

Possible causes:
  - Wrong CLUSTER.DB_PASSWORD (or DWH_CLUSTER_DB_PASSWORD)
  - Wrong CLUSTER.DB_USER

Original error: %w`, dwh.ErrConnection, config.Username, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`%w: database "%s" does not exist

Check CLUSTER.DB_NAME; Redshift clusters are created with the database "dev" unless another name was given.

Original error: %w`, dwh.ErrConnection, config.Database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out") || errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf(`%w: connection timed out to %s

Possible causes:
  - The cluster is not publicly accessible
  - The VPC security group does not allow inbound TCP on port %d from this host

Original error: %w`, dwh.ErrConnection, addr, config.Port, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`%w: SSL/TLS connection error

Possible causes:
  - The cluster requires SSL but CLUSTER.SSLMODE disables it
  - Certificate verification failed (try CLUSTER.SSLMODE = require)

Original error: %w`, dwh.ErrConnection, err)

	default:
		return fmt.Errorf("%w: failed to connect to %s: %w", dwh.ErrConnection, addr, err)
	}
}
