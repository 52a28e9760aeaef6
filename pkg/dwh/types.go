package dwh

import (
	"errors"
	"fmt"
	"time"
)

// Dialect selects how statements are rendered and how bulk copies run.
type Dialect string

const (
	// DialectRedshift renders Redshift DDL (distkey/sortkey/IDENTITY) and
	// server-side COPY from S3.
	DialectRedshift Dialect = "redshift"

	// DialectPostgres renders plain PostgreSQL DDL and performs the bulk
	// copy client-side through the COPY protocol.
	DialectPostgres Dialect = "postgres"
)

// IsValid returns true if the Dialect is a known value.
func (d Dialect) IsValid() bool {
	return d == DialectRedshift || d == DialectPostgres
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard    AuthMethod = iota // Username/Password from CLUSTER
	AuthMethodRedshiftIAM                   // Temporary credentials from redshift:GetClusterCredentials
	AuthMethodRDSIAM                        // RDS IAM authentication token as password
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodRedshiftIAM:
		return "Redshift IAM"
	case AuthMethodRDSIAM:
		return "RDS IAM"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodRDSIAM
}

// ParseAuthMethod maps the configuration spelling of an auth method.
// An empty string selects AuthMethodStandard.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch s {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "redshift-iam":
		return AuthMethodRedshiftIAM, nil
	case "rds-iam":
		return AuthMethodRDSIAM, nil
	default:
		return AuthMethodStandard, fmt.Errorf("unknown auth method %q: %w", s, ErrConfiguration)
	}
}

// StatementKind tags a statement so execution, logging and error
// classification can be specialised without inspecting SQL text.
type StatementKind int

const (
	KindDDL    StatementKind = iota // DROP / CREATE TABLE
	KindCopy                        // bulk copy from object storage
	KindInsert                      // set-based INSERT ... SELECT
	KindSelect                      // scalar query
)

// String returns the SQL verb family of the kind.
func (k StatementKind) String() string {
	switch k {
	case KindDDL:
		return "DDL"
	case KindCopy:
		return "COPY"
	case KindInsert:
		return "INSERT"
	case KindSelect:
		return "SELECT"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// SchemaAction says which schema change a KindDDL statement makes.
type SchemaAction int

const (
	SchemaNone SchemaAction = iota
	SchemaDrop
	SchemaCreate
)

// Sentinel returns the error kind a failure of this statement kind maps to.
func (k StatementKind) Sentinel() error {
	switch k {
	case KindDDL:
		return ErrSchema
	case KindCopy:
		return ErrCopy
	default:
		return ErrQuery
	}
}

// CopySource describes where a bulk copy reads from.
type CopySource struct {
	// URI is the object-storage prefix holding the JSON records.
	URI string

	// CredentialRole is the IAM role ARN the warehouse assumes to read URI.
	CredentialRole string

	// Region is the AWS region of the bucket.
	Region string

	// JSONShape is the JSONPaths document URI, or "auto" to match object
	// keys to column names.
	JSONShape string

	// EpochMillis marks numeric timestamp fields as epoch milliseconds.
	EpochMillis bool
}

// IsAuto reports whether the copy infers the JSON shape from column names.
func (s CopySource) IsAuto() bool {
	return s.JSONShape == "" || s.JSONShape == "auto"
}

// Statement is a typed, fully rendered SQL statement.
type Statement struct {
	Kind   StatementKind
	Action SchemaAction // set for KindDDL statements
	Name   string       // short label, e.g. "create songplays"
	Table  string       // table the statement targets
	SQL    string
	Args   []any

	// Copy is set for KindCopy statements.
	Copy *CopySource

	// Columns lists the target columns of a KindCopy statement in load order.
	Columns []string
}

// Sequence is an ordered list of statements executed by one runner.
type Sequence struct {
	Name       string
	Statements []Statement
}

// TableCount is one line of the analytics report.
type TableCount struct {
	Table string
	Rows  int64
}

// ClusterConfig is the CLUSTER configuration group.
type ClusterConfig struct {
	Host      string
	Database  string
	User      string
	Password  string
	Port      int
	Region    string
	SSLMode   string
	ClusterID string
}

// IAMRoleConfig is the IAM_ROLE configuration group.
type IAMRoleConfig struct {
	ARN string
}

// S3Config is the S3 configuration group.
type S3Config struct {
	LogData     string
	LogJSONPath string
	SongData    string
	Region      string
}

// WarehouseConfig selects dialect and authentication.
type WarehouseConfig struct {
	Dialect        Dialect
	AuthMethod     AuthMethod
	ConnectRetries int
}

// MetricsConfig configures the optional Pushgateway export.
type MetricsConfig struct {
	PushgatewayURL string
	Job            string
}

// Config is the complete, explicit configuration of one process.
// It is read once at start-up and passed to each component.
type Config struct {
	Cluster   ClusterConfig
	IAMRole   IAMRoleConfig
	S3        S3Config
	Warehouse WarehouseConfig
	Metrics   MetricsConfig

	// Source is the file the configuration was read from.
	Source string
}

// Validate checks that every required group and key is present.
// It returns all problems joined, each wrapping ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error

	required := []struct {
		key, value string
	}{
		{"CLUSTER.HOST", c.Cluster.Host},
		{"CLUSTER.DB_NAME", c.Cluster.Database},
		{"CLUSTER.DB_USER", c.Cluster.User},
		{"IAM_ROLE.ARN", c.IAMRole.ARN},
		{"S3.LOG_DATA", c.S3.LogData},
		{"S3.LOG_JSONPATH", c.S3.LogJSONPath},
		{"S3.SONG_DATA", c.S3.SongData},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required: %w", r.key, ErrConfiguration))
		}
	}

	if c.Warehouse.AuthMethod == AuthMethodStandard && c.Cluster.Password == "" {
		errs = append(errs, fmt.Errorf("CLUSTER.DB_PASSWORD is required: %w", ErrConfiguration))
	}
	if c.Warehouse.AuthMethod == AuthMethodRedshiftIAM && c.Cluster.ClusterID == "" {
		errs = append(errs, fmt.Errorf("CLUSTER.CLUSTER_ID is required for redshift-iam auth: %w", ErrConfiguration))
	}
	if c.Cluster.Port == 0 {
		errs = append(errs, fmt.Errorf("CLUSTER.DB_PORT is required: %w", ErrConfiguration))
	} else if c.Cluster.Port < 0 || c.Cluster.Port > 65535 {
		errs = append(errs, fmt.Errorf("CLUSTER.DB_PORT %d is out of range: %w", c.Cluster.Port, ErrConfiguration))
	}
	if !c.Warehouse.Dialect.IsValid() {
		errs = append(errs, fmt.Errorf("unknown dialect %q: %w", c.Warehouse.Dialect, ErrConfiguration))
	}
	if !c.Warehouse.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("invalid auth method %v: %w", c.Warehouse.AuthMethod, ErrConfiguration))
	}
	if c.Warehouse.ConnectRetries < 0 {
		errs = append(errs, fmt.Errorf("WAREHOUSE.CONNECT_RETRIES cannot be negative: %w", ErrConfiguration))
	}

	return errors.Join(errs...)
}

// EventsSource returns the copy source of the event log.
func (c *Config) EventsSource() CopySource {
	return CopySource{
		URI:            c.S3.LogData,
		CredentialRole: c.IAMRole.ARN,
		Region:         c.S3.Region,
		JSONShape:      c.S3.LogJSONPath,
		EpochMillis:    true,
	}
}

// SongsSource returns the copy source of the song metadata.
func (c *Config) SongsSource() CopySource {
	return CopySource{
		URI:            c.S3.SongData,
		CredentialRole: c.IAMRole.ARN,
		Region:         c.S3.Region,
		JSONShape:      "auto",
	}
}

// ConnectionConfig derives the warehouse connection parameters.
func (c *Config) ConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Host:              c.Cluster.Host,
		Port:              c.Cluster.Port,
		Database:          c.Cluster.Database,
		Username:          c.Cluster.User,
		Password:          c.Cluster.Password,
		SSLMode:           c.Cluster.SSLMode,
		AppName:           DefaultAppName,
		AuthMethod:        c.Warehouse.AuthMethod,
		AWSRegion:         c.Cluster.Region,
		ClusterIdentifier: c.Cluster.ClusterID,
		SimpleProtocol:    c.Warehouse.Dialect == DialectRedshift,
		ConnectRetries:    c.Warehouse.ConnectRetries,
		AdditionalParams:  make(map[string]string),
	}
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWS parameters (used by the IAM auth methods)
	AWSRegion         string
	ClusterIdentifier string

	// SimpleProtocol disables prepared statements; Redshift's extended
	// protocol support is partial.
	SimpleProtocol bool

	// ConnectRetries is the number of retries after a transient connect failure.
	ConnectRetries int
}
