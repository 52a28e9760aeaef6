package testing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/sparkify-dwh/internal/db"
	"github.com/vvka-141/sparkify-dwh/internal/logging"
	"github.com/vvka-141/sparkify-dwh/internal/metrics"
	"github.com/vvka-141/sparkify-dwh/internal/services"
	"github.com/vvka-141/sparkify-dwh/internal/sources"
	"github.com/vvka-141/sparkify-dwh/internal/staging"
	"github.com/vvka-141/sparkify-dwh/internal/testinfra"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// TestRoleARN is the credential role written into test configurations.
// The postgres dialect validates it but never assumes it.
const TestRoleARN = "arn:aws:iam::123456789012:role/dwhRole"

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := testinfra.StartWarehouse(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: SPARKIFY_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("SPARKIFY_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("SPARKIFY_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the test connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// CreateTestDB creates a uniquely named database and drops it when the
// test finishes. Returns the database name.
func CreateTestDB(t *testing.T, connString string) string {
	t.Helper()

	ctx := context.Background()
	dbName := "sparkify_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect for test DB creation: %v", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}
	t.Logf("Created test database %s", dbName)

	t.Cleanup(func() { CleanupTestDB(t, connString, dbName) })
	return dbName
}

// CleanupTestDB drops the test database.
// Safe to call multiple times (uses DROP DATABASE IF EXISTS).
func CleanupTestDB(t *testing.T, connString, dbName string) {
	t.Helper()

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize()+" WITH (FORCE)"); err != nil {
		t.Logf("Warning: Failed to drop test database %s: %v", dbName, err)
	}
}

// NewTestConfig builds a postgres-dialect configuration for database dbName
// on the server behind connString, reading source data from dataDir
// (log_data/, song_data/ and log_json_path.json).
func NewTestConfig(t *testing.T, connString, dbName, dataDir string) *dwh.Config {
	t.Helper()

	parsed, err := pgconn.ParseConfig(connString)
	if err != nil {
		t.Fatalf("Failed to parse test connection string: %v", err)
	}
	sslMode := "prefer"
	if parsed.TLSConfig == nil {
		sslMode = "disable"
	}

	return &dwh.Config{
		Cluster: dwh.ClusterConfig{
			Host:     parsed.Host,
			Database: dbName,
			User:     parsed.User,
			Password: parsed.Password,
			Port:     int(parsed.Port),
			Region:   dwh.DefaultRegion,
			SSLMode:  sslMode,
		},
		IAMRole: dwh.IAMRoleConfig{ARN: TestRoleARN},
		S3: dwh.S3Config{
			LogData:     filepath.Join(dataDir, "log_data"),
			LogJSONPath: filepath.Join(dataDir, "log_json_path.json"),
			SongData:    filepath.Join(dataDir, "song_data"),
			Region:      dwh.DefaultRegion,
		},
		Warehouse: dwh.WarehouseConfig{
			Dialect:    dwh.DialectPostgres,
			AuthMethod: dwh.AuthMethodStandard,
		},
		Metrics: dwh.MetricsConfig{Job: dwh.DefaultMetricsJob},
	}
}

// NewTestPipeline wires a Pipeline the way the CLI does, with a null logger
// and recorder. Analytics output goes to out.
func NewTestPipeline(t *testing.T, cfg *dwh.Config, out io.Writer) *services.Pipeline {
	t.Helper()

	logger := logging.NewNullLogger()
	sessions := services.NewSessionManager(db.NewConnector, cfg.ConnectionConfig(), uuid.New(), logger)
	copier := staging.NewLoader(sources.ForLocation, logger)

	return services.NewPipeline(cfg, sessions, copier, metrics.NewNullRecorder(), logger, out)
}

// CountRows returns the row count of table in the database cfg points at.
func CountRows(t *testing.T, cfg *dwh.Config, table string) int64 {
	t.Helper()
	return QueryInt(t, cfg, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize())
}

// QueryInt runs a scalar integer query against the database cfg points at.
func QueryInt(t *testing.T, cfg *dwh.Config, sql string) int64 {
	t.Helper()

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, db.BuildConnectionString(cfg.ConnectionConfig()))
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close(ctx)

	var n int64
	if err := conn.QueryRow(ctx, sql).Scan(&n); err != nil {
		t.Fatalf("Query %q failed: %v", sql, err)
	}
	return n
}

// TableExists reports whether a table exists in the public schema.
func TableExists(t *testing.T, cfg *dwh.Config, table string) bool {
	t.Helper()
	n := QueryInt(t, cfg, fmt.Sprintf(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = '%s'", table))
	return n > 0
}
