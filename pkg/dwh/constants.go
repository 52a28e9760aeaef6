package dwh

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Sequence completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (unknown command, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Missing or malformed configuration
	ExitConnectionError = 11 // Warehouse unreachable or authentication rejected
	ExitSchemaError     = 12 // DDL rejected by the warehouse
	ExitCopyError       = 13 // Bulk copy rejected source data, storage or credentials
	ExitQueryError      = 14 // INSERT or SELECT failed
)

const (
	// DefaultConfigFile is the configuration file read when --config is not given.
	DefaultConfigFile = "dwh.cfg"

	// DefaultRegion is the AWS region of the source bucket and the cluster.
	DefaultRegion = "us-west-2"

	// DefaultAppName is reported to the warehouse as application_name.
	DefaultAppName = "sparkify-dwh"

	// DefaultMetricsJob is the Pushgateway job label.
	DefaultMetricsJob = "sparkify_etl"

	// DefaultIAMCredentialDuration is the lifetime requested for temporary
	// Redshift credentials (GetClusterCredentials accepts 900-3600 seconds).
	DefaultIAMCredentialDuration = 900

	// MaxErrorPreviewLength is the maximum number of SQL characters echoed
	// back in error messages.
	MaxErrorPreviewLength = 200

	// PageNextSong is the page value of a staged event that records a song play.
	PageNextSong = "NextSong"
)
