package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

var rootCmd = &cobra.Command{
	Use:   "sparkify",
	Short: "Load the Sparkify song-play logs into a Redshift star schema",
	Long: `sparkify builds and fills the Sparkify analytics warehouse.

Three independent commands, each running on its own connection:

  create-tables   drop and recreate the staging and star-schema tables
  etl             copy the raw JSON from S3 into staging, then populate
                  songplays, users, songs, artists and time
  analyze         print the row count of every table

Every statement is committed as soon as it completes. A failure stops the
command; statements that already ran stay committed.

Configuration is read from dwh.cfg (INI) or a YAML file given with --config.
Any key can be overridden from the environment as DWH_<SECTION>_<KEY>,
for example DWH_CLUSTER_DB_PASSWORD. A .env file in the working directory
is loaded first.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Missing or malformed configuration
  11 - Warehouse connection failed
  12 - Table drop or create rejected
  13 - Bulk copy failed
  14 - Insert or query failed`,
	SilenceUsage: true,
}

type rootFlagValues struct {
	configPath string
	verbose    bool
	timeout    time.Duration
	dryRun     bool
}

var rootFlags rootFlagValues

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}

	err := rootCmd.Execute()
	var stmtErr *dwh.StatementError
	if errors.As(err, &stmtErr) {
		fmt.Fprintf(os.Stderr, "Statement: %s\n", stmtErr.Preview())
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", dwh.DefaultConfigFile,
		"Configuration file (.cfg/.ini as INI, .yaml/.yml as YAML)")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false,
		"Enable verbose output for all commands")
	rootCmd.PersistentFlags().DurationVar(&rootFlags.timeout, "timeout", 0,
		"Abort the command after this long (default 0, no limit)\n"+
			"Examples: 30m, 1h30m")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.dryRun, "dry-run", false,
		"Print the statements the command would execute without connecting")
}
