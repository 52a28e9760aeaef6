package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vvka-141/sparkify-dwh/internal/sources"
	"github.com/vvka-141/sparkify-dwh/internal/statements"
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Load the raw datasets and populate the star schema",
	Long: `Etl copies the event log (S3.LOG_DATA, shaped by S3.LOG_JSONPATH) into
staging_events and the song metadata (S3.SONG_DATA) into staging_songs,
then fills songplays, users, songs, artists and time from staging.

Loads append. Run create-tables first; running etl twice without it
duplicates rows.

With WAREHOUSE.DIALECT = postgres the copies are performed by this
process, reading S3 or local directories, instead of by Redshift.

Examples:
  sparkify etl
  sparkify etl --preflight
  sparkify etl --timeout 1h -v`,
	Args: cobra.NoArgs,
	RunE: runETL,
}

var etlPreflight bool

func init() {
	rootCmd.AddCommand(etlCmd)

	etlCmd.Flags().BoolVar(&etlPreflight, "preflight", false,
		"Check that the source prefixes hold JSON files and the JSONPaths\n"+
			"document exists before connecting to the warehouse")
}

func runETL(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	env := newRunEnv(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())

	return runSequence(env, cmd.OutOrStdout(), statements.SequenceLoadAndTransform, func(ctx context.Context) error {
		if etlPreflight {
			store, err := sources.ForLocation(ctx, cfg.S3.LogData, cfg.S3.Region)
			if err != nil {
				return err
			}
			if _, err := env.pipeline.Preflight(ctx, store); err != nil {
				return err
			}
		}
		return env.pipeline.LoadAndTransform(ctx)
	})
}
