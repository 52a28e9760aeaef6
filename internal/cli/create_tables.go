package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vvka-141/sparkify-dwh/internal/statements"
)

var createTablesCmd = &cobra.Command{
	Use:   "create-tables",
	Short: "Drop and recreate all warehouse tables",
	Long: `Create-tables drops the seven tables if they exist, then creates them empty:

  staging_events, staging_songs    raw copies of the JSON datasets
  songplays                        fact table
  users, songs, artists, time      dimension tables

Examples:
  sparkify create-tables
  sparkify create-tables --config prod.yaml -v
  sparkify create-tables --dry-run`,
	Args: cobra.NoArgs,
	RunE: runCreateTables,
}

func init() {
	rootCmd.AddCommand(createTablesCmd)
}

func runCreateTables(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	env := newRunEnv(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())

	return runSequence(env, cmd.OutOrStdout(), statements.SequenceResetAndCreate, func(ctx context.Context) error {
		return env.pipeline.ResetAndCreate(ctx)
	})
}
