package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vvka-141/sparkify-dwh/internal/statements"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print the row count of every table",
	Long: `Analyze runs SELECT COUNT(*) against staging_events, staging_songs,
songplays, users, songs, artists and time, printing each query and its
result, followed by a summary table. It never modifies data.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	env := newRunEnv(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())

	return runSequence(env, cmd.OutOrStdout(), statements.SequenceAnalyze, func(ctx context.Context) error {
		_, err := env.pipeline.Analyze(ctx)
		return err
	})
}
