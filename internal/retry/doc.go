// Package retry retries warehouse connection attempts with exponential
// backoff.
//
// Only establishing a connection is ever retried. Statements are executed
// exactly once; a failed COPY or INSERT aborts its sequence.
//
//	executor := retry.NewExecutor(retry.NewConnectClassifier(), retry.NewExponentialBackoff(cfg.ConnectRetries))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    conn, err = pgx.ConnectConfig(ctx, pgxCfg)
//	    return err
//	})
//
// A zero attempt budget makes Execute a single call.
package retry
