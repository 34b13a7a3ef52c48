package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cx-tal-miterani/flight-assistant/internal/app"
	"github.com/cx-tal-miterani/flight-assistant/internal/display"
	"github.com/cx-tal-miterani/flight-assistant/internal/history"
	"github.com/cx-tal-miterani/flight-assistant/internal/invitations"
	"github.com/cx-tal-miterani/flight-assistant/internal/observability"
	"github.com/cx-tal-miterani/flight-assistant/internal/pipeline"
)

type searchOptions struct {
	email     string
	historyDB string
	noHistory bool
	stats     bool
}

func newSearchCommand(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Start an interactive flight search",
		Long: `Start an interactive session. Enter your preferences, review the shortlist, then book a flight or refine.

With --email, invitations in your mailbox are shown and the booking is stored in the database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "signed-in user email")
	cmd.Flags().StringVar(&opts.historyDB, "history-db", "", "history database path (defaults to config)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the session")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print pipeline metrics when the session ends")
	return cmd
}

func runSearch(cmd *cobra.Command, root *rootOptions, opts *searchOptions) error {
	cfg, logger, err := root.load(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	adapters := app.NewAdapters(cfg, logger)
	defer adapters.Close()

	providers := observability.NewProviders(logger)
	defer providers.Shutdown(ctx)
	metrics, err := observability.NewMetricsRecorder(providers.Meter)
	if err != nil {
		return err
	}

	orchOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
		pipeline.WithSpans(observability.NewSpanManager(providers.Tracer)),
	}
	if opts.email != "" {
		pool, repo, err := app.OpenDatabase(ctx, cfg.Database.URL)
		if err != nil {
			logger.Warn("Database unavailable, skipping invitations and keeping bookings local", "error", err)
		} else {
			defer pool.Close()
			orchOpts = append(orchOpts,
				pipeline.WithBooker(repo),
				pipeline.WithInvitations(invitations.NewScanner(adapters.Oracle, repo, logger)),
			)
		}
	}

	orch := pipeline.NewOrchestrator(adapters.Searcher, adapters.Calendar, adapters.Ranker, orchOpts...)
	sessionID := uuid.New().String()[:8]
	state, err := orch.Run(ctx, sessionID, opts.email, newPromptUI(ctx, cmd.InOrStdin(), out))
	if err != nil {
		return fmt.Errorf("session %s failed: %w", sessionID, err)
	}
	fmt.Fprintln(out, display.Outcome(state))

	if !opts.noHistory {
		path := cfg.History.Path
		if opts.historyDB != "" {
			path = opts.historyDB
		}
		store, err := history.Open(path)
		if err != nil {
			logger.Warn("History unavailable", "error", err)
		} else {
			if err := store.Save(ctx, state); err != nil {
				logger.Warn("Failed to record session", "error", err)
			}
			store.Close()
		}
	}

	if opts.stats {
		series, err := providers.Snapshot(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, display.Metrics(series))
	}
	return nil
}
