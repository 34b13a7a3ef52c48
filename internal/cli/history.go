package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cx-tal-miterani/flight-assistant/internal/display"
	"github.com/cx-tal-miterani/flight-assistant/internal/history"
)

type historyOptions struct {
	path  string
	limit int
}

func newHistoryCommand(root *rootOptions) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd, root, opts)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), opts.limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), display.History(entries, time.Now()))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.path, "history-db", "", "history database path (defaults to config)")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "number of sessions to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <session-id>",
		Short: "Show the final state of a past session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd, root, opts)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), args[0])
			if errors.Is(err, history.ErrNotFound) {
				return fmt.Errorf("no session %s in history", args[0])
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, display.State(entry.State))
			fmt.Fprintln(out, display.Outcome(entry.State))
			return nil
		},
	})
	return cmd
}

func openHistory(cmd *cobra.Command, root *rootOptions, opts *historyOptions) (*history.Store, error) {
	cfg, _, err := root.load(cmd)
	if err != nil {
		return nil, err
	}
	path := cfg.History.Path
	if opts.path != "" {
		path = opts.path
	}
	return history.Open(path)
}
