// Package cli implements the assistant command line.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cx-tal-miterani/flight-assistant/internal/config"
	"github.com/cx-tal-miterani/flight-assistant/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand builds the assistant command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Conversational flight search",
		Long:          `Assistant searches flights for your trip, drops the ones that clash with your calendar, ranks the rest and books the one you pick.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(newSearchCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	return cmd
}

// load reads the configuration and builds a logger writing to stderr
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	return cfg, logging.New(level, cfg.Log.Format, cmd.ErrOrStderr()), nil
}
