// Package commands implements the gitstats CLI.
package commands

import (
	"github.com/benvon/portfolio-api/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	verbose bool
	logger  *zap.Logger
}

// NewRootCmd creates the gitstats root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:           "gitstats",
		Short:         "Inspect portfolio contribution statistics",
		Long:          "Run contribution aggregations, inspect the calendar skeleton and validate the private contributions document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.NewCLILogger(opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync(opts.logger)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log provider calls to stderr")

	cmd.AddCommand(newAggregateCmd(opts))
	cmd.AddCommand(newSkeletonCmd())
	cmd.AddCommand(newPrivateCmd())

	return cmd
}
