// Package cli wires the chatmetrics command tree.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chatmetrics/internal/config"
	"chatmetrics/internal/logging"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

// SetVersion records build metadata for the version command.
func SetVersion(v, c, d string) {
	version, commit, buildDate = v, c, d
}

type app struct {
	cfgFile  string
	logLevel string

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "chatmetrics",
		Short: "Behavioral analytics for a local Messages database",
		Long: "chatmetrics reads a local Apple Messages database and " +
			"derives per-conversation and aggregate statistics: volume, " +
			"reply latency, left-on-read counts, streaks, moods, and an " +
			"overall energy score. The report is written as JSON.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a.cfg, err = config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			a.log = logging.New(nil, a.logLevel)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(
		&a.cfgFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().StringVar(
		&a.logLevel, "log-level", "info",
		"log level (trace, debug, info, warn, error, silent)")

	cmd.AddCommand(newGenerateCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
