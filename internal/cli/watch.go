package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chatmetrics/internal/logging"
	"chatmetrics/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the report whenever the database changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.merge(&a.cfg)
			ctx := cmd.Context()

			// Initial report before waiting for changes.
			if err := generate(ctx, a); err != nil {
				return err
			}

			wlog := logging.Sub(a.log, "watch")
			w, err := watch.New(
				a.cfg.DBPath, a.cfg.WatchDebounce.Std(), wlog,
				func() {
					if err := generate(ctx, a); err != nil {
						wlog.Error().Err(err).
							Msg("regenerate failed")
					}
				},
			)
			if err != nil {
				return err
			}
			w.Start()
			defer w.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sig:
			case <-ctx.Done():
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
