package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dgallion1/mdpage/internal/pipeline"
	"github.com/dgallion1/mdpage/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [ROOT]",
		Short: "Export the workspace and re-export whenever a document changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyFlags(cmd, args); err != nil {
				return err
			}
			if a.cfg.Root == "" {
				return pipeline.ErrNoWorkspace
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			exp := a.exporter(a.newStats())
			export := func(ctx context.Context) error {
				run, err := exp.ExportAll(ctx, a.cfg.Root)
				if err != nil {
					return err
				}
				return runError(run)
			}

			// A failed first export still leaves the watcher running so the
			// next edit can fix it; only precondition failures stop here.
			if err := export(ctx); err != nil {
				if errors.Is(err, pipeline.ErrNoWorkspace) {
					return err
				}
				a.log.Warn("initial export incomplete", "error", err)
			}
			return watch.New(a.cfg.Root, a.cfg.WatchDebounce, export, a.log).Run(ctx)
		},
	}
	a.commonFlags(cmd)
	cmd.Flags().IntP("workers", "w", pipeline.DefaultWorkers, "documents exported concurrently")
	cmd.Flags().StringSlice("exclude", nil, "glob of paths to skip (repeatable)")
	return cmd
}
