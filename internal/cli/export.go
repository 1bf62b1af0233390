package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/mdpage/internal/pipeline"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export one markdown document",
		Long: `Export one markdown document as an HTML page next to it, or under --out.
The page has no navigation menu.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyFlags(cmd, nil); err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			_, err := a.exporter(a.newStats()).ExportFile(ctx, args[0])
			return err
		},
	}
	a.commonFlags(cmd)
	return cmd
}

func newExportAllCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-all [ROOT]",
		Short: "Export every markdown document under a workspace root",
		Long: `Export every markdown document under ROOT (or the configured root), each
page carrying a navigation menu of the whole workspace.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyFlags(cmd, args); err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			run, err := a.exporter(a.newStats()).ExportAll(ctx, a.cfg.Root)
			if err != nil {
				return err
			}
			return runError(run)
		},
	}
	a.commonFlags(cmd)
	cmd.Flags().IntP("workers", "w", pipeline.DefaultWorkers, "documents exported concurrently")
	cmd.Flags().StringSlice("exclude", nil, "glob of paths to skip (repeatable)")
	return cmd
}

// runError reports an incomplete run as an error so the exit status is
// non-zero.
func runError(run *pipeline.Run) error {
	snap := run.Snapshot()
	if snap.Status == pipeline.StatusCompleted {
		return nil
	}
	return fmt.Errorf("export %s: %d of %d documents exported", snap.Status, snap.Progress.Exported, snap.Progress.Total)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
