package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/mdpage/internal/api"
	"github.com/dgallion1/mdpage/internal/pipeline"
	"github.com/dgallion1/mdpage/internal/watch"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [ROOT]",
		Short: "Serve exported pages and the export API",
		Long: `Export the workspace, then serve its pages over HTTP together with an API
to start exports and poll their progress. With --watch, changed documents
queue a new export.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyFlags(cmd, args); err != nil {
				return err
			}
			watchFlag, _ := cmd.Flags().GetBool("watch")
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.serve(ctx, watchFlag)
		},
	}
	a.commonFlags(cmd)
	cmd.Flags().StringP("port", "p", "", "listen port")
	cmd.Flags().IntP("workers", "w", pipeline.DefaultWorkers, "documents exported concurrently")
	cmd.Flags().StringSlice("exclude", nil, "glob of paths to skip (repeatable)")
	cmd.Flags().Bool("watch", false, "re-export when documents change")
	return cmd
}

func (a *app) serve(ctx context.Context, watchTree bool) error {
	log := a.log
	stats := a.newStats()
	exp := a.exporter(stats)

	orch := pipeline.NewOrchestrator(exp, a.cfg.MaxQueueSize, a.cfg.RunTTL, log)
	orch.Start(ctx)
	defer orch.Stop()

	if a.cfg.Root != "" {
		if _, err := orch.Submit(a.cfg.Root); err != nil {
			return err
		}
	}

	if watchTree && a.cfg.Root != "" {
		w := watch.New(a.cfg.Root, a.cfg.WatchDebounce, func(context.Context) error {
			_, err := orch.Submit(a.cfg.Root)
			return err
		}, log)
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("watcher stopped", "error", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      api.NewServer(orch, stats, log, a.cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting mdpage server", "port", a.cfg.Port, "root", a.cfg.Root)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
