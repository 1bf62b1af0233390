package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/mdpage/internal/page"
)

// job is one document of an export.
type job struct {
	src  string // source file
	rel  string // slash path relative to the export root
	root string // workspace root, empty for a lone document
	out  string // destination page
	nav  string // rendered navigation menu
}

// Worker converts and writes a single document.
type Worker struct {
	builder *page.Builder
	stats   *Stats
	log     *slog.Logger
}

func NewWorker(b *page.Builder, stats *Stats, log *slog.Logger) *Worker {
	return &Worker{builder: b, stats: stats, log: log}
}

// Process runs the full export for a job. Failures are reported in the
// result, never returned or panicked past the caller.
func (w *Worker) Process(ctx context.Context, j job) (res DocResult) {
	start := time.Now()
	log := w.log.With("doc", j.rel)
	res = DocResult{Path: j.rel, Output: j.out}

	defer func() {
		if r := recover(); r != nil {
			log.Error("export panicked", "panic", r)
			res.Status = DocFailed
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		res.DurationMs = time.Since(start).Milliseconds()
	}()

	fail := func(stage string, err error) DocResult {
		log.Error("export failed", "stage", stage, "error", err)
		res.Status = DocFailed
		res.Error = fmt.Sprintf("%s: %s", stage, err)
		return res
	}

	if err := ctx.Err(); err != nil {
		res.Status = DocSkipped
		res.Error = err.Error()
		return res
	}

	data, err := os.ReadFile(j.src)
	if err != nil {
		return fail("read", err)
	}

	built, err := w.builder.Build(ctx, page.Doc{Path: j.src, Root: j.root, Text: string(data), Nav: j.nav})
	if err != nil {
		return fail("build", err)
	}
	res.Title = built.Title
	for _, wn := range built.Warnings {
		log.Warn("export warning", "kind", wn.Kind, "message", wn.Message)
		res.Warnings = append(res.Warnings, wn.Message)
	}

	if err := writeFile(j.out, built.HTML); err != nil {
		return fail("write", err)
	}

	elapsed := time.Since(start)
	if w.stats != nil {
		w.stats.Record(elapsed, len(built.HTML))
	}
	log.Info("page exported", "out", j.out, "title", built.Title, "duration_ms", elapsed.Milliseconds())
	res.Status = DocExported
	return res
}

// writeFile replaces path with data through a temporary file in the same
// directory, so readers never see a partial page.
func writeFile(path, data string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".mdpage-*.html")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
