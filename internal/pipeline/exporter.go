package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/mdpage/internal/doctree"
	"github.com/dgallion1/mdpage/internal/navtree"
	"github.com/dgallion1/mdpage/internal/notify"
	"github.com/dgallion1/mdpage/internal/page"
)

// DefaultWorkers bounds concurrent document exports.
const DefaultWorkers = 4

// Options configure an Exporter.
type Options struct {
	Root          string // default workspace root
	OutDir        string // write pages here instead of beside their sources
	Workers       int
	Exclude       []string
	FolderAliases map[string]string
}

// Exporter writes HTML pages for single documents and whole workspaces.
type Exporter struct {
	worker *Worker
	notify notify.Notifier
	log    *slog.Logger
	opts   Options
}

// NewExporter creates an exporter. A nil notifier discards notifications.
func NewExporter(b *page.Builder, n notify.Notifier, stats *Stats, opts Options, log *slog.Logger) *Exporter {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if n == nil {
		n = notify.Multi{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{
		worker: NewWorker(b, stats, log),
		notify: n,
		log:    log,
		opts:   opts,
	}
}

// ExportFile exports one document. Precondition failures (missing file,
// unsupported type) are returned before anything is written.
func (e *Exporter) ExportFile(ctx context.Context, file string) (DocResult, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return DocResult{}, fmt.Errorf("%w: %s: %w", ErrNoDocument, file, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		e.notify.Error("Export failed", fmt.Sprintf("cannot open %s", file))
		return DocResult{}, fmt.Errorf("%w: %s: %w", ErrNoDocument, file, err)
	}
	if info.IsDir() {
		e.notify.Error("Export failed", fmt.Sprintf("%s is a directory", file))
		return DocResult{}, fmt.Errorf("%w: %s is a directory", ErrNoDocument, file)
	}
	if !IsSupported(abs) {
		e.notify.Error("Export failed", fmt.Sprintf("%s is not a markdown document", file))
		return DocResult{}, fmt.Errorf("%w: %s", ErrUnsupported, file)
	}

	root := e.rootFor(abs)
	base := root
	if base == "" {
		base = filepath.Dir(abs)
	}
	rel, _ := filepath.Rel(base, abs)

	res := e.worker.Process(ctx, job{
		src:  abs,
		rel:  filepath.ToSlash(rel),
		root: root,
		out:  page.OutputPath(abs, e.opts.OutDir, base),
	})
	e.report(res)
	if res.Status != DocExported {
		return res, fmt.Errorf("export %s: %s", file, res.Error)
	}
	e.notify.Success("Exported "+res.Title, res.Output)
	return res, nil
}

// rootFor returns the configured workspace root when it contains abs.
func (e *Exporter) rootFor(abs string) string {
	if e.opts.Root == "" {
		return ""
	}
	root, err := filepath.Abs(e.opts.Root)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return root
}

// Plan is the discovered work of a workspace export.
type Plan struct {
	Root string
	Docs []string      // sorted, slash-separated, relative to Root
	Nav  *navtree.Tree // shared read-only by every document
}

// Plan discovers the documents under root (the configured root when empty)
// and builds the navigation tree.
func (e *Exporter) Plan(root string) (*Plan, error) {
	if root == "" {
		root = e.opts.Root
	}
	if root == "" {
		return nil, ErrNoWorkspace
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoWorkspace, root, err)
	}
	docs, err := Discover(abs, e.opts.Exclude)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoDocuments, abs)
	}
	return &Plan{
		Root: abs,
		Docs: docs,
		Nav:  navtree.Build(docs, titleFunc(abs), e.opts.FolderAliases),
	}, nil
}

func titleFunc(root string) navtree.TitleFunc {
	return func(rel string) string {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return path.Base(rel)
		}
		return doctree.Title(string(data))
	}
}

// Execute exports every document of plan into run, at most Workers at a
// time. A failing document never stops the others. Documents not started
// before ctx is cancelled are recorded as skipped.
func (e *Exporter) Execute(ctx context.Context, plan *Plan, run *Run) {
	run.SetTotal(len(plan.Docs))
	run.SetStatus(StatusRunning)
	log := e.log.With("run_id", run.ID, "root", plan.Root)
	log.Info("export started", "documents", len(plan.Docs), "workers", e.opts.Workers)
	start := time.Now()

	sem := make(chan struct{}, e.opts.Workers)
	var wg sync.WaitGroup
	for _, rel := range plan.Docs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			run.Record(DocResult{Path: rel, Status: DocSkipped, Error: ctx.Err().Error()})
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			res := e.worker.Process(ctx, e.planJob(plan, rel))
			run.Record(res)
			e.report(res)
		}()
	}
	wg.Wait()

	status := run.Finish()
	snap := run.Snapshot()
	log.Info("export finished",
		"status", status,
		"exported", snap.Progress.Exported,
		"failed", snap.Progress.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	summary := fmt.Sprintf("%d of %d documents exported", snap.Progress.Exported, snap.Progress.Total)
	switch status {
	case StatusCompleted:
		e.notify.Success("Export complete", summary)
	case StatusPartial:
		e.notify.Warn("Export incomplete", summary)
	default:
		e.notify.Error("Export failed", summary)
	}
}

func (e *Exporter) planJob(plan *Plan, rel string) job {
	src := filepath.Join(plan.Root, filepath.FromSlash(rel))
	return job{
		src:  src,
		rel:  rel,
		root: plan.Root,
		out:  page.OutputPath(src, e.opts.OutDir, plan.Root),
		nav:  navtree.Render(plan.Nav, rel),
	}
}

// ExportAll plans and executes a workspace export, returning the finished
// run.
func (e *Exporter) ExportAll(ctx context.Context, root string) (*Run, error) {
	plan, err := e.Plan(root)
	if err != nil {
		e.notify.Error("Export failed", err.Error())
		return nil, err
	}
	run := NewRun(plan.Root, e.opts.OutDir)
	e.Execute(ctx, plan, run)
	return run, nil
}

// report surfaces a document's warnings and failure.
func (e *Exporter) report(res DocResult) {
	title := res.Title
	if title == "" {
		title = res.Path
	}
	for _, w := range res.Warnings {
		e.notify.Warn(title, w)
	}
	if res.Status == DocFailed {
		e.notify.Error(res.Path, res.Error)
	}
}
