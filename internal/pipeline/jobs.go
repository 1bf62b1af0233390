package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the state of an export run.
type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusPartial   RunStatus = "partial"
	StatusFailed    RunStatus = "failed"
)

// DocStatus is the outcome of one document in a run.
type DocStatus string

const (
	DocExported DocStatus = "exported"
	DocFailed   DocStatus = "failed"
	DocSkipped  DocStatus = "skipped"
)

// DocResult reports one document's export.
type DocResult struct {
	Path       string    `json:"path"`
	Output     string    `json:"output,omitempty"`
	Title      string    `json:"title,omitempty"`
	Status     DocStatus `json:"status"`
	Warnings   []string  `json:"warnings,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// Run tracks one workspace export.
type Run struct {
	mu sync.Mutex

	ID     string
	Root   string
	OutDir string

	Status    RunStatus
	Total     int
	CreatedAt time.Time
	UpdatedAt time.Time

	docs   []DocResult
	errors []string
}

// NewRun returns a queued run with a fresh id.
func NewRun(root, outDir string) *Run {
	now := time.Now()
	return &Run{
		ID:        uuid.NewString(),
		Root:      root,
		OutDir:    outDir,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.UpdatedAt = time.Now()
}

// SetTotal records how many documents the run covers.
func (r *Run) SetTotal(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Total = n
	r.UpdatedAt = time.Now()
}

// Record adds a document result.
func (r *Run) Record(res DocResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, res)
	r.UpdatedAt = time.Now()
}

// AddError records a run-level error.
func (r *Run) AddError(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	r.UpdatedAt = time.Now()
}

// Finish derives the final status from the recorded documents: completed
// when all exported, failed when none did, partial otherwise.
func (r *Run) Finish() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	exported := 0
	for _, d := range r.docs {
		if d.Status == DocExported {
			exported++
		}
	}
	switch {
	case exported == r.Total && len(r.errors) == 0:
		r.Status = StatusCompleted
	case exported == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}
	r.UpdatedAt = time.Now()
	return r.Status
}

// Progress summarizes a run's documents.
type Progress struct {
	Total    int `json:"total"`
	Done     int `json:"done"`
	Exported int `json:"exported"`
	Failed   int `json:"failed"`
	Warnings int `json:"warnings"`
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID        string      `json:"run_id"`
	Root      string      `json:"root"`
	OutDir    string      `json:"out_dir,omitempty"`
	Status    RunStatus   `json:"status"`
	Progress  Progress    `json:"progress"`
	Documents []DocResult `json:"documents"`
	Errors    []string    `json:"errors"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := Progress{Total: r.Total, Done: len(r.docs)}
	docs := make([]DocResult, len(r.docs))
	for i, d := range r.docs {
		docs[i] = d
		switch d.Status {
		case DocExported:
			p.Exported++
		case DocFailed:
			p.Failed++
		}
		p.Warnings += len(d.Warnings)
	}
	errs := make([]string, len(r.errors))
	copy(errs, r.errors)

	return RunSnapshot{
		ID:        r.ID,
		Root:      r.Root,
		OutDir:    r.OutDir,
		Status:    r.Status,
		Progress:  p,
		Documents: docs,
		Errors:    errs,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *Run) updatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.UpdatedAt
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Len returns the number of stored runs.
func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Cleanup removes runs idle for longer than the TTL.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		if now.Sub(run.updatedAt()) > s.ttl {
			delete(s.runs, id)
		}
	}
}
