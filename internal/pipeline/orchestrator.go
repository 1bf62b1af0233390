package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type queued struct {
	plan *Plan
	run  *Run
}

// Orchestrator runs workspace exports in the background for the API and
// the watcher. Runs are executed one at a time in submission order.
type Orchestrator struct {
	exp   *Exporter
	runs  *RunStore
	queue chan queued
	log   *slog.Logger

	cleanupEvery time.Duration

	mu      sync.Mutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates an orchestrator holding at most queueSize pending
// runs. Finished runs are forgotten after ttl.
func NewOrchestrator(exp *Exporter, queueSize int, ttl time.Duration, log *slog.Logger) *Orchestrator {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Orchestrator{
		exp:          exp,
		runs:         NewRunStore(ttl),
		queue:        make(chan queued, queueSize),
		log:          log,
		cleanupEvery: 5 * time.Minute,
	}
}

// Start launches the run loop and the run store cleanup.
func (o *Orchestrator) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case q, ok := <-o.queue:
				if !ok {
					return
				}
				o.exp.Execute(runCtx, q.plan, q.run)
			}
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()
}

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("orchestrator stopped")

// Stop cancels in-flight work and waits for the loops to exit.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.mu.Unlock()
	o.wg.Wait()
}

// Submit plans an export of root and queues it. Precondition failures are
// returned synchronously and nothing is queued.
func (o *Orchestrator) Submit(root string) (*Run, error) {
	plan, err := o.exp.Plan(root)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil, ErrStopped
	}
	run := NewRun(plan.Root, o.exp.opts.OutDir)
	run.SetTotal(len(plan.Docs))
	o.runs.Put(run)
	select {
	case o.queue <- queued{plan: plan, run: run}:
		o.log.Info("export queued", "run_id", run.ID, "root", plan.Root, "documents", len(plan.Docs))
		return run, nil
	default:
		run.AddError("queue full")
		run.SetStatus(StatusFailed)
		return run, fmt.Errorf("export queue is full (%d)", cap(o.queue))
	}
}

// GetRun returns a run by id.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// QueueDepth returns the number of runs waiting to start.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
