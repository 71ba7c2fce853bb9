package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/index"
)

// maxAttempts is the total number of tries per task, including the first.
const maxAttempts = 3

// defaultBackoff is the wait schedule between attempts.
var defaultBackoff = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

var (
	tasksApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_tasks_applied_total",
			Help: "Total number of successfully applied sync tasks",
		},
		[]string{"action"},
	)

	tasksRetried = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_tasks_retried_total",
			Help: "Total number of sync task retry attempts",
		},
		[]string{"action"},
	)

	tasksFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_tasks_failed_total",
			Help: "Total number of sync tasks that exhausted their retry budget",
		},
		[]string{"action"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_task_duration_seconds",
			Help:    "Duration of sync task application in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
)

// FailureReporter receives tasks whose retry budget is exhausted. The worker
// never retries such tasks again; recovery is an operator concern.
type FailureReporter interface {
	ReportFailure(ctx context.Context, task Task, lastErr error)
}

// Worker applies sync tasks to the search index. Each task moves through
// pending, applying, and then done, retrying, or failed. Transient failures
// are retried with the backoff schedule; terminal failures and exhausted
// budgets are reported and dropped.
//
// Workers hold no shared mutable state, so many can run in parallel. Tasks
// carry full snapshots and apply as idempotent upserts, so concurrent tasks
// for the same product converge regardless of completion order.
type Worker struct {
	engine   index.Engine
	reporter FailureReporter
	logger   *slog.Logger
	backoff  []time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewWorker creates a sync worker backed by the given index engine.
func NewWorker(engine index.Engine, reporter FailureReporter, logger *slog.Logger) *Worker {
	return &Worker{
		engine:   engine,
		reporter: reporter,
		logger:   logger,
		backoff:  defaultBackoff,
		sleep:    sleepContext,
	}
}

// WithBackoff overrides the retry wait schedule. Used by tests to avoid
// real sleeps.
func (w *Worker) WithBackoff(schedule []time.Duration) *Worker {
	w.backoff = schedule
	return w
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Process runs one task to a terminal state. It returns nil when the task is
// done or has been reported as permanently failed; an error is returned only
// when the context is canceled mid-task, so the queue can redeliver.
func (w *Worker) Process(ctx context.Context, task Task) error {
	// The index is created lazily before the first operation. A failure
	// here counts against the task's retry budget like any other
	// transient error.
	var lastErr error

	for task.Attempt = 1; task.Attempt <= maxAttempts; task.Attempt++ {
		start := time.Now()
		err := w.apply(ctx, task)
		taskDuration.WithLabelValues(task.Action).Observe(time.Since(start).Seconds())

		if err == nil {
			tasksApplied.WithLabelValues(task.Action).Inc()
			w.logger.InfoContext(ctx, "sync task applied",
				slog.String("product_id", task.ProductID.String()),
				slog.String("action", task.Action),
				slog.Int("attempt", task.Attempt),
			)
			return nil
		}
		lastErr = err

		if !index.IsTransient(err) {
			// Terminal: retrying cannot help.
			break
		}

		w.logger.WarnContext(ctx, "sync task attempt failed",
			slog.String("product_id", task.ProductID.String()),
			slog.String("action", task.Action),
			slog.Int("attempt", task.Attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.String("error", err.Error()),
		)

		if task.Attempt < maxAttempts {
			tasksRetried.WithLabelValues(task.Action).Inc()
			wait := w.backoff[min(task.Attempt-1, len(w.backoff)-1)]
			if err := w.sleep(ctx, wait); err != nil {
				return fmt.Errorf("sync task interrupted: %w", err)
			}
		}
	}

	if task.Attempt > maxAttempts {
		task.Attempt = maxAttempts
	}
	tasksFailed.WithLabelValues(task.Action).Inc()
	w.reporter.ReportFailure(ctx, task, lastErr)
	return nil
}

// apply issues the task's index operation, ensuring the index exists first.
func (w *Worker) apply(ctx context.Context, task Task) error {
	if err := w.engine.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}

	switch task.Action {
	case ActionIndex, ActionUpdate:
		if task.Snapshot == nil {
			return fmt.Errorf("%s task for product %s has no snapshot", task.Action, task.ProductID)
		}
		return w.engine.Upsert(ctx, *task.Snapshot)
	case ActionDelete:
		return w.engine.Remove(ctx, task.ProductID)
	default:
		return fmt.Errorf("unknown sync action %q", task.Action)
	}
}
