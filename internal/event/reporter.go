package event

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	catalogsync "github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/sync"
	pkgkafka "github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/kafka"
)

// SyncFailuresTopic is the logical source topic recorded on dead-lettered
// sync tasks. The DLQ producer prefixes it, so failed tasks land on
// "catalog.dlq.catalog.index.sync".
const SyncFailuresTopic = "catalog.index.sync"

// DLQFailureReporter dead-letters sync tasks that exhausted their retries or
// hit a terminal error, so operators can inspect and replay them. Each task
// is also logged; the log line is the fallback when the DLQ itself is down.
type DLQFailureReporter struct {
	dlq    *pkgkafka.DLQProducer
	group  string
	logger *slog.Logger
}

// NewDLQFailureReporter creates a reporter publishing through the given DLQ
// producer, tagged with the consumer group that gave up on the task.
func NewDLQFailureReporter(dlq *pkgkafka.DLQProducer, group string, logger *slog.Logger) *DLQFailureReporter {
	return &DLQFailureReporter{
		dlq:    dlq,
		group:  group,
		logger: logger,
	}
}

func (r *DLQFailureReporter) ReportFailure(ctx context.Context, task catalogsync.Task, lastErr error) {
	r.logger.ErrorContext(ctx, "sync task failed permanently",
		slog.String("product_id", task.ProductID.String()),
		slog.String("action", task.Action),
		slog.Int("attempts", task.Attempt),
		slog.String("error", lastErr.Error()),
	)

	payload, err := json.Marshal(task)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to marshal sync task for DLQ",
			slog.String("product_id", task.ProductID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	msg := kafka.Message{
		Topic: SyncFailuresTopic,
		Key:   []byte(task.ProductID.String()),
		Value: payload,
	}
	if err := r.dlq.Publish(ctx, msg, lastErr, r.group); err != nil {
		r.logger.ErrorContext(ctx, "failed to dead-letter sync task",
			slog.String("product_id", task.ProductID.String()),
			slog.String("error", err.Error()),
		)
	}
}
