package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
	catalogsync "github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/sync"
	pkgkafka "github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/kafka"
)

// TaskProcessor runs one sync task to a terminal state. Implemented by
// sync.Worker.
type TaskProcessor interface {
	Process(ctx context.Context, task catalogsync.Task) error
}

// Consumer translates product domain events into index sync tasks and hands
// them to the worker. Created and restored events map to index tasks,
// updated to update tasks, and deleted to delete tasks.
type Consumer struct {
	worker TaskProcessor
	logger *slog.Logger
}

// NewConsumer creates a new event consumer for index propagation.
func NewConsumer(worker TaskProcessor, logger *slog.Logger) *Consumer {
	return &Consumer{
		worker: worker,
		logger: logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductRestored:
		return c.handleSnapshot(ctx, event, catalogsync.ActionIndex)
	case TopicProductUpdated:
		return c.handleSnapshot(ctx, event, catalogsync.ActionUpdate)
	case TopicProductDeleted:
		return c.handleDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleSnapshot builds an upsert task from a full-snapshot event.
func (c *Consumer) handleSnapshot(ctx context.Context, event *pkgkafka.Event, action string) error {
	var data ProductSnapshotData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	id, err := uuid.Parse(data.ID)
	if err != nil {
		return fmt.Errorf("parse product id from %s event: %w", event.EventType, err)
	}

	doc := domain.ProductDocument{
		ID:          id,
		SKU:         data.SKU,
		Name:        data.Name,
		Description: data.Description,
		Price:       data.Price,
		Category:    data.Category,
		Status:      data.Status,
		ImageURL:    data.ImageURL,
		CreatedAt:   parseEventTime(data.CreatedAt),
		UpdatedAt:   parseEventTime(data.UpdatedAt),
	}

	task := catalogsync.Task{
		ProductID: id,
		Action:    action,
		Snapshot:  &doc,
		CreatedAt: event.Timestamp,
	}

	if err := c.worker.Process(ctx, task); err != nil {
		return fmt.Errorf("process %s task: %w", action, err)
	}

	c.logger.InfoContext(ctx, "propagated product event to index",
		slog.String("event_type", event.EventType),
		slog.String("product_id", data.ID),
	)

	return nil
}

// handleDeleted builds a delete task from a deleted event.
func (c *Consumer) handleDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal product.deleted data: %w", err)
	}

	id, err := uuid.Parse(data.ID)
	if err != nil {
		return fmt.Errorf("parse product id from deleted event: %w", err)
	}

	task := catalogsync.Task{
		ProductID: id,
		Action:    catalogsync.ActionDelete,
		CreatedAt: event.Timestamp,
	}

	if err := c.worker.Process(ctx, task); err != nil {
		return fmt.Errorf("process delete task: %w", err)
	}

	c.logger.InfoContext(ctx, "propagated product deletion to index",
		slog.String("product_id", data.ID),
	)

	return nil
}

func parseEventTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
