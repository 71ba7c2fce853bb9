package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
	pkgkafka "github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/kafka"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/logger"
)

// Kafka topic constants for product domain events.
const (
	TopicProductCreated  = "catalog.product.created"
	TopicProductUpdated  = "catalog.product.updated"
	TopicProductDeleted  = "catalog.product.deleted"
	TopicProductRestored = "catalog.product.restored"
)

// Aggregate type constant.
const AggregateTypeProduct = "product"

// Source identifier for events originating from the catalog API.
const SourceCatalogAPI = "catalog-api"

// ProductSnapshotData is the full-snapshot payload carried by created,
// updated, and restored events. Consumers apply it as an idempotent upsert,
// so redelivery and reordering are harmless.
type ProductSnapshotData struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Status      string  `json:"status"`
	ImageURL    string  `json:"image_url,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ProductDeletedData is the identifier-only payload of a deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

func snapshotData(p *domain.Product) ProductSnapshotData {
	price, _ := p.Price.Float64()
	return ProductSnapshotData{
		ID:          p.ID.String(),
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Category:    p.Category,
		Status:      p.Status,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		UpdatedAt:   p.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// Producer publishes product domain events to Kafka. Events are keyed by
// product ID so the broker preserves per-product ordering.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the catalog API.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// ProductCreated publishes a product.created event with a full snapshot.
func (p *Producer) ProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publishSnapshot(ctx, TopicProductCreated, product)
}

// ProductUpdated publishes a product.updated event with a full snapshot.
func (p *Producer) ProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publishSnapshot(ctx, TopicProductUpdated, product)
}

// ProductRestored publishes a product.restored event with a full snapshot.
func (p *Producer) ProductRestored(ctx context.Context, product *domain.Product) error {
	return p.publishSnapshot(ctx, TopicProductRestored, product)
}

// ProductDeleted publishes a product.deleted event.
func (p *Producer) ProductDeleted(ctx context.Context, id uuid.UUID) error {
	data := ProductDeletedData{ID: id.String()}

	event, err := pkgkafka.NewEvent(TopicProductDeleted, id.String(), AggregateTypeProduct, SourceCatalogAPI, data)
	if err != nil {
		return fmt.Errorf("create product.deleted event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicProductDeleted, event); err != nil {
		return fmt.Errorf("publish product.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product.deleted event",
		slog.String("product_id", id.String()),
	)

	return nil
}

func (p *Producer) publishSnapshot(ctx context.Context, topic string, product *domain.Product) error {
	data := snapshotData(product)

	event, err := pkgkafka.NewEvent(topic, product.ID.String(), AggregateTypeProduct, SourceCatalogAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published product event",
		slog.String("topic", topic),
		slog.String("product_id", product.ID.String()),
		slog.String("sku", product.SKU),
	)

	return nil
}
