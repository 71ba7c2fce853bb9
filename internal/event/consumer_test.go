package event

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogsync "github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/sync"
	pkgkafka "github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/kafka"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingProcessor records the tasks handed to it.
type recordingProcessor struct {
	tasks []catalogsync.Task
	err   error
}

func (p *recordingProcessor) Process(_ context.Context, task catalogsync.Task) error {
	p.tasks = append(p.tasks, task)
	return p.err
}

func snapshotEvent(t *testing.T, eventType string, id uuid.UUID) *pkgkafka.Event {
	t.Helper()
	data := ProductSnapshotData{
		ID:        id.String(),
		SKU:       "SKU-001",
		Name:      "Mouse",
		Price:     29.99,
		Category:  "peripherals",
		Status:    "active",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	event, err := pkgkafka.NewEvent(eventType, id.String(), AggregateTypeProduct, SourceCatalogAPI, data)
	require.NoError(t, err)
	return event
}

func TestConsumer_Handle_Created(t *testing.T) {
	ctx := context.Background()
	proc := &recordingProcessor{}
	c := NewConsumer(proc, newTestLogger())

	id := uuid.New()
	require.NoError(t, c.Handle(ctx, snapshotEvent(t, TopicProductCreated, id)))

	require.Len(t, proc.tasks, 1)
	task := proc.tasks[0]
	assert.Equal(t, catalogsync.ActionIndex, task.Action)
	assert.Equal(t, id, task.ProductID)
	require.NotNil(t, task.Snapshot)
	assert.Equal(t, "Mouse", task.Snapshot.Name)
	assert.InDelta(t, 29.99, task.Snapshot.Price, 0.0001)
}

func TestConsumer_Handle_Updated(t *testing.T) {
	ctx := context.Background()
	proc := &recordingProcessor{}
	c := NewConsumer(proc, newTestLogger())

	require.NoError(t, c.Handle(ctx, snapshotEvent(t, TopicProductUpdated, uuid.New())))

	require.Len(t, proc.tasks, 1)
	assert.Equal(t, catalogsync.ActionUpdate, proc.tasks[0].Action)
}

func TestConsumer_Handle_Restored(t *testing.T) {
	ctx := context.Background()
	proc := &recordingProcessor{}
	c := NewConsumer(proc, newTestLogger())

	require.NoError(t, c.Handle(ctx, snapshotEvent(t, TopicProductRestored, uuid.New())))

	require.Len(t, proc.tasks, 1)
	// Restores re-index the full snapshot.
	assert.Equal(t, catalogsync.ActionIndex, proc.tasks[0].Action)
}

func TestConsumer_Handle_Deleted(t *testing.T) {
	ctx := context.Background()
	proc := &recordingProcessor{}
	c := NewConsumer(proc, newTestLogger())

	id := uuid.New()
	event, err := pkgkafka.NewEvent(TopicProductDeleted, id.String(), AggregateTypeProduct, SourceCatalogAPI, ProductDeletedData{ID: id.String()})
	require.NoError(t, err)

	require.NoError(t, c.Handle(ctx, event))

	require.Len(t, proc.tasks, 1)
	task := proc.tasks[0]
	assert.Equal(t, catalogsync.ActionDelete, task.Action)
	assert.Equal(t, id, task.ProductID)
	assert.Nil(t, task.Snapshot)
}

func TestConsumer_Handle_UnknownTypeIsSkipped(t *testing.T) {
	ctx := context.Background()
	proc := &recordingProcessor{}
	c := NewConsumer(proc, newTestLogger())

	event, err := pkgkafka.NewEvent("catalog.product.archived", uuid.New().String(), AggregateTypeProduct, SourceCatalogAPI, map[string]string{})
	require.NoError(t, err)

	require.NoError(t, c.Handle(ctx, event))
	assert.Empty(t, proc.tasks)
}

func TestConsumer_Handle_BadProductID(t *testing.T) {
	ctx := context.Background()
	proc := &recordingProcessor{}
	c := NewConsumer(proc, newTestLogger())

	event, err := pkgkafka.NewEvent(TopicProductDeleted, "not-a-uuid", AggregateTypeProduct, SourceCatalogAPI, ProductDeletedData{ID: "not-a-uuid"})
	require.NoError(t, err)

	assert.Error(t, c.Handle(ctx, event))
	assert.Empty(t, proc.tasks)
}
