package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/domain"
)

// Task actions. Index and update both carry a full snapshot and apply as an
// idempotent upsert; delete carries only the product ID.
const (
	ActionIndex  = "index"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Task is one unit of index propagation. Tasks are ephemeral: they live in
// the queue until applied once successfully or exhausted.
type Task struct {
	ProductID uuid.UUID               `json:"product_id"`
	Action    string                  `json:"action"`
	Snapshot  *domain.ProductDocument `json:"snapshot,omitempty"`
	Attempt   int                     `json:"attempt"`
	CreatedAt time.Time               `json:"created_at"`
}

// NewUpsertTask builds an index or update task with a full product snapshot.
func NewUpsertTask(action string, p *domain.Product) Task {
	doc := domain.DocumentFromProduct(p)
	return Task{
		ProductID: p.ID,
		Action:    action,
		Snapshot:  &doc,
		Attempt:   0,
		CreatedAt: time.Now().UTC(),
	}
}

// NewDeleteTask builds an identifier-only delete task.
func NewDeleteTask(id uuid.UUID) Task {
	return Task{
		ProductID: id,
		Action:    ActionDelete,
		Attempt:   0,
		CreatedAt: time.Now().UTC(),
	}
}
