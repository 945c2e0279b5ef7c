// Package memory implements ranking-based retrieval and threshold-triggered
// pruning of a student's memories.
package memory

import (
	"context"
	"log/slog"

	"github.com/mgersbach/studymate/internal/models"
)

// Store is the persistence surface the retriever needs.
type Store interface {
	QueryTopMemories(ctx context.Context, userID string, limit int) ([]models.Memory, error)
	QueryTouchMemoryAccess(ctx context.Context, id string) error
}

// Retriever returns a user's highest-ranked memories for prompt building.
type Retriever struct {
	store  Store
	logger *slog.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(store Store, logger *slog.Logger) *Retriever {
	return &Retriever{store: store, logger: logger}
}

// Top returns up to n memories for a user ordered by importance descending,
// most recently created first among ties. Every returned memory gets its
// accessed timestamp touched; touch failures are logged and never surfaced,
// so retrieval succeeds even when the touch write does not.
func (r *Retriever) Top(ctx context.Context, userID string, n int) ([]models.Memory, error) {
	memories, err := r.store.QueryTopMemories(ctx, userID, n)
	if err != nil {
		return nil, err
	}

	for _, m := range memories {
		id, err := models.RecordIDString(m.ID)
		if err != nil {
			r.logger.Warn("skipping access touch for non-string memory id", "error", err)
			continue
		}
		if err := r.store.QueryTouchMemoryAccess(ctx, id); err != nil {
			r.logger.Warn("failed to touch memory access", "memory_id", id, "error", err)
		}
	}

	return memories, nil
}
