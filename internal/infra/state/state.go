// Package state persists the order memory between passes and across
// restarts. Every backend stores the same thing, the full orderID to entry
// map, and replaces it wholesale on save so forgotten orders disappear.
package state

import (
	"context"

	"github.com/ozonms/fbosync/internal/core/domain"
)

// Store loads and saves the durable order memory.
type Store interface {
	// Load reads the persisted memory. A missing backing record yields an
	// empty memory, not an error.
	Load(ctx context.Context) (*domain.Memory, error)
	// Save persists the full memory snapshot.
	Save(ctx context.Context, mem *domain.Memory) error
	// Close releases backend resources.
	Close() error
}
