package ports

import "context"

// SnapshotStore persists the complete order and user state in one pass.
type SnapshotStore interface {
	// Save replaces the stored snapshot with the current contents of orders and users.
	Save(ctx context.Context, orders OrderRepository, users UserRepository) error
	// Load appends the stored snapshot to orders and users. It reports false with a
	// nil error when there is nothing stored yet.
	Load(ctx context.Context, orders OrderRepository, users UserRepository) (bool, error)
	Close() error
}
