package csvfile

import (
	"context"

	"github.com/desainin/order-manager/internal/core/ports"
)

// FileStore adapts a SaveManager bound to one path to ports.SnapshotStore.
type FileStore struct {
	path    string
	manager *SaveManager
}

var _ ports.SnapshotStore = (*FileStore)(nil)

func NewFileStore(path string, manager *SaveManager) *FileStore {
	return &FileStore{path: path, manager: manager}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(ctx context.Context, orders ports.OrderRepository, users ports.UserRepository) error {
	return s.manager.SaveToFile(ctx, s.path, orders, users)
}

func (s *FileStore) Load(ctx context.Context, orders ports.OrderRepository, users ports.UserRepository) (bool, error) {
	return s.manager.LoadFromFile(ctx, s.path, orders, users)
}

// Close is a no-op; the file is only held open during Save and Load.
func (s *FileStore) Close() error { return nil }
