// Package app wires the managers, services and snapshot store that live for
// one run of the program.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/desainin/order-manager/internal/core/ports"
	"github.com/desainin/order-manager/internal/core/service"
	"github.com/desainin/order-manager/internal/infrastructure/db/memory"
	"github.com/desainin/order-manager/internal/infrastructure/storage/csvfile"
	"github.com/desainin/order-manager/internal/infrastructure/storage/sqlite"
	"github.com/desainin/order-manager/internal/metrics"
	"github.com/desainin/order-manager/internal/pkg/config"
)

// Session holds the process-wide state: one order collection, one user
// collection and the services acting on them.
type Session struct {
	Orders *memory.OrderManager
	Users  *memory.UserManager

	Auth      ports.AuthService
	Customers ports.CustomerService
	Editors   ports.EditorService

	store       ports.SnapshotStore
	metricsFile string
	log         zerolog.Logger
}

type Option func(*Session)

// WithMetricsTextfile makes Shutdown dump all metrics to path.
func WithMetricsTextfile(path string) Option {
	return func(s *Session) { s.metricsFile = path }
}

func NewSession(store ports.SnapshotStore, log zerolog.Logger, opts ...Option) *Session {
	orders := memory.NewOrderManager()
	users := memory.NewUserManager()

	s := &Session{
		Orders:    orders,
		Users:     users,
		Auth:      service.NewAuthService(users, log.With().Str("component", "auth").Logger()),
		Customers: service.NewCustomerService(orders, log.With().Str("component", "customer").Logger()),
		Editors:   service.NewEditorService(orders, log.With().Str("component", "editor").Logger()),
		store:     store,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the last snapshot. A load failure is logged and the session
// starts empty.
func (s *Session) Start(ctx context.Context) {
	loaded, err := s.store.Load(ctx, s.Orders, s.Users)
	if err != nil {
		s.log.Error().Err(err).Msg("load failed, starting with empty data")
		s.Orders.Reset()
		s.Users.Reset()
		return
	}
	if !loaded {
		s.log.Info().Msg("no saved data")
	}
}

// Shutdown saves the current state and closes the store.
func (s *Session) Shutdown(ctx context.Context) error {
	saveErr := s.store.Save(ctx, s.Orders, s.Users)
	if saveErr != nil {
		s.log.Error().Err(saveErr).Msg("save failed")
	}

	if s.metricsFile != "" {
		if err := metrics.WriteTextfile(s.metricsFile); err != nil {
			s.log.Warn().Err(err).Str("path", s.metricsFile).Msg("could not write metrics")
		}
	}

	if err := s.store.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close store")
	}
	return saveErr
}

// OpenStore builds the snapshot store selected by cfg.Backend.
func OpenStore(ctx context.Context, cfg config.StoreConfig, log zerolog.Logger) (ports.SnapshotStore, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendCSV:
		manager := csvfile.NewSaveManager(log.With().Str("component", "csvfile").Logger(), csvfile.WithLocation(loc))
		return csvfile.NewFileStore(cfg.SaveFile, manager), nil
	case config.BackendSQLite:
		return sqlite.OpenStore(ctx, cfg.SQLiteDSN, log.With().Str("component", "sqlite").Logger(), sqlite.WithLocation(loc))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
