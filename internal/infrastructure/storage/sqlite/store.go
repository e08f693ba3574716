// Package sqlite is an alternative snapshot backend that keeps users and
// orders in two SQLite tables. Row order is preserved through a position
// column so a reload reproduces registration and insertion order.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/desainin/order-manager/internal/core/domain"
	"github.com/desainin/order-manager/internal/core/ports"
	"github.com/desainin/order-manager/internal/metrics"
)

const (
	backend    = "sqlite"
	dateLayout = "2006-01-02"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    position INTEGER PRIMARY KEY,
    id INTEGER NOT NULL UNIQUE,
    username TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL DEFAULT '',
    role VARCHAR(16) NOT NULL DEFAULT 'Customer'
);

CREATE TABLE IF NOT EXISTS orders (
    position INTEGER PRIMARY KEY,
    id INTEGER NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    status VARCHAR(16) NOT NULL DEFAULT 'Pending',
    kind VARCHAR(16) NOT NULL DEFAULT 'Other',
    deadline VARCHAR(10) NOT NULL,
    reference TEXT NOT NULL DEFAULT '',
    extras TEXT NOT NULL DEFAULT '',
    editor_assigned TEXT NOT NULL DEFAULT '',
    final_link TEXT NOT NULL DEFAULT '',
    customer_id INTEGER NOT NULL DEFAULT 0
);
`

// Open creates a SQLite connection.
// dsn example: "file:orders.db?mode=rwc" or ":memory:"
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One connection: an in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return db, nil
}

// Store implements ports.SnapshotStore on a SQLite database.
type Store struct {
	db       *sql.DB
	location *time.Location
	log      zerolog.Logger
}

var _ ports.SnapshotStore = (*Store)(nil)

type Option func(*Store)

// WithLocation sets the time zone deadlines are stored in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.location = loc
		}
	}
}

// New wraps db and creates the tables when missing.
func New(ctx context.Context, db *sql.DB, log zerolog.Logger, opts ...Option) (*Store, error) {
	s := &Store{db: db, location: time.Local, log: log}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return s, nil
}

// OpenStore opens dsn and returns a migrated Store that owns the connection.
func OpenStore(ctx context.Context, dsn string, log zerolog.Logger, opts ...Option) (*Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, db, log, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Save replaces both tables with the current collections in one transaction.
func (s *Store) Save(ctx context.Context, orders ports.OrderRepository, users ports.UserRepository) (err error) {
	start := time.Now()
	defer func() { observe("save", start, err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite save: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"users", "orders"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("sqlite save: clear %s: %w", table, err)
		}
	}

	allUsers := users.AllUsers()
	for i, u := range allUsers {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO users (position, id, username, password, role) VALUES (?, ?, ?, ?, ?)`,
			i, u.ID, u.Username, u.Password, string(u.Role),
		); err != nil {
			return fmt.Errorf("sqlite save: user %d: %w", u.ID, err)
		}
	}

	allOrders := orders.Orders()
	for i, o := range allOrders {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO orders (position, id, name, status, kind, deadline, reference, extras, editor_assigned, final_link, customer_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, o.ID, o.Name, string(o.Status), string(o.Kind),
			o.Deadline.In(s.location).Format(dateLayout),
			o.Reference, o.Extras, o.EditorAssigned, o.FinalLink, o.CustomerID,
		); err != nil {
			return fmt.Errorf("sqlite save: order %d: %w", o.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite save: commit: %w", err)
	}

	s.log.Info().Int("users", len(allUsers)).Int("orders", len(allOrders)).Msg("data saved")
	return nil
}

// Load appends stored users and orders in their saved order. Empty tables
// mean nothing was saved yet.
func (s *Store) Load(ctx context.Context, orders ports.OrderRepository, users ports.UserRepository) (loaded bool, err error) {
	start := time.Now()
	defer func() { observe("load", start, err) }()

	nUsers, err := s.loadUsers(ctx, users)
	if err != nil {
		return false, err
	}
	nOrders, err := s.loadOrders(ctx, orders)
	if err != nil {
		return false, err
	}

	if nUsers == 0 && nOrders == 0 {
		s.log.Info().Msg("database empty, starting fresh")
		return false, nil
	}
	s.log.Info().Int("users", nUsers).Int("orders", nOrders).Msg("data loaded")
	return true, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) loadUsers(ctx context.Context, users ports.UserRepository) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, password, role FROM users ORDER BY position`)
	if err != nil {
		return 0, fmt.Errorf("sqlite load users: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			u    domain.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &role); err != nil {
			return n, fmt.Errorf("sqlite load users: %w", err)
		}
		u.Role, _ = domain.ParseRole(role)
		if err := users.RestoreUser(u); err != nil {
			s.skip("duplicate", err)
			continue
		}
		n++
	}
	return n, rows.Err()
}

func (s *Store) loadOrders(ctx context.Context, orders ports.OrderRepository) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, status, kind, deadline, reference, extras, editor_assigned, final_link, customer_id
		 FROM orders ORDER BY position`)
	if err != nil {
		return 0, fmt.Errorf("sqlite load orders: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			o                      domain.Order
			status, kind, deadline string
		)
		if err := rows.Scan(&o.ID, &o.Name, &status, &kind, &deadline,
			&o.Reference, &o.Extras, &o.EditorAssigned, &o.FinalLink, &o.CustomerID); err != nil {
			return n, fmt.Errorf("sqlite load orders: %w", err)
		}
		o.Deadline, err = time.ParseInLocation(dateLayout, deadline, s.location)
		if err != nil {
			s.skip("bad_date", err)
			continue
		}
		o.Status, _ = domain.ParseOrderStatus(status)
		o.Kind, _ = domain.ParseOrderKind(kind)

		order := o
		if err := orders.AddOrder(&order); err != nil {
			s.skip("duplicate", err)
			continue
		}
		n++
	}
	return n, rows.Err()
}

func (s *Store) skip(reason string, err error) {
	metrics.RecordsSkippedTotal.WithLabelValues(reason).Inc()
	s.log.Warn().Err(err).Str("reason", reason).Msg("skipping row")
}

func observe(operation string, start time.Time, err error) {
	metrics.PersistenceDuration.WithLabelValues(operation, backend).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PersistenceErrorsTotal.WithLabelValues(operation, backend).Inc()
	}
}
