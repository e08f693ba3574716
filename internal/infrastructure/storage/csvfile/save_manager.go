// Package csvfile persists the order and user collections to a single
// human-readable text file with a users block and an orders block.
//
//	# Users
//	TYPE,ID,USERNAME,PASSWORD,ROLE
//	USER,1001,alice,pass1,Customer
//
//	# Orders
//	TYPE,ORDERID,ORDERNAME,STATUS,ORDERTYPE,DEADLINE,REFERENCE,EXTRAS,EDITOR_ASSIGNED,FINALLINK,CUSTOMERID
//	ORDER,1001,Logo Design,Pending,Logo,2026-03-01,"","","","",1001
package csvfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/desainin/order-manager/internal/core/domain"
	"github.com/desainin/order-manager/internal/core/ports"
	"github.com/desainin/order-manager/internal/metrics"
)

const (
	usersMarker  = "# Users"
	ordersMarker = "# Orders"
	usersHeader  = "TYPE,ID,USERNAME,PASSWORD,ROLE"
	ordersHeader = "TYPE,ORDERID,ORDERNAME,STATUS,ORDERTYPE,DEADLINE,REFERENCE,EXTRAS,EDITOR_ASSIGNED,FINALLINK,CUSTOMERID"
	headerPrefix = "TYPE,"

	userRecord  = "USER"
	orderRecord = "ORDER"
	userFields  = 5
	orderFields = 11

	dateLayout      = "2006-01-02"
	looseDateLayout = "2006-1-2"

	backend = "csv"
)

type section int

const (
	sectionNone section = iota
	sectionUsers
	sectionOrders
)

// Skip reasons reported while loading.
const (
	skipShortRow        = "short_row"
	skipBadID           = "bad_id"
	skipBadDate         = "bad_date"
	skipDuplicate       = "duplicate"
	skipSectionMismatch = "section_mismatch"
	skipUnknownType     = "unknown_type"
)

// LoadStats summarises one load pass.
type LoadStats struct {
	Users   int
	Orders  int
	Skipped int
}

// SaveManager encodes and decodes the snapshot file.
type SaveManager struct {
	location *time.Location
	log      zerolog.Logger
}

// Option configures a SaveManager.
type Option func(*SaveManager)

// WithLocation sets the time zone deadlines are written and read in.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(m *SaveManager) {
		if loc != nil {
			m.location = loc
		}
	}
}

func NewSaveManager(log zerolog.Logger, opts ...Option) *SaveManager {
	m := &SaveManager{location: time.Local, log: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SaveToFile writes the snapshot to path. The data goes to a temporary file in
// the same directory which then replaces path, so a failed save leaves the
// previous file intact.
func (m *SaveManager) SaveToFile(ctx context.Context, path string, orders ports.OrderRepository, users ports.UserRepository) (err error) {
	start := time.Now()
	defer func() { observe("save", start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		m.log.Error().Err(err).Str("path", path).Msg("could not open file for writing")
		return fmt.Errorf("save %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = m.Encode(bw, orders, users); err != nil {
		return fmt.Errorf("save %s: encode: %w", path, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("save %s: flush: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("save %s: sync: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("save %s: close: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save %s: rename: %w", path, err)
	}

	m.log.Info().
		Str("path", path).
		Int("users", len(users.AllUsers())).
		Int("orders", len(orders.Orders())).
		Msg("data saved")
	return nil
}

// LoadFromFile appends the snapshot stored at path to orders and users.
// A file that cannot be opened means there is no prior save: it reports false
// with a nil error.
func (m *SaveManager) LoadFromFile(ctx context.Context, path string, orders ports.OrderRepository, users ports.UserRepository) (loaded bool, err error) {
	start := time.Now()
	defer func() { observe("load", start, err) }()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.log.Info().Str("path", path).Msg("save file not found, starting fresh")
		} else {
			m.log.Warn().Err(err).Str("path", path).Msg("save file unreadable, starting fresh")
		}
		return false, nil
	}
	defer f.Close()

	stats, err := m.Decode(ctx, f, orders, users)
	if err != nil {
		m.log.Error().Err(err).Str("path", path).Msg("error while loading")
		return false, fmt.Errorf("load %s: %w", path, err)
	}

	m.log.Info().
		Str("path", path).
		Int("users", stats.Users).
		Int("orders", stats.Orders).
		Int("skipped", stats.Skipped).
		Msg("data loaded")
	return true, nil
}

// Encode writes users in registration order, then orders in insertion order.
func (m *SaveManager) Encode(w io.Writer, orders ports.OrderRepository, users ports.UserRepository) error {
	lw := &lineWriter{w: w}

	lw.line(usersMarker)
	lw.line(usersHeader)
	for _, u := range users.AllUsers() {
		lw.line(strings.Join([]string{
			userRecord,
			strconv.Itoa(u.ID),
			EscapeField(u.Username),
			EscapeField(u.Password),
			roleToken(u.Role),
		}, ","))
	}

	lw.line("")
	lw.line(ordersMarker)
	lw.line(ordersHeader)
	for _, o := range orders.Orders() {
		lw.line(strings.Join([]string{
			orderRecord,
			strconv.Itoa(o.ID),
			EscapeField(o.Name),
			statusToken(o.Status),
			kindToken(o.Kind),
			o.Deadline.In(m.location).Format(dateLayout),
			EscapeField(o.Reference),
			EscapeField(o.Extras),
			EscapeField(o.EditorAssigned),
			EscapeField(o.FinalLink),
			strconv.Itoa(o.CustomerID),
		}, ","))
	}

	return lw.err
}

// Decode reads records from r into orders and users. Malformed records are
// skipped and counted; only read errors and cancellation abort the pass.
func (m *SaveManager) Decode(ctx context.Context, r io.Reader, orders ports.OrderRepository, users ports.UserRepository) (LoadStats, error) {
	var stats LoadStats
	rr := newRecordReader(r)
	current := sectionNone

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		record, err := rr.next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		trimmed := strings.TrimSpace(record)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "#"):
			switch trimmed {
			case usersMarker:
				current = sectionUsers
			case ordersMarker:
				current = sectionOrders
			}
			continue
		case strings.HasPrefix(record, headerPrefix):
			continue
		}

		if reason := m.decodeRecord(current, SplitRecord(record), orders, users, &stats); reason != "" {
			stats.Skipped++
			metrics.RecordsSkippedTotal.WithLabelValues(reason).Inc()
			m.log.Warn().Int("line", rr.line).Str("reason", reason).Msg("skipping record")
		}
	}
}

// decodeRecord applies one data record and returns a skip reason, or "".
func (m *SaveManager) decodeRecord(current section, fields []string, orders ports.OrderRepository, users ports.UserRepository, stats *LoadStats) string {
	switch fields[0] {
	case userRecord:
		if current == sectionOrders {
			return skipSectionMismatch
		}
		if reason := m.decodeUser(fields, users); reason != "" {
			return reason
		}
		stats.Users++
	case orderRecord:
		if current == sectionUsers {
			return skipSectionMismatch
		}
		if reason := m.decodeOrder(fields, orders); reason != "" {
			return reason
		}
		stats.Orders++
	default:
		return skipUnknownType
	}
	return ""
}

func (m *SaveManager) decodeUser(fields []string, users ports.UserRepository) string {
	if len(fields) < userFields {
		return skipShortRow
	}
	id, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return skipBadID
	}
	role, _ := domain.ParseRole(fields[4])

	if err := users.RestoreUser(domain.User{
		ID:       id,
		Username: fields[2],
		Password: fields[3],
		Role:     role,
	}); err != nil {
		return skipDuplicate
	}
	return ""
}

func (m *SaveManager) decodeOrder(fields []string, orders ports.OrderRepository) string {
	if len(fields) < orderFields {
		return skipShortRow
	}
	id, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return skipBadID
	}
	customerID, err := strconv.Atoi(strings.TrimSpace(fields[10]))
	if err != nil {
		return skipBadID
	}
	deadline, err := m.parseDeadline(fields[5])
	if err != nil {
		return skipBadDate
	}
	status, _ := domain.ParseOrderStatus(fields[3])
	kind, _ := domain.ParseOrderKind(fields[4])

	order := domain.NewOrder(id, fields[2], kind, deadline)
	order.Status = status
	order.Reference = fields[6]
	order.Extras = fields[7]
	order.EditorAssigned = fields[8]
	order.FinalLink = fields[9]
	order.CustomerID = customerID

	if err := orders.AddOrder(order); err != nil {
		return skipDuplicate
	}
	return ""
}

// parseDeadline accepts YYYY-MM-DD and its unpadded form, at midnight in the
// manager's location.
func (m *SaveManager) parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation(dateLayout, s, m.location)
	if err == nil {
		return t, nil
	}
	return time.ParseInLocation(looseDateLayout, s, m.location)
}

func roleToken(r domain.Role) string {
	if r == domain.RoleEditor {
		return string(domain.RoleEditor)
	}
	return string(domain.RoleCustomer)
}

func statusToken(s domain.OrderStatus) string {
	st, _ := domain.ParseOrderStatus(string(s))
	return string(st)
}

func kindToken(k domain.OrderKind) string {
	kind, _ := domain.ParseOrderKind(string(k))
	return string(kind)
}

func observe(operation string, start time.Time, err error) {
	metrics.PersistenceDuration.WithLabelValues(operation, backend).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PersistenceErrorsTotal.WithLabelValues(operation, backend).Inc()
	}
}

// lineWriter writes newline-terminated lines and keeps the first error.
type lineWriter struct {
	w   io.Writer
	err error
}

func (lw *lineWriter) line(s string) {
	if lw.err != nil {
		return
	}
	_, lw.err = io.WriteString(lw.w, s+"\n")
}
