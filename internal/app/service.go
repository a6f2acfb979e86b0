// Package service implements the query adapter between the HTTP API and the
// record store: it turns page-level calls into store queries and normalizes
// the loosely typed rows that come back into domain records.
//
// The service holds no entity state. Every call re-queries the store, and
// calls issue their store requests one after another.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/pkg/logger"
)

// Defaults applied by New.
const (
	DefaultPageSize     = 100
	DefaultStoreTimeout = 10 * time.Second
)

// ErrPageOutOfRange is returned when a page number puts the row offset past
// what an int can hold.
var ErrPageOutOfRange = errors.New("page out of range")

// Tables names the record store tables the service reads and writes.
type Tables struct {
	Members    string
	Events     string
	Attendance string
	Branches   string
}

// DefaultTables returns the table names of the congregation base.
func DefaultTables() Tables {
	return Tables{
		Members:    "Members",
		Events:     "Services",
		Attendance: "Service Attendance",
		Branches:   "Branches",
	}
}

// Service implements the API dependencies on top of a record store.
type Service struct {
	store recordstore.Store

	tables          Tables
	defaultPageSize int
	storeTimeout    time.Duration
	now             func() time.Time
	started         time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTables overrides the table names. Empty names keep their default.
func WithTables(t Tables) Option {
	return func(s *Service) {
		if t.Members != "" {
			s.tables.Members = t.Members
		}
		if t.Events != "" {
			s.tables.Events = t.Events
		}
		if t.Attendance != "" {
			s.tables.Attendance = t.Attendance
		}
		if t.Branches != "" {
			s.tables.Branches = t.Branches
		}
	}
}

// WithDefaultPageSize sets the member page size used when none is requested.
func WithDefaultPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultPageSize = n
		}
	}
}

// WithStoreTimeout bounds each service call, including all of its store requests.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithClock sets the clock used for attendance timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over store.
func New(store recordstore.Store, opts ...Option) *Service {
	s := &Service{
		store:           store,
		tables:          DefaultTables(),
		defaultPageSize: DefaultPageSize,
		storeTimeout:    DefaultStoreTimeout,
		now:             time.Now,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("service")
	s.started = s.now()
	return s
}

// Tables returns the configured table names.
func (s *Service) Tables() Tables {
	return s.tables
}

// GetStats returns service settings and uptime for monitoring.
func (s *Service) GetStats() map[string]any {
	return map[string]any{
		"tables": map[string]string{
			"members":    s.tables.Members,
			"events":     s.tables.Events,
			"attendance": s.tables.Attendance,
			"branches":   s.tables.Branches,
		},
		"defaultPageSize": s.defaultPageSize,
		"storeTimeoutMs":  s.storeTimeout.Milliseconds(),
		"uptimeSeconds":   int64(s.now().Sub(s.started).Seconds()),
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}
