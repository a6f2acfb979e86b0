package recordstore

import (
	"context"
	"errors"
	"time"

	"github.com/okian/register/internal/domain/filter"
	"github.com/okian/register/pkg/logger"
	"github.com/okian/register/pkg/metrics"
)

// DefaultSlowCall is the latency above which store calls are logged at warn.
const DefaultSlowCall = 500 * time.Millisecond

type instrumented struct {
	next    Store
	backend string
	log     logger.Logger
	slow    time.Duration
}

// Instrument wraps s so every call records Prometheus metrics and a log line.
func Instrument(s Store, backend string, log logger.Logger) Store {
	if log == nil {
		log = logger.Nop()
	}
	return &instrumented{next: s, backend: backend, log: log.Named("recordstore"), slow: DefaultSlowCall}
}

func (i *instrumented) observe(ctx context.Context, table, op string, start time.Time, err error, fields ...logger.Field) {
	took := time.Since(start)
	metrics.RecordStoreRequest(i.backend, table, op, float64(took.Microseconds())/1000.0)

	fields = append(fields,
		logger.String("backend", i.backend),
		logger.String("table", table),
		logger.String("op", op),
		logger.Duration("took", took),
	)
	switch {
	case err != nil && !errors.Is(err, ErrNotFound):
		metrics.RecordStoreError(i.backend, op, Kind(err))
		i.log.Error(ctx, "store call failed", append(fields, logger.Error(err))...)
	case err != nil:
		metrics.RecordStoreError(i.backend, op, Kind(err))
		i.log.Debug(ctx, "store record not found", fields...)
	case took >= i.slow:
		i.log.Warn(ctx, "slow store call", fields...)
	default:
		i.log.Debug(ctx, "store call", fields...)
	}
}

func (i *instrumented) Select(ctx context.Context, table string, q Query) ([]Record, error) {
	start := time.Now()
	rows, err := i.next.Select(ctx, table, q)
	i.observe(ctx, table, "select", start, err,
		logger.Any("filter_fields", filter.Fields(q.Filter)),
		logger.Int("offset", q.Offset),
		logger.Int("limit", q.Limit),
		logger.Int("rows", len(rows)),
	)
	return rows, err
}

func (i *instrumented) Find(ctx context.Context, table, id string) (Record, error) {
	start := time.Now()
	rec, err := i.next.Find(ctx, table, id)
	i.observe(ctx, table, "find", start, err, logger.String("id", id))
	return rec, err
}

func (i *instrumented) Create(ctx context.Context, table string, fields Fields) (Record, error) {
	start := time.Now()
	rec, err := i.next.Create(ctx, table, fields)
	i.observe(ctx, table, "create", start, err, logger.String("id", rec.ID))
	return rec, err
}

func (i *instrumented) Update(ctx context.Context, table, id string, fields Fields) (Record, error) {
	start := time.Now()
	rec, err := i.next.Update(ctx, table, id, fields)
	i.observe(ctx, table, "update", start, err, logger.String("id", id), logger.Int("fields", len(fields)))
	return rec, err
}
