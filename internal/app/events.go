package service

import (
	"context"
	"fmt"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/domain/model"
	"github.com/okian/register/pkg/logger"
	"github.com/okian/register/pkg/metrics"
)

// ListEvents returns every service event. Events are not paginated.
func (s *Service) ListEvents(ctx context.Context) ([]model.ServiceEvent, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.store.Select(ctx, s.tables.Events, recordstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]model.ServiceEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ServiceEventFromFields(r.ID, r.Fields))
	}
	return out, nil
}

// GetEvent returns one service event.
func (s *Service) GetEvent(ctx context.Context, id string) (model.ServiceEvent, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.store.Find(ctx, s.tables.Events, id)
	if err != nil {
		return model.ServiceEvent{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return model.ServiceEventFromFields(rec.ID, rec.Fields), nil
}

// CreateEvent stores a new service event after checking its type.
func (s *Service) CreateEvent(ctx context.Context, e model.ServiceEvent) (model.ServiceEvent, error) {
	if err := e.Validate(); err != nil {
		return model.ServiceEvent{}, fmt.Errorf("create event: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.store.Create(ctx, s.tables.Events, e.Fields())
	if err != nil {
		return model.ServiceEvent{}, fmt.Errorf("create event: %w", err)
	}
	metrics.RecordServiceEventCreated()
	s.logger.Info(ctx, "service event created",
		logger.String("id", rec.ID),
		logger.String("type", string(e.Type)),
		logger.String("date", e.Date),
	)
	return model.ServiceEventFromFields(rec.ID, rec.Fields), nil
}
