package service

import (
	"context"
	"fmt"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/domain/filter"
	"github.com/okian/register/internal/domain/model"
	"github.com/okian/register/pkg/logger"
	"github.com/okian/register/pkg/metrics"
)

// LapsedAttendees returns members present at presentEventID who were not
// present at absentEventID, in the order they appear in the first event's
// attendance. An empty result is an empty slice, not an error.
func (s *Service) LapsedAttendees(ctx context.Context, presentEventID, absentEventID string) ([]model.Member, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	present, err := s.attendeeIDs(ctx, presentEventID, true)
	if err != nil {
		return nil, fmt.Errorf("lapsed attendees: %w", err)
	}
	absent, err := s.attendeeIDs(ctx, absentEventID, true)
	if err != nil {
		return nil, fmt.Errorf("lapsed attendees: %w", err)
	}

	lapsed := difference(present, absent)
	s.logger.Debug(ctx, "lapsed attendees computed",
		logger.String("present_event_id", presentEventID),
		logger.String("absent_event_id", absentEventID),
		logger.Int("present", len(present)),
		logger.Int("absent", len(absent)),
		logger.Int("lapsed", len(lapsed)),
	)
	if len(lapsed) == 0 {
		metrics.RecordLapsedReportSize(0)
		return []model.Member{}, nil
	}

	rows, err := s.store.Select(ctx, s.tables.Members, recordstore.Query{Filter: filter.IDs(lapsed)})
	if err != nil {
		return nil, fmt.Errorf("lapsed attendees: %w", err)
	}

	byID := make(map[string]recordstore.Record, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]model.Member, 0, len(lapsed))
	for _, id := range lapsed {
		if r, ok := byID[id]; ok {
			out = append(out, model.MemberFromFields(r.ID, r.Fields))
		}
	}
	metrics.RecordLapsedReportSize(len(out))
	return out, nil
}

// difference returns the elements of p not in a, keeping p's order.
func difference(p, a []string) []string {
	drop := make(map[string]struct{}, len(a))
	for _, id := range a {
		drop[id] = struct{}{}
	}
	out := make([]string, 0, len(p))
	for _, id := range p {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
