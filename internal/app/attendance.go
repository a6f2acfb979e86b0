package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/domain/filter"
	"github.com/okian/register/internal/domain/model"
	"github.com/okian/register/pkg/logger"
	"github.com/okian/register/pkg/metrics"
)

// ListAttendance returns every attendance row for an event.
func (s *Service) ListAttendance(ctx context.Context, eventID string) ([]model.AttendanceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.store.Select(ctx, s.tables.Attendance, recordstore.Query{
		Filter: filter.Eq(model.FieldAttendanceEventID, eventID),
	})
	if err != nil {
		return nil, fmt.Errorf("list attendance %s: %w", eventID, err)
	}
	out := make([]model.AttendanceRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.AttendanceFromFields(r.ID, r.Fields))
	}
	return out, nil
}

// MarkAttendance records memberID as present at eventID.
// Existing rows for the pair are not checked; a repeat call adds another row.
func (s *Service) MarkAttendance(ctx context.Context, memberID, eventID string) (model.AttendanceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	fields := model.AttendanceFields(memberID, eventID, s.now().UTC().Format(time.RFC3339))
	rec, err := s.store.Create(ctx, s.tables.Attendance, fields)
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("mark attendance %s at %s: %w", memberID, eventID, err)
	}
	metrics.RecordAttendanceMarked()
	s.logger.Debug(ctx, "attendance marked",
		logger.String("id", rec.ID),
		logger.String("member_id", memberID),
		logger.String("event_id", eventID),
	)
	return model.AttendanceFromFields(rec.ID, rec.Fields), nil
}

// attendeeIDs returns the distinct linked member ids of an event's
// attendance rows in store order. Rows without a member are skipped.
func (s *Service) attendeeIDs(ctx context.Context, eventID string, presentOnly bool) ([]string, error) {
	var status filter.Expr
	if presentOnly {
		status = filter.Eq(model.FieldAttendanceStatus, true)
	}
	rows, err := s.store.Select(ctx, s.tables.Attendance, recordstore.Query{
		Filter: filter.All(filter.Eq(model.FieldAttendanceEventID, eventID), status),
	})
	if err != nil {
		return nil, fmt.Errorf("attendees of %s: %w", eventID, err)
	}

	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		id := model.FirstLink(r.Fields, model.FieldAttendanceMember)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
