package service

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/domain/filter"
	"github.com/okian/register/internal/domain/model"
	"github.com/okian/register/pkg/logger"
	"github.com/okian/register/pkg/metrics"
)

// MemberListQuery are the inputs of a member listing. Zero values take defaults.
type MemberListQuery struct {
	Page       int
	PageSize   int
	SearchTerm string
	EventID    string
}

// ListMembers returns one page of members, optionally narrowed by a name
// search and by attendance at an event.
//
// When the event has no linked attendees the attendance filter is dropped
// and the page is the same as without EventID.
func (s *Service) ListMembers(ctx context.Context, q MemberListQuery) (model.MemberPage, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = s.defaultPageSize
	}
	if page-1 > math.MaxInt/size {
		return model.MemberPage{}, fmt.Errorf("list members: page %d with size %d: %w", page, size, ErrPageOutOfRange)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var byName filter.Expr
	if q.SearchTerm != "" {
		byName = filter.Any(
			filter.Contains{Field: model.FieldFirstName, Substring: q.SearchTerm},
			filter.Contains{Field: model.FieldLastName, Substring: q.SearchTerm},
		)
	}

	var byEvent filter.Expr
	if q.EventID != "" {
		ids, err := s.attendeeIDs(ctx, q.EventID, false)
		if err != nil {
			return model.MemberPage{}, fmt.Errorf("list members: %w", err)
		}
		if len(ids) == 0 {
			metrics.RecordEventFilterDropped()
			s.logger.Debug(ctx, "event has no attendees, listing without event filter",
				logger.String("event_id", q.EventID))
		}
		byEvent = filter.IDs(ids)
	}

	rows, err := s.store.Select(ctx, s.tables.Members, recordstore.Query{
		Filter: filter.All(byName, byEvent),
		Offset: (page - 1) * size,
		Limit:  size,
	})
	if err != nil {
		return model.MemberPage{}, fmt.Errorf("list members: %w", err)
	}

	metrics.RecordMemberPage(len(rows))
	return model.MemberPage{
		Data:     membersFrom(rows),
		Page:     page,
		PageSize: size,
		HasMore:  len(rows) == size,
	}, nil
}

// GetMember returns one member.
func (s *Service) GetMember(ctx context.Context, id string) (model.Member, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.store.Find(ctx, s.tables.Members, id)
	if err != nil {
		return model.Member{}, fmt.Errorf("get member %s: %w", id, err)
	}
	return model.MemberFromFields(rec.ID, rec.Fields), nil
}

// CreateMember stores a new member. Any id on m is ignored.
func (s *Service) CreateMember(ctx context.Context, m model.Member) (model.Member, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.store.Create(ctx, s.tables.Members, m.Fields())
	if err != nil {
		return model.Member{}, fmt.Errorf("create member: %w", err)
	}
	metrics.RecordMemberCreated()
	s.logger.Info(ctx, "member created", logger.String("id", rec.ID))
	return model.MemberFromFields(rec.ID, rec.Fields), nil
}

// UpdateMember applies a partial update and returns the stored result.
func (s *Service) UpdateMember(ctx context.Context, id string, u model.MemberUpdate) (model.Member, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.store.Update(ctx, s.tables.Members, id, u.Fields())
	if err != nil {
		return model.Member{}, fmt.Errorf("update member %s: %w", id, err)
	}
	return model.MemberFromFields(rec.ID, rec.Fields), nil
}

// FilteredMembers returns every member matching all supplied criteria.
func (s *Service) FilteredMembers(ctx context.Context, c model.MemberCriteria) ([]model.Member, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var dept filter.Expr
	if c.Department != "" {
		dept = filter.Eq(model.FieldDepartment, c.Department)
	}
	flagEq := func(field string, v *bool) filter.Expr {
		if v == nil {
			return nil
		}
		return filter.Eq(field, *v)
	}

	rows, err := s.store.Select(ctx, s.tables.Members, recordstore.Query{
		Filter: filter.All(
			dept,
			flagEq(model.FieldIsBaptised, c.IsBaptised),
			flagEq(model.FieldCompletedMembership, c.CompletedMembership),
			flagEq(model.FieldCompletedNewBelievers, c.CompletedNewBelievers),
			flagEq(model.FieldCompletedSpiritualMaturity, c.CompletedSpiritualMaturity),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("filtered members: %w", err)
	}
	return membersFrom(rows), nil
}

func membersFrom(rows []recordstore.Record) []model.Member {
	out := make([]model.Member, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.MemberFromFields(r.ID, r.Fields))
	}
	return out
}
