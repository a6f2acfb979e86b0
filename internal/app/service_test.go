package service_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/adapters/recordstore/sqlitestore"
	service "github.com/okian/register/internal/app"
	"github.com/okian/register/internal/domain/filter"
	"github.com/okian/register/internal/domain/model"
	"github.com/okian/register/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// call is one store request seen by spyStore.
type call struct {
	Op     string
	Table  string
	Filter filter.Expr
	Offset int
	Limit  int
}

// spyStore records every request before delegating.
type spyStore struct {
	mu    sync.Mutex
	next  recordstore.Store
	calls []call
}

func (s *spyStore) record(c call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *spyStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *spyStore) seen() []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call(nil), s.calls...)
}

func (s *spyStore) Select(ctx context.Context, table string, q recordstore.Query) ([]recordstore.Record, error) {
	s.record(call{Op: "select", Table: table, Filter: q.Filter, Offset: q.Offset, Limit: q.Limit})
	return s.next.Select(ctx, table, q)
}

func (s *spyStore) Find(ctx context.Context, table, id string) (recordstore.Record, error) {
	s.record(call{Op: "find", Table: table})
	return s.next.Find(ctx, table, id)
}

func (s *spyStore) Create(ctx context.Context, table string, f recordstore.Fields) (recordstore.Record, error) {
	s.record(call{Op: "create", Table: table})
	return s.next.Create(ctx, table, f)
}

func (s *spyStore) Update(ctx context.Context, table, id string, f recordstore.Fields) (recordstore.Record, error) {
	s.record(call{Op: "update", Table: table})
	return s.next.Update(ctx, table, id, f)
}

// blockingStore waits for the caller's context on every request.
type blockingStore struct{}

func (blockingStore) Select(ctx context.Context, _ string, _ recordstore.Query) ([]recordstore.Record, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) Find(ctx context.Context, _, _ string) (recordstore.Record, error) {
	<-ctx.Done()
	return recordstore.Record{}, ctx.Err()
}

func (blockingStore) Create(ctx context.Context, _ string, _ recordstore.Fields) (recordstore.Record, error) {
	<-ctx.Done()
	return recordstore.Record{}, ctx.Err()
}

func (blockingStore) Update(ctx context.Context, _, _ string, _ recordstore.Fields) (recordstore.Record, error) {
	<-ctx.Done()
	return recordstore.Record{}, ctx.Err()
}

// failingStore fails every request with err.
type failingStore struct{ err error }

func (f failingStore) Select(context.Context, string, recordstore.Query) ([]recordstore.Record, error) {
	return nil, f.err
}

func (f failingStore) Find(context.Context, string, string) (recordstore.Record, error) {
	return recordstore.Record{}, f.err
}

func (f failingStore) Create(context.Context, string, recordstore.Fields) (recordstore.Record, error) {
	return recordstore.Record{}, f.err
}

func (f failingStore) Update(context.Context, string, string, recordstore.Fields) (recordstore.Record, error) {
	return recordstore.Record{}, f.err
}

// newFixture opens an in-memory store laid out like the congregation base.
func newFixture(opts ...service.Option) (*service.Service, *spyStore, func()) {
	db, err := sqlitestore.Open(context.Background(), ":memory:",
		sqlitestore.WithFieldAlias("Service Attendance", model.FieldAttendanceEventID, model.FieldAttendanceEvent),
	)
	if err != nil {
		panic(err)
	}
	spy := &spyStore{next: db}
	return service.New(spy, opts...), spy, func() { _ = db.Close() }
}

func mustMember(svc *service.Service, first, last string) model.Member {
	m, err := svc.CreateMember(context.Background(), model.Member{FirstName: first, LastName: last})
	if err != nil {
		panic(err)
	}
	return m
}

func mustEvent(svc *service.Service, date string) model.ServiceEvent {
	e, err := svc.CreateEvent(context.Background(), model.ServiceEvent{Type: model.EventSunday, Date: date, Location: "Main hall"})
	if err != nil {
		panic(err)
	}
	return e
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(failingStore{})

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Tables(), ShouldResemble, service.DefaultTables())
			stats := svc.GetStats()
			So(stats["defaultPageSize"], ShouldEqual, service.DefaultPageSize)
			So(stats["storeTimeoutMs"], ShouldEqual, int64(10_000))
		})
	})

	Convey("Given a new service with custom options", t, func() {
		clock := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
		svc := service.New(failingStore{},
			service.WithTables(service.Tables{Members: "People"}),
			service.WithDefaultPageSize(25),
			service.WithStoreTimeout(time.Second),
			service.WithClock(func() time.Time { return clock }),
			service.WithLogger(logger.Get()),
		)

		Convey("Then the options should be applied and empty names kept", func() {
			So(svc.Tables().Members, ShouldEqual, "People")
			So(svc.Tables().Events, ShouldEqual, "Services")
			So(svc.GetStats()["defaultPageSize"], ShouldEqual, 25)
			So(svc.GetStats()["storeTimeoutMs"], ShouldEqual, int64(1000))
			So(svc.GetStats()["uptimeSeconds"], ShouldEqual, int64(0))
		})
	})
}

func TestService_QueryShape(t *testing.T) {
	Convey("Given a service over a spying store", t, func() {
		svc, spy, done := newFixture()
		defer done()
		ctx := context.Background()

		m1 := mustMember(svc, "Ama", "Mensah")
		m2 := mustMember(svc, "Kofi", "Owusu")
		ev := mustEvent(svc, "2024-03-03")
		_, _ = svc.MarkAttendance(ctx, m1.ID, ev.ID)
		_, _ = svc.MarkAttendance(ctx, m2.ID, ev.ID)
		spy.reset()

		Convey("When listing members of an event with a search term", func() {
			_, err := svc.ListMembers(ctx, service.MemberListQuery{Page: 3, PageSize: 10, SearchTerm: "am", EventID: ev.ID})
			So(err, ShouldBeNil)
			calls := spy.seen()

			Convey("Then the attendance sub-query should run before one member query", func() {
				So(len(calls), ShouldEqual, 2)
				So(calls[0].Table, ShouldEqual, "Service Attendance")
				So(calls[0].Filter, ShouldResemble, filter.Eq("event_id", ev.ID))
				So(calls[1].Table, ShouldEqual, "Members")
				So(calls[1].Offset, ShouldEqual, 20)
				So(calls[1].Limit, ShouldEqual, 10)
			})

			Convey("Then the name filter should be ANDed with the id filter", func() {
				So(calls[1].Filter, ShouldResemble, filter.And{Operands: []filter.Expr{
					filter.Or{Operands: []filter.Expr{
						filter.Contains{Field: "first_name", Substring: "am"},
						filter.Contains{Field: "last_name", Substring: "am"},
					}},
					filter.Or{Operands: []filter.Expr{filter.ID(m1.ID), filter.ID(m2.ID)}},
				}})
			})
		})

		Convey("When listing members with defaults", func() {
			page, err := svc.ListMembers(ctx, service.MemberListQuery{})
			So(err, ShouldBeNil)
			calls := spy.seen()

			Convey("Then page 1 of 100 should be requested without a filter", func() {
				So(page.Page, ShouldEqual, 1)
				So(page.PageSize, ShouldEqual, 100)
				So(len(calls), ShouldEqual, 1)
				So(calls[0].Filter, ShouldBeNil)
				So(calls[0].Offset, ShouldEqual, 0)
				So(calls[0].Limit, ShouldEqual, 100)
			})
		})

		Convey("When the page number would push the offset past an int", func() {
			page, err := svc.ListMembers(ctx, service.MemberListQuery{Page: 1 << 62, PageSize: 4})

			Convey("Then the listing should be refused without a store call", func() {
				So(errors.Is(err, service.ErrPageOutOfRange), ShouldBeTrue)
				So(page.Data, ShouldBeEmpty)
				So(spy.seen(), ShouldBeEmpty)
			})
		})

		Convey("When the page is the last one an int offset can reach", func() {
			last := math.MaxInt/4 + 1
			page, err := svc.ListMembers(ctx, service.MemberListQuery{Page: last, PageSize: 4})

			Convey("Then the query should run and return nothing", func() {
				So(err, ShouldBeNil)
				So(page.Data, ShouldBeEmpty)
				So(page.HasMore, ShouldBeFalse)
				So(spy.seen()[0].Offset, ShouldEqual, (last-1)*4)
			})
		})

		Convey("When running the lapsed report", func() {
			ev2 := mustEvent(svc, "2024-03-10")
			spy.reset()
			_, err := svc.LapsedAttendees(ctx, ev.ID, ev2.ID)
			So(err, ShouldBeNil)
			calls := spy.seen()

			Convey("Then two present-only attendance queries should precede one batched member query", func() {
				So(len(calls), ShouldEqual, 3)
				So(calls[0].Filter, ShouldResemble, filter.And{Operands: []filter.Expr{filter.Eq("event_id", ev.ID), filter.Eq("Status", true)}})
				So(calls[1].Filter, ShouldResemble, filter.And{Operands: []filter.Expr{filter.Eq("event_id", ev2.ID), filter.Eq("Status", true)}})
				So(calls[2].Table, ShouldEqual, "Members")
				So(calls[2].Filter, ShouldResemble, filter.Or{Operands: []filter.Expr{filter.ID(m1.ID), filter.ID(m2.ID)}})
				So(calls[2].Limit, ShouldEqual, 0)
			})
		})

		Convey("When the lapsed set is empty", func() {
			_, err := svc.LapsedAttendees(ctx, ev.ID, ev.ID)
			So(err, ShouldBeNil)

			Convey("Then no member query should be issued", func() {
				So(len(spy.seen()), ShouldEqual, 2)
			})
		})

		Convey("When filtering members by criteria", func() {
			yes, no := true, false
			_, err := svc.FilteredMembers(ctx, model.MemberCriteria{Department: "choir", IsBaptised: &yes, CompletedMembership: &no})
			So(err, ShouldBeNil)

			Convey("Then all criteria should be ANDed", func() {
				So(spy.seen()[0].Filter, ShouldResemble, filter.And{Operands: []filter.Expr{
					filter.Eq("department", "choir"),
					filter.Eq("is_baptised", true),
					filter.Eq("completed_membership", false),
				}})
			})
		})

		Convey("When creating an event with an unknown type", func() {
			_, err := svc.CreateEvent(ctx, model.ServiceEvent{Type: "friday"})

			Convey("Then it should be rejected before reaching the store", func() {
				So(errors.Is(err, model.ErrInvalidEventType), ShouldBeTrue)
				So(spy.seen(), ShouldBeEmpty)
			})
		})
	})
}

func TestService_Errors(t *testing.T) {
	Convey("Given a store that never answers", t, func() {
		svc := service.New(blockingStore{}, service.WithStoreTimeout(20*time.Millisecond))

		Convey("When listing members", func() {
			start := time.Now()
			_, err := svc.ListMembers(context.Background(), service.MemberListQuery{EventID: "recE"})

			Convey("Then the call should give up at the store timeout", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, 2*time.Second)
			})
		})
	})

	Convey("Given a failing store", t, func() {
		upstream := fmt.Errorf("boom: %w", recordstore.ErrUpstream)
		svc := service.New(failingStore{err: upstream})
		ctx := context.Background()

		Convey("Then every operation should pass the failure through with its name", func() {
			_, err := svc.ListMembers(ctx, service.MemberListQuery{})
			So(errors.Is(err, recordstore.ErrUpstream), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "list members:")

			_, err = svc.LapsedAttendees(ctx, "a", "b")
			So(errors.Is(err, recordstore.ErrUpstream), ShouldBeTrue)

			_, err = svc.MarkAttendance(ctx, "m", "e")
			So(errors.Is(err, recordstore.ErrUpstream), ShouldBeTrue)

			_, err = svc.ListEvents(ctx)
			So(errors.Is(err, recordstore.ErrUpstream), ShouldBeTrue)

			_, err = svc.ListBranches(ctx)
			So(errors.Is(err, recordstore.ErrUpstream), ShouldBeTrue)
		})
	})

	Convey("Given an empty store", t, func() {
		svc, _, done := newFixture()
		defer done()
		ctx := context.Background()

		Convey("Then single-record lookups should report not found", func() {
			_, err := svc.GetMember(ctx, "recMissing")
			So(errors.Is(err, recordstore.ErrNotFound), ShouldBeTrue)
			_, err = svc.GetEvent(ctx, "recMissing")
			So(errors.Is(err, recordstore.ErrNotFound), ShouldBeTrue)
			_, err = svc.GetBranch(ctx, "recMissing")
			So(errors.Is(err, recordstore.ErrNotFound), ShouldBeTrue)
			_, err = svc.UpdateMember(ctx, "recMissing", model.MemberUpdate{})
			So(errors.Is(err, recordstore.ErrNotFound), ShouldBeTrue)
		})
	})
}
