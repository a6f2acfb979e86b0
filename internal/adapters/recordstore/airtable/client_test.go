package airtable_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/adapters/recordstore/airtable"
	"github.com/okian/register/internal/domain/filter"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeAirtable serves a single table of n rows with cursor pagination.
type fakeAirtable struct {
	mu       sync.Mutex
	rows     int
	requests []*http.Request
	tables   []string
	bodies   []string
	status   int
	errBody  string
	delay    time.Duration
}

type batch struct {
	Records []struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	} `json:"records"`
	Typecast bool `json:"typecast"`
}

func (f *fakeAirtable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.tables = append(f.tables, r.PathValue("table"))
	f.bodies = append(f.bodies, string(body))
	status, errBody, delay := f.status, f.errBody, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if r.Header.Get("Authorization") != "Bearer patTest" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"type":"AUTHENTICATION_REQUIRED","message":"bad token"}}`)
		return
	}
	if status != 0 {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, errBody)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		if r.PathValue("id") != "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": r.PathValue("id"), "createdTime": "2024-02-01T10:00:00.000Z",
				"fields": map[string]any{"first_name": "Ama"},
			})
			return
		}
		f.list(w, r)
	case http.MethodPost, http.MethodPatch:
		var req batch
		_ = json.Unmarshal(body, &req)
		var out []map[string]any
		for _, rec := range req.Records {
			id := rec.ID
			if id == "" {
				id = "recCreated00001"
			}
			out = append(out, map[string]any{"id": id, "createdTime": "2024-02-01T10:00:00.000Z", "fields": rec.Fields})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"records": out})
	}
}

func (f *fakeAirtable) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	limit := f.rows
	if m, err := strconv.Atoi(q.Get("maxRecords")); err == nil && m < limit {
		limit = m
	}
	start, _ := strconv.Atoi(q.Get("offset"))
	end := min(start+pageSize, limit)

	var records []map[string]any
	for i := start; i < end; i++ {
		records = append(records, map[string]any{
			"id": fmt.Sprintf("rec%03d", i), "createdTime": "2024-02-01T10:00:00.000Z",
			"fields": map[string]any{"n": i},
		})
	}
	resp := map[string]any{"records": records}
	if end < limit {
		resp["offset"] = strconv.Itoa(end)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newServer(f *fakeAirtable, opts ...airtable.Option) (*httptest.Server, *airtable.Client) {
	mux := http.NewServeMux()
	mux.Handle("GET /v0/appBase/{table}", f)
	mux.Handle("GET /v0/appBase/{table}/{id}", f)
	mux.Handle("POST /v0/appBase/{table}", f)
	mux.Handle("PATCH /v0/appBase/{table}", f)
	srv := httptest.NewServer(mux)
	opts = append([]airtable.Option{airtable.WithPageSize(10), airtable.WithRateLimit(1000)}, opts...)
	c, err := airtable.New(srv.URL+"/v0", "appBase", "patTest", opts...)
	if err != nil {
		panic(err)
	}
	return srv, c
}

func TestClientSelect(t *testing.T) {
	Convey("Given an Airtable table of 35 rows served 10 per page", t, func() {
		f := &fakeAirtable{rows: 35}
		srv, c := newServer(f)
		defer srv.Close()
		ctx := context.Background()

		Convey("When selecting everything", func() {
			rows, err := c.Select(ctx, "Members", recordstore.Query{})

			Convey("Then every cursor page should be walked", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 35)
				So(len(f.requests), ShouldEqual, 4)
				So(f.requests[0].URL.Query().Get("maxRecords"), ShouldEqual, "")
				So(f.requests[1].URL.Query().Get("offset"), ShouldEqual, "10")
			})
		})

		Convey("When selecting page 2 with a page size of 10", func() {
			rows, err := c.Select(ctx, "Members", recordstore.Query{Offset: 10, Limit: 10})

			Convey("Then rows 10..19 should come back and fetching should stop", func() {
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 10)
				So(rows[0].ID, ShouldEqual, "rec010")
				So(rows[9].ID, ShouldEqual, "rec019")
				So(f.requests[0].URL.Query().Get("maxRecords"), ShouldEqual, "20")
				So(len(f.requests), ShouldEqual, 2)
			})
		})

		Convey("When the offset is past the end", func() {
			rows, err := c.Select(ctx, "Members", recordstore.Query{Offset: 50, Limit: 10})

			Convey("Then an empty non-nil slice should be returned", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldNotBeNil)
				So(rows, ShouldBeEmpty)
			})
		})

		Convey("When a filter is given", func() {
			_, err := c.Select(ctx, "Service Attendance", recordstore.Query{
				Filter: filter.All(filter.Eq("event_id", "recE"), filter.Eq("Status", true)),
			})

			Convey("Then it should be sent as filterByFormula on the table path", func() {
				So(err, ShouldBeNil)
				So(f.requests[0].URL.Query().Get("filterByFormula"), ShouldEqual, `AND({event_id} = "recE", {Status} = TRUE())`)
				So(f.tables[0], ShouldEqual, "Service Attendance")
				So(f.requests[0].Header.Get("Authorization"), ShouldEqual, "Bearer patTest")
				So(f.requests[0].Header.Get("User-Agent"), ShouldEqual, "register/1.0")
			})
		})

		Convey("When offset and limit would overflow", func() {
			_, err := c.Select(ctx, "Members", recordstore.Query{Offset: math.MaxInt - 5, Limit: 10})

			Convey("Then the query should be rejected without a request", func() {
				So(errors.Is(err, recordstore.ErrInvalidQuery), ShouldBeTrue)
				So(f.requests, ShouldBeEmpty)
			})
		})

		Convey("When the filter is invalid", func() {
			_, err := c.Select(ctx, "Members", recordstore.Query{Filter: filter.Eq("", "x")})

			Convey("Then no request should be made", func() {
				So(errors.Is(err, recordstore.ErrInvalidQuery), ShouldBeTrue)
				So(f.requests, ShouldBeEmpty)
			})
		})
	})
}

func TestClientWrites(t *testing.T) {
	Convey("Given an Airtable client", t, func() {
		f := &fakeAirtable{}
		srv, c := newServer(f)
		defer srv.Close()
		ctx := context.Background()

		Convey("When creating a record", func() {
			rec, err := c.Create(ctx, "Service Attendance", recordstore.Fields{"Member": []string{"recM"}, "Status": true})

			Convey("Then the fields should be posted with typecast", func() {
				So(err, ShouldBeNil)
				So(rec.ID, ShouldEqual, "recCreated00001")
				So(rec.Fields["Status"], ShouldEqual, true)
				So(rec.CreatedTime.IsZero(), ShouldBeFalse)

				var sent batch
				So(json.Unmarshal([]byte(f.bodies[0]), &sent), ShouldBeNil)
				So(sent.Typecast, ShouldBeTrue)
				So(len(sent.Records), ShouldEqual, 1)
				So(sent.Records[0].Fields["Member"], ShouldResemble, []any{"recM"})
			})
		})

		Convey("When updating a record", func() {
			rec, err := c.Update(ctx, "Members", "recM1", recordstore.Fields{"department": "choir"})

			Convey("Then a partial PATCH should name the record", func() {
				So(err, ShouldBeNil)
				So(rec.ID, ShouldEqual, "recM1")
				So(rec.Fields["department"], ShouldEqual, "choir")
				So(f.requests[0].Method, ShouldEqual, http.MethodPatch)

				var sent batch
				So(json.Unmarshal([]byte(f.bodies[0]), &sent), ShouldBeNil)
				So(sent.Records[0].ID, ShouldEqual, "recM1")
			})
		})

		Convey("When finding a record", func() {
			rec, err := c.Find(ctx, "Members", "recM7")

			Convey("Then it should be decoded", func() {
				So(err, ShouldBeNil)
				So(rec.ID, ShouldEqual, "recM7")
				So(rec.Fields["first_name"], ShouldEqual, "Ama")
			})
		})

		Convey("When the id is empty", func() {
			_, err := c.Find(ctx, "Members", "")

			Convey("Then it should be not found without a request", func() {
				So(errors.Is(err, recordstore.ErrNotFound), ShouldBeTrue)
				So(f.requests, ShouldBeEmpty)
			})
		})
	})
}

func TestClientErrors(t *testing.T) {
	Convey("Given an Airtable client", t, func() {
		f := &fakeAirtable{}
		srv, c := newServer(f)
		defer srv.Close()
		ctx := context.Background()

		Convey("When a record does not exist", func() {
			f.status, f.errBody = http.StatusNotFound, `{"error":"NOT_FOUND"}`
			_, err := c.Find(ctx, "Members", "recMissing")

			Convey("Then ErrNotFound should be matchable", func() {
				So(errors.Is(err, recordstore.ErrNotFound), ShouldBeTrue)
				var apiErr *airtable.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusNotFound)
				So(apiErr.Op, ShouldEqual, "get")
			})
		})

		Convey("When the formula is rejected", func() {
			f.status, f.errBody = http.StatusUnprocessableEntity, `{"error":{"type":"INVALID_FILTER_BY_FORMULA","message":"bad formula"}}`
			_, err := c.Select(ctx, "Members", recordstore.Query{})

			Convey("Then ErrInvalidQuery should be matchable", func() {
				So(errors.Is(err, recordstore.ErrInvalidQuery), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "422")
			})
		})

		Convey("When rate limited", func() {
			f.status, f.errBody = http.StatusTooManyRequests, `{"errors":[{"error":"RATE_LIMIT_REACHED"}]}`
			_, err := c.Create(ctx, "Members", recordstore.Fields{})

			Convey("Then it should surface as an upstream failure without retry", func() {
				So(errors.Is(err, recordstore.ErrUpstream), ShouldBeTrue)
				So(len(f.requests), ShouldEqual, 1)
			})
		})

		Convey("When the token is wrong", func() {
			bad, err := airtable.New(srv.URL+"/v0", "appBase", "nope", airtable.WithRateLimit(1000))
			So(err, ShouldBeNil)
			_, err = bad.Select(ctx, "Members", recordstore.Query{})

			Convey("Then the status should be reported as an upstream failure", func() {
				So(errors.Is(err, recordstore.ErrUpstream), ShouldBeTrue)
				var apiErr *airtable.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the caller's deadline passes", func() {
			f.delay = time.Second
			tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, err := c.Select(tctx, "Members", recordstore.Query{})

			Convey("Then a deadline error should be returned", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}

func TestClientOptions(t *testing.T) {
	Convey("Given a shared HTTP client", t, func() {
		shared := &http.Client{Timeout: 3 * time.Second}
		f := &fakeAirtable{}
		srv, c := newServer(f, airtable.WithHTTPClient(shared), airtable.WithTimeout(time.Millisecond),
			airtable.WithUserAgent("register-test/2"))
		defer srv.Close()

		Convey("When the client is built and used", func() {
			_, err := c.Find(context.Background(), "Members", "recM1")

			Convey("Then the shared client should be left untouched", func() {
				So(err, ShouldBeNil)
				So(shared.Timeout, ShouldEqual, 3*time.Second)
				So(shared.Transport, ShouldBeNil)
				So(f.requests[0].Header.Get("User-Agent"), ShouldEqual, "register-test/2")
			})
		})
	})

	Convey("Given the default HTTP client", t, func() {
		before := http.DefaultClient.Timeout
		_, err := airtable.New("https://api.airtable.com/v0", "app", "tok",
			airtable.WithHTTPClient(http.DefaultClient), airtable.WithTimeout(time.Second))

		Convey("Then New should not change it", func() {
			So(err, ShouldBeNil)
			So(http.DefaultClient.Timeout, ShouldEqual, before)
			So(http.DefaultClient.Transport, ShouldBeNil)
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given missing settings", t, func() {
		Convey("Then New should fail with ErrConfig", func() {
			_, err := airtable.New("", "app", "tok")
			So(errors.Is(err, airtable.ErrConfig), ShouldBeTrue)
			_, err = airtable.New("https://api.airtable.com/v0", "", "tok")
			So(errors.Is(err, airtable.ErrConfig), ShouldBeTrue)
			_, err = airtable.New("https://api.airtable.com/v0", "app", "")
			So(errors.Is(err, airtable.ErrConfig), ShouldBeTrue)
		})
	})
}
