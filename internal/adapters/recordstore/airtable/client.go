// Package airtable implements recordstore.Store over the Airtable REST API.
package airtable

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	api "github.com/mehanizm/airtable"

	"github.com/okian/register/internal/adapters/recordstore"
)

const (
	maxPageSize    = 100
	defaultTimeout = 30 * time.Second
	// Airtable allows five requests per second per base.
	defaultRateLimit = 4
)

// Client talks to one Airtable base.
type Client struct {
	sdk       *api.Client
	baseID    string
	pageSize  int
	typecast  bool
	userAgent string
	timeout   time.Duration
	rateLimit int
	http      *http.Client
}

var _ recordstore.Store = (*Client)(nil)

// New creates a client for baseID. baseURL is normally https://api.airtable.com/v0.
func New(baseURL, baseID, token string, opts ...Option) (*Client, error) {
	if baseURL == "" || baseID == "" || token == "" {
		return nil, fmt.Errorf("%w: base url, base id and token are required", ErrConfig)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	c := &Client{
		baseID:    baseID,
		pageSize:  maxPageSize,
		typecast:  true,
		userAgent: "register/1.0",
		timeout:   defaultTimeout,
		rateLimit: defaultRateLimit,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.sdk = api.NewClient(token)
	if err := c.sdk.SetBaseURL(strings.TrimRight(baseURL, "/")); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	c.sdk.SetRateLimit(c.rateLimit)
	c.sdk.SetCustomClient(c.httpClient())
	return c, nil
}

// httpClient returns the client requests go through. A caller-supplied
// client is copied so the User-Agent transport never leaks into it.
func (c *Client) httpClient() *http.Client {
	var hc http.Client
	if c.http != nil {
		hc = *c.http
	} else {
		hc.Timeout = c.timeout
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = userAgentTransport{base: base, userAgent: c.userAgent}
	return &hc
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

// Select lists rows. Airtable only paginates by cursor, so numeric offsets
// are emulated: fetch up to Offset+Limit rows and drop the first Offset.
func (c *Client) Select(ctx context.Context, table string, q recordstore.Query) ([]recordstore.Record, error) {
	formula, err := Formula(q.Filter)
	if err != nil {
		return nil, err
	}
	if q.Offset < 0 || q.Limit < 0 || (q.Limit > 0 && q.Offset > math.MaxInt-q.Limit) {
		return nil, fmt.Errorf("%w: offset %d limit %d out of range", recordstore.ErrInvalidQuery, q.Offset, q.Limit)
	}
	want := 0 // unbounded
	if q.Limit > 0 {
		want = q.Offset + q.Limit
	}

	var rows []recordstore.Record
	cursor := ""
	for {
		req := c.sdk.GetTable(c.baseID, table).GetRecords().PageSize(c.pageSize)
		if formula != "" {
			req = req.WithFilterFormula(formula)
		}
		if want > 0 {
			req = req.MaxRecords(want)
		}
		if cursor != "" {
			req = req.WithOffset(cursor)
		}
		page, err := req.DoContext(ctx)
		if err != nil {
			return nil, c.wrap(ctx, "list", err, true)
		}
		for _, r := range page.Records {
			rows = append(rows, toRecord(r))
		}
		if page.Offset == "" || (want > 0 && len(rows) >= want) {
			break
		}
		cursor = page.Offset
	}

	if q.Offset >= len(rows) {
		return []recordstore.Record{}, nil
	}
	rows = rows[q.Offset:]
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

// Find fetches one row by id.
func (c *Client) Find(ctx context.Context, table, id string) (recordstore.Record, error) {
	if id == "" {
		return recordstore.Record{}, fmt.Errorf("airtable: empty id: %w", recordstore.ErrNotFound)
	}
	rec, err := c.sdk.GetTable(c.baseID, table).GetRecordContext(ctx, id)
	if err != nil {
		return recordstore.Record{}, c.wrap(ctx, "get", err, false)
	}
	return toRecord(rec), nil
}

// Create inserts one row.
func (c *Client) Create(ctx context.Context, table string, fields recordstore.Fields) (recordstore.Record, error) {
	out, err := c.sdk.GetTable(c.baseID, table).AddRecordsContext(ctx, &api.Records{
		Records:  []*api.Record{{Fields: fields}},
		Typecast: c.typecast,
	})
	if err != nil {
		return recordstore.Record{}, c.wrap(ctx, "create", err, false)
	}
	return single(out)
}

// Update patches one row; fields not named are left unchanged.
func (c *Client) Update(ctx context.Context, table, id string, fields recordstore.Fields) (recordstore.Record, error) {
	if id == "" {
		return recordstore.Record{}, fmt.Errorf("airtable: empty id: %w", recordstore.ErrNotFound)
	}
	out, err := c.sdk.GetTable(c.baseID, table).UpdateRecordsPartialContext(ctx, &api.Records{
		Records:  []*api.Record{{ID: id, Fields: fields}},
		Typecast: c.typecast,
	})
	if err != nil {
		return recordstore.Record{}, c.wrap(ctx, "update", err, false)
	}
	return single(out)
}

// wrap turns a library error into a recordstore error. A context error
// wins over whatever the transport reported.
func (c *Client) wrap(ctx context.Context, op string, err error, list bool) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("airtable: %s: %w", op, ctxErr)
	}
	return classify(op, err, list)
}

func single(out *api.Records) (recordstore.Record, error) {
	if out == nil || len(out.Records) != 1 {
		return recordstore.Record{}, fmt.Errorf("%w: airtable: expected one record in response", recordstore.ErrUpstream)
	}
	return toRecord(out.Records[0]), nil
}

func toRecord(r *api.Record) recordstore.Record {
	if r == nil {
		return recordstore.Record{}
	}
	rec := recordstore.Record{ID: r.ID, Fields: recordstore.Fields(r.Fields)}
	if rec.Fields == nil {
		rec.Fields = recordstore.Fields{}
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedTime); err == nil {
		rec.CreatedTime = t
	}
	return rec
}
