// Package sqlitestore implements recordstore.Store on a local SQLite file.
//
// Every table shares one records relation whose fields column holds the
// record's field map as JSON, so the store accepts any table and field set
// the way the hosted store does.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/register/internal/adapters/recordstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	tbl          TEXT NOT NULL,
	fields       TEXT NOT NULL CHECK (json_valid(fields)),
	created_time TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS records_tbl_seq ON records (tbl, seq);
`

const memoryPath = ":memory:"

// Store persists records in SQLite.
type Store struct {
	db      *sql.DB
	aliases map[string]map[string]string
	now     func() time.Time
}

var _ recordstore.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlitestore: path is required")
	}

	dsn := memoryPath
	if path != memoryPath {
		dsn = "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	if path == memoryPath {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: apply schema: %w", err)
	}

	s := &Store{
		db:      db,
		aliases: map[string]map[string]string{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Select returns matching rows in insertion order.
func (s *Store) Select(ctx context.Context, table string, q recordstore.Query) ([]recordstore.Record, error) {
	cond, args, err := s.renderWhere(table, q.Filter)
	if err != nil {
		return nil, err
	}
	limit := -1
	if q.Limit > 0 {
		limit = q.Limit
	}
	query := "SELECT id, fields, created_time FROM records WHERE tbl = ? AND " + cond + " ORDER BY seq LIMIT ? OFFSET ?"
	params := append([]any{table}, args...)
	params = append(params, limit, max(q.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, s.wrap(ctx, "select", err)
	}
	defer func() { _ = rows.Close() }()

	out := []recordstore.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, s.wrap(ctx, "select", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(ctx, "select", err)
	}
	return out, nil
}

// Find returns one row by id.
func (s *Store) Find(ctx context.Context, table, id string) (recordstore.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, fields, created_time FROM records WHERE tbl = ? AND id = ?", table, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return recordstore.Record{}, fmt.Errorf("sqlitestore: %s/%s: %w", table, id, recordstore.ErrNotFound)
	}
	if err != nil {
		return recordstore.Record{}, s.wrap(ctx, "find", err)
	}
	return rec, nil
}

// Create inserts a row with a generated id.
func (s *Store) Create(ctx context.Context, table string, fields recordstore.Fields) (recordstore.Record, error) {
	clean := recordstore.Fields{}
	for k, v := range fields {
		if v != nil {
			clean[k] = v
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("%w: sqlitestore: encode fields: %w", recordstore.ErrInvalidQuery, err)
	}
	id := newID()
	created := s.now().UTC().Format(time.RFC3339Nano)

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO records (id, tbl, fields, created_time) VALUES (?, ?, ?, ?)",
		id, table, string(raw), created,
	); err != nil {
		return recordstore.Record{}, s.wrap(ctx, "create", err)
	}
	return decodeRecord(id, string(raw), created)
}

// Update merges fields into an existing row. A nil value removes the field.
func (s *Store) Update(ctx context.Context, table, id string, fields recordstore.Fields) (recordstore.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return recordstore.Record{}, s.wrap(ctx, "update", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw, created string
	err = tx.QueryRowContext(ctx, "SELECT fields, created_time FROM records WHERE tbl = ? AND id = ?", table, id).Scan(&raw, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return recordstore.Record{}, fmt.Errorf("sqlitestore: %s/%s: %w", table, id, recordstore.ErrNotFound)
	}
	if err != nil {
		return recordstore.Record{}, s.wrap(ctx, "update", err)
	}

	merged := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		return recordstore.Record{}, s.wrap(ctx, "update", err)
	}
	for k, v := range fields {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	next, err := json.Marshal(merged)
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("%w: sqlitestore: encode fields: %w", recordstore.ErrInvalidQuery, err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE records SET fields = ? WHERE tbl = ? AND id = ?", string(next), table, id); err != nil {
		return recordstore.Record{}, s.wrap(ctx, "update", err)
	}
	if err := tx.Commit(); err != nil {
		return recordstore.Record{}, s.wrap(ctx, "update", err)
	}
	return decodeRecord(id, string(next), created)
}

func (s *Store) wrap(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("sqlitestore: %s: %w", op, ctxErr)
	}
	return fmt.Errorf("%w: sqlitestore: %s: %w", recordstore.ErrUpstream, op, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (recordstore.Record, error) {
	var id, raw, created string
	if err := sc.Scan(&id, &raw, &created); err != nil {
		return recordstore.Record{}, err
	}
	return decodeRecord(id, raw, created)
}

func decodeRecord(id, raw, created string) (recordstore.Record, error) {
	fields := recordstore.Fields{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return recordstore.Record{}, fmt.Errorf("decode fields of %s: %w", id, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("decode created time of %s: %w", id, err)
	}
	return recordstore.Record{ID: id, CreatedTime: ts, Fields: fields}, nil
}

// newID returns an Airtable-shaped id: "rec" followed by 14 characters.
func newID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
