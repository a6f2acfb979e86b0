package sqlitestore

import "time"

// Option configures a Store.
type Option func(*Store)

// WithFieldAlias makes filters on alias in table read the source field.
// It stands in for computed lookup fields such as an attendance row's
// event_id, which mirrors its "Service Event" relation.
func WithFieldAlias(table, alias, source string) Option {
	return func(s *Store) {
		if s.aliases[table] == nil {
			s.aliases[table] = map[string]string{}
		}
		s.aliases[table][alias] = source
	}
}

// WithClock sets the clock used for created times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
