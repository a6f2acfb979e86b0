package sqlitestore

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/domain/filter"
)

// where renders e as a parameterized predicate over the records table.
// Field values are read with json_each so relation arrays and scalars
// match the same way. Booleans treat a missing field as false.
type where struct {
	aliases map[string]string
	lower   cases.Caser
	args    []any
}

func (s *Store) renderWhere(table string, e filter.Expr) (string, []any, error) {
	if err := filter.Validate(e); err != nil {
		return "", nil, fmt.Errorf("%w: %w", recordstore.ErrInvalidQuery, err)
	}
	if e == nil {
		return "1", nil, nil
	}
	w := &where{aliases: s.aliases[table], lower: cases.Lower(language.Und)}
	var b strings.Builder
	w.expr(&b, e)
	return b.String(), w.args, nil
}

func (w *where) path(field string) string {
	if src, ok := w.aliases[field]; ok {
		field = src
	}
	return `$."` + field + `"`
}

func (w *where) expr(b *strings.Builder, e filter.Expr) {
	switch x := e.(type) {
	case filter.Equals:
		w.equals(b, x)
	case filter.Contains:
		b.WriteString("EXISTS (SELECT 1 FROM json_each(records.fields, ?) AS j WHERE instr(lower(CAST(j.value AS TEXT)), ?) > 0)")
		w.args = append(w.args, w.path(x.Field), w.lower.String(x.Substring))
	case filter.And:
		w.join(b, " AND ", x.Operands)
	case filter.Or:
		w.join(b, " OR ", x.Operands)
	}
}

func (w *where) equals(b *strings.Builder, x filter.Equals) {
	if x.Field == filter.RecordID {
		b.WriteString("records.id = ?")
		w.args = append(w.args, x.Value)
		return
	}
	if v, ok := x.Value.(bool); ok {
		if v {
			b.WriteString("EXISTS (SELECT 1 FROM json_each(records.fields, ?) AS j WHERE j.value = 1)")
		} else {
			b.WriteString("NOT EXISTS (SELECT 1 FROM json_each(records.fields, ?) AS j WHERE j.value = 1)")
		}
		w.args = append(w.args, w.path(x.Field))
		return
	}
	b.WriteString("EXISTS (SELECT 1 FROM json_each(records.fields, ?) AS j WHERE j.value = ?)")
	w.args = append(w.args, w.path(x.Field), x.Value)
}

func (w *where) join(b *strings.Builder, sep string, ops []filter.Expr) {
	b.WriteByte('(')
	for i, op := range ops {
		if i > 0 {
			b.WriteString(sep)
		}
		w.expr(b, op)
	}
	b.WriteByte(')')
}
