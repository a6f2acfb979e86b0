package airtable

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/domain/filter"
)

// Formula renders e as an Airtable filterByFormula expression.
// A nil expression renders as "".
func Formula(e filter.Expr) (string, error) {
	if err := filter.Validate(e); err != nil {
		return "", fmt.Errorf("%w: %w", recordstore.ErrInvalidQuery, err)
	}
	if e == nil {
		return "", nil
	}
	var b strings.Builder
	writeExpr(&b, e, cases.Lower(language.Und))
	return b.String(), nil
}

func writeExpr(b *strings.Builder, e filter.Expr, lower cases.Caser) {
	switch x := e.(type) {
	case filter.Equals:
		writeField(b, x.Field)
		b.WriteString(" = ")
		writeValue(b, x.Value)
	case filter.Contains:
		b.WriteString("SEARCH(")
		writeString(b, lower.String(x.Substring))
		b.WriteString(", LOWER(")
		writeField(b, x.Field)
		b.WriteString("))")
	case filter.And:
		writeCall(b, "AND", x.Operands, lower)
	case filter.Or:
		writeCall(b, "OR", x.Operands, lower)
	}
}

func writeCall(b *strings.Builder, fn string, ops []filter.Expr, lower cases.Caser) {
	b.WriteString(fn)
	b.WriteByte('(')
	for i, op := range ops {
		if i > 0 {
			b.WriteString(", ")
		}
		writeExpr(b, op, lower)
	}
	b.WriteByte(')')
}

func writeField(b *strings.Builder, name string) {
	if name == filter.RecordID {
		b.WriteString(filter.RecordID)
		return
	}
	b.WriteByte('{')
	b.WriteString(name)
	b.WriteByte('}')
}

func writeValue(b *strings.Builder, v any) {
	switch x := v.(type) {
	case string:
		writeString(b, x)
	case bool:
		if x {
			b.WriteString("TRUE()")
		} else {
			b.WriteString("FALSE()")
		}
	case int:
		b.WriteString(strconv.Itoa(x))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
	}
}

// writeString emits a double-quoted formula string literal.
func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				// no escape form for the rest
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
