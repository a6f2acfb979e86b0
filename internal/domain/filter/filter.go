// Package filter describes record selection predicates as data.
//
// Expressions are built by the service layer and rendered by each record
// store backend into its own query language. Nothing in this package
// produces query text.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// RecordID is the pseudo-field naming the store-assigned record id.
const RecordID = "RECORD_ID()"

// ErrInvalid is returned by Validate for malformed expressions.
var ErrInvalid = errors.New("invalid filter")

// Expr is a filter expression. The set of implementations is closed.
type Expr interface {
	isExpr()
}

// Equals matches records whose Field equals Value.
// Value is a string, bool, int or float64.
type Equals struct {
	Field string
	Value any
}

// Contains matches records whose Field contains Substring, ignoring case.
type Contains struct {
	Field     string
	Substring string
}

// And matches records that satisfy every operand.
type And struct {
	Operands []Expr
}

// Or matches records that satisfy at least one operand.
type Or struct {
	Operands []Expr
}

func (Equals) isExpr()   {}
func (Contains) isExpr() {}
func (And) isExpr()      {}
func (Or) isExpr()       {}

// Eq is shorthand for Equals{Field: field, Value: value}.
func Eq(field string, value any) Expr {
	return Equals{Field: field, Value: value}
}

// ID matches the record with the given id.
func ID(id string) Expr {
	return Equals{Field: RecordID, Value: id}
}

// IDs matches any record whose id is in ids. It returns nil for an empty list.
func IDs(ids []string) Expr {
	ops := make([]Expr, 0, len(ids))
	for _, id := range ids {
		ops = append(ops, ID(id))
	}
	return Any(ops...)
}

// All conjoins the non-nil operands. It returns nil when none remain and the
// operand itself when exactly one remains.
func All(ops ...Expr) Expr {
	kept := compact(ops)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return And{Operands: kept}
}

// Any disjoins the non-nil operands with the same collapsing rules as All.
func Any(ops ...Expr) Expr {
	kept := compact(ops)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return Or{Operands: kept}
}

func compact(ops []Expr) []Expr {
	kept := make([]Expr, 0, len(ops))
	for _, op := range ops {
		if op != nil {
			kept = append(kept, op)
		}
	}
	return kept
}

// Validate checks e for field names and values every backend can render.
// A nil expression is valid and selects everything.
func Validate(e Expr) error {
	switch x := e.(type) {
	case nil:
		return nil
	case Equals:
		if err := validateField(x.Field); err != nil {
			return err
		}
		switch v := x.Value.(type) {
		case string, bool, int, int64, float64:
			if x.Field == RecordID {
				if _, ok := v.(string); !ok {
					return fmt.Errorf("%w: %s compares against a string id", ErrInvalid, RecordID)
				}
			}
			return nil
		default:
			return fmt.Errorf("%w: field %q: unsupported value type %T", ErrInvalid, x.Field, x.Value)
		}
	case Contains:
		if x.Field == RecordID {
			return fmt.Errorf("%w: substring match on %s", ErrInvalid, RecordID)
		}
		return validateField(x.Field)
	case And:
		return validateOperands("AND", x.Operands)
	case Or:
		return validateOperands("OR", x.Operands)
	default:
		return fmt.Errorf("%w: unknown expression %T", ErrInvalid, e)
	}
}

func validateOperands(kind string, ops []Expr) error {
	if len(ops) == 0 {
		return fmt.Errorf("%w: empty %s", ErrInvalid, kind)
	}
	for _, op := range ops {
		if op == nil {
			return fmt.Errorf("%w: nil operand in %s", ErrInvalid, kind)
		}
		if err := Validate(op); err != nil {
			return err
		}
	}
	return nil
}

func validateField(name string) error {
	if name == RecordID {
		return nil
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty field name", ErrInvalid)
	}
	for _, r := range name {
		if r == '{' || r == '}' || r == '"' || unicode.IsControl(r) {
			return fmt.Errorf("%w: field name %q", ErrInvalid, name)
		}
	}
	return nil
}

// Fields returns the distinct field names referenced by e in first-seen order.
func Fields(e Expr) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		var name string
		switch x := e.(type) {
		case Equals:
			name = x.Field
		case Contains:
			name = x.Field
		case And:
			for _, op := range x.Operands {
				walk(op)
			}
			return
		case Or:
			for _, op := range x.Operands {
				walk(op)
			}
			return
		default:
			return
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	walk(e)
	return out
}
