package domain

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidPredicate = errors.New("invalid predicate")

var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Column names a persisted mandate column.
type Column string

type Op string

const (
	OpEq       Op = "eq"
	OpIn       Op = "in"
	OpNullOrEq Op = "null_or_eq"
)

type Condition struct {
	Column Column
	Op     Op
	Values []any
}

func Eq(col Column, value any) Condition {
	return Condition{Column: col, Op: OpEq, Values: []any{value}}
}

func In(col Column, values ...any) Condition {
	return Condition{Column: col, Op: OpIn, Values: values}
}

// NullOrEq matches rows where col is unset or already equals value.
func NullOrEq(col Column, value any) Condition {
	return Condition{Column: col, Op: OpNullOrEq, Values: []any{value}}
}

// Predicate is a conjunction of exact-match conditions.
type Predicate []Condition

func Where(conds ...Condition) Predicate {
	return Predicate(conds)
}

// And returns a new predicate; p is not modified.
func (p Predicate) And(conds ...Condition) Predicate {
	out := make(Predicate, 0, len(p)+len(conds))
	out = append(out, p...)
	return append(out, conds...)
}

func (p Predicate) Validate() error {
	if len(p) == 0 {
		return ErrInvalidPredicate
	}
	for _, c := range p {
		if !columnPattern.MatchString(string(c.Column)) {
			return ErrInvalidPredicate
		}
		switch c.Op {
		case OpEq, OpNullOrEq:
			if len(c.Values) != 1 {
				return ErrInvalidPredicate
			}
		case OpIn:
			if len(c.Values) == 0 {
				return ErrInvalidPredicate
			}
		default:
			return ErrInvalidPredicate
		}
	}
	return nil
}

// SQL renders the predicate as a parameterised WHERE fragment.
func (p Predicate) SQL() (string, []any) {
	parts := make([]string, 0, len(p))
	args := make([]any, 0, len(p))
	for _, c := range p {
		col := string(c.Column)
		switch c.Op {
		case OpEq:
			parts = append(parts, col+" = ?")
			args = append(args, c.Values[0])
		case OpIn:
			parts = append(parts, col+" IN ?")
			args = append(args, c.Values)
		case OpNullOrEq:
			parts = append(parts, "("+col+" IS NULL OR "+col+" = ?)")
			args = append(args, c.Values[0])
		}
	}
	return strings.Join(parts, " AND "), args
}

func (p Predicate) Columns() []Column {
	cols := make([]Column, 0, len(p))
	for _, c := range p {
		cols = append(cols, c.Column)
	}
	return cols
}
