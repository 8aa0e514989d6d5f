package sqldsl

import (
	"strconv"
	"strings"
)

// Expr is the interface that all SQL expression types implement.
type Expr interface {
	SQL() string
}

// Lit represents a literal string value (auto-quoted with single quotes).
type Lit string

// SQL renders the literal with single quotes.
func (l Lit) SQL() string {
	// Escape single quotes by doubling them
	escaped := strings.ReplaceAll(string(l), "'", "''")
	return "'" + escaped + "'"
}

// Raw is an escape hatch for arbitrary SQL expressions.
type Raw string

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string {
	return string(r)
}

// Int represents an integer literal.
type Int int64

// SQL renders the integer.
func (i Int) SQL() string {
	return strconv.FormatInt(int64(i), 10)
}

// ValuesRow represents a single row in a VALUES clause as typed expressions.
type ValuesRow []Expr

// SQL renders the row as (expr1, expr2, ...).
func (r ValuesRow) SQL() string {
	if len(r) == 0 {
		return "()"
	}
	parts := make([]string, len(r))
	for i, expr := range r {
		parts[i] = expr.SQL()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
