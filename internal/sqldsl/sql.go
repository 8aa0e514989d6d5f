package sqldsl

import (
	"fmt"
	"strings"
)

// Sqlf formats SQL with automatic dedenting and blank line removal.
// The SQL shape is visible in the format string.
func Sqlf(format string, args ...any) string {
	s := fmt.Sprintf(format, args...)
	lines := strings.Split(s, "\n")

	// Find minimum indentation (ignoring empty lines)
	minIndent := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if indent := len(line) - len(trimmed); minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}

	var result []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		result = append(result, line[minIndent:])
	}
	return strings.Join(result, "\n")
}

// Ident sanitizes an identifier for use in SQL.
// Replaces non-alphanumeric characters with underscores.
func Ident(name string) string {
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}
	return result.String()
}

// InsertStmt represents an INSERT ... VALUES statement.
type InsertStmt struct {
	Table   string
	Columns []string
	Rows    []ValuesRow
}

// SQL renders the statement on a single line.
func (s InsertStmt) SQL() string {
	return "INSERT INTO " + s.Table + s.columnsSQL(" ") + " VALUES " + s.valuesSQL(", ")
}

// Block renders the statement with the table, column list, VALUES keyword
// and rows on separate lines.
func (s InsertStmt) Block() string {
	return "INSERT INTO " + s.Table + s.columnsSQL("\n") + "\nVALUES\n" + s.valuesSQL(",\n")
}

func (s InsertStmt) columnsSQL(sep string) string {
	if len(s.Columns) == 0 {
		return ""
	}
	return sep + "(" + strings.Join(s.Columns, ", ") + ")"
}

func (s InsertStmt) valuesSQL(sep string) string {
	rows := make([]string, len(s.Rows))
	for i, row := range s.Rows {
		rows[i] = row.SQL()
	}
	return strings.Join(rows, sep)
}
