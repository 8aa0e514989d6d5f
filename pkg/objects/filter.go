// Package objects cleans schema-object dumps for a client: destructive
// statements are removed, the client token is replaced and, for table and
// index scripts, only the structural head of each statement is kept.
package objects

import (
	"regexp"
	"strings"

	"github.com/pthm/sqlprovision/pkg/metadata"
	"github.com/pthm/sqlprovision/pkg/placeholder"
	"github.com/pthm/sqlprovision/pkg/sqlscan"
)

// Class is the kind of object script, derived from its filename.
type Class int

const (
	ClassOther Class = iota
	ClassTables
	ClassIndexes
)

func (c Class) String() string {
	switch c {
	case ClassTables:
		return "tables"
	case ClassIndexes:
		return "indexes"
	default:
		return "other"
	}
}

// ClassOf classifies an object script by name.
func ClassOf(filename string) Class {
	switch {
	case strings.Contains(filename, "Indexes"):
		return ClassIndexes
	case strings.Contains(filename, "Tables"):
		return ClassTables
	default:
		return ClassOther
	}
}

var (
	tableHead = regexp.MustCompile(`(?is)^(CREATE\s+TABLE.*?)(?:\s+PCTUSED|$)`)
	indexHead = regexp.MustCompile(`(?is)^(CREATE\s+(?:UNIQUE\s+)?INDEX.*? ON .*?\(.*?\)\s+(?:NO)?LOGGING\s+TABLESPACE .*?)(?:\s+PCTFREE|$)`)
)

// Filter transforms a dump for the given script class. Any statement
// carrying a DROP keyword is left out, whatever its leading keyword.
func Filter(content string, class Class, c metadata.Client) string {
	stmts := sqlscan.Scan(content)

	if class == ClassOther {
		var b strings.Builder
		for _, s := range stmts {
			if !s.Destructive {
				b.WriteString(s.String())
			}
		}
		return placeholder.ReplaceClientTokenFold(strings.TrimSpace(b.String()), c)
	}

	kind, head := sqlscan.KindCreateTable, tableHead
	if class == ClassIndexes {
		kind, head = sqlscan.KindCreateIndex, indexHead
	}

	var heads []string
	for _, s := range stmts {
		if s.Kind != kind || s.Destructive {
			continue
		}
		m := head.FindStringSubmatch(placeholder.ReplaceClientTokenFold(s.Body(), c))
		if m == nil {
			continue
		}
		heads = append(heads, m[1])
	}
	if len(heads) == 0 {
		return ""
	}
	return strings.Join(heads, ";\n\n") + ";"
}
