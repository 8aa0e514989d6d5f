// Package users splits a multi-user account script into one group of
// statements per account and writes the per-account creation and grant
// scripts.
package users

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pthm/sqlprovision/pkg/placeholder"
	"github.com/pthm/sqlprovision/pkg/sqlscan"
)

const creationKeyword = "CREATE USER"

var usernamePattern = regexp.MustCompile(`CREATE USER "(.*?)"`)

// Group holds the statements of one account, in source order. Every
// statement ends with a single terminator.
type Group struct {
	Username   string
	Statements []string
}

// Creation returns the account-creation statements.
func (g Group) Creation() []string {
	var out []string
	for _, s := range g.Statements {
		if IsCreation(s) {
			out = append(out, s)
		}
	}
	return out
}

// Grants returns every statement that is not an account creation.
func (g Group) Grants() []string {
	var out []string
	for _, s := range g.Statements {
		if !IsCreation(s) {
			out = append(out, s)
		}
	}
	return out
}

// IsCreation reports whether stmt creates an account.
func IsCreation(stmt string) bool {
	return strings.Contains(stmt, creationKeyword)
}

// Skipped records a source group that did not name an account.
type Skipped struct {
	// Index is the position of the group among the non-blank groups.
	Index   int
	Line    int
	Reason  string
	Excerpt string
}

// Result is the outcome of Separate. Skipped is non-empty when some groups
// could not be attributed to an account.
type Result struct {
	Groups  []Group
	Skipped []Skipped
}

// Usernames lists the accounts in first-appearance order.
func (r Result) Usernames() []string {
	out := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		out[i] = g.Username
	}
	return out
}

// Separate splits content into per-account groups. A group is the text up
// to a terminator; each of its lines becomes one statement. Groups for an
// account that appears more than once are merged.
func Separate(content string, logger *zap.Logger) Result {
	if logger == nil {
		logger = zap.NewNop()
	}

	var res Result
	index := map[string]int{}
	for i, stmt := range sqlscan.Scan(content) {
		m := usernamePattern.FindStringSubmatch(stmt.Text)
		if m == nil || m[1] == "" {
			skip := Skipped{
				Index:   i,
				Line:    stmt.Line,
				Reason:  `no CREATE USER "name" clause`,
				Excerpt: excerpt(stmt.Body()),
			}
			logger.Warn("skipping account group",
				zap.Int("group", skip.Index),
				zap.Int("line", skip.Line),
				zap.String("reason", skip.Reason),
				zap.String("excerpt", skip.Excerpt))
			res.Skipped = append(res.Skipped, skip)
			continue
		}

		name := m[1]
		pos, ok := index[name]
		if !ok {
			pos = len(res.Groups)
			index[name] = pos
			res.Groups = append(res.Groups, Group{Username: name})
		}
		res.Groups[pos].Statements = append(res.Groups[pos].Statements, statements(stmt.Text)...)
	}
	return res
}

// statements breaks a group into terminated one-line statements. Double
// quotes are dropped and the secret placeholder is re-quoted so that it
// survives as a quoted identifier.
func statements(group string) []string {
	var out []string
	for _, line := range strings.Split(group, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		line = strings.ReplaceAll(line, `"`, "")
		line = strings.ReplaceAll(line, placeholder.Secret, `"`+placeholder.Secret+`"`)
		out = append(out, line+string(sqlscan.Terminator))
	}
	return out
}

func excerpt(s string) string {
	const limit = 60
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
