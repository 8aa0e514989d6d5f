package users

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/pthm/sqlprovision/internal/sqldsl"
)

// AuditTable receives one row per created account.
const AuditTable = "dba_util.msa_sec_app_db_schema"

// DefaultCreator is recorded in audit rows when none is configured.
const DefaultCreator = "SQLPROVISION"

// CreationFile is the name of the account-creation script for user.
func CreationFile(user string) string { return "create_user_" + user + ".sql" }

// GrantFile is the name of the grant script for user.
func GrantFile(user string) string { return "grant_tables_" + user + ".sql" }

// AuditInsert renders the bookkeeping row appended after each account
// creation statement.
func AuditInsert(user, creator string) string {
	if creator == "" {
		creator = DefaultCreator
	}
	return sqldsl.InsertStmt{
		Table:   AuditTable,
		Columns: []string{"db_schema", "access_approver_email", "db_schema_type", "created", "creator"},
		Rows: []sqldsl.ValuesRow{{
			sqldsl.Lit(user),
			sqldsl.Lit("NONE"),
			sqldsl.Lit("PROD"),
			sqldsl.Raw("SYSDATE"),
			sqldsl.Lit(creator),
		}},
	}.SQL() + ";"
}

// Write emits the creation and grant scripts of every group into dir and
// returns the paths written.
func Write(dir string, groups []Group, creator string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var written []string
	for _, g := range groups {
		var creation []string
		for _, stmt := range g.Creation() {
			creation = append(creation, stmt, AuditInsert(g.Username, creator))
		}

		for _, f := range []struct {
			name  string
			lines []string
		}{
			{CreationFile(g.Username), creation},
			{GrantFile(g.Username), g.Grants()},
		} {
			path := filepath.Join(dir, f.name)
			if err := os.WriteFile(path, []byte(joinLines(f.lines)), 0o644); err != nil {
				return written, fmt.Errorf("writing %s: %w", f.name, err)
			}
			written = append(written, path)
		}
		logger.Info("wrote account scripts", zap.String("user", g.Username))
	}
	return written, nil
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// OrderUsers moves bootstrap to the front when it is present among several
// names. The input slice is not modified.
func OrderUsers(names []string, bootstrap string, logger *zap.Logger) []string {
	out := slices.Clone(names)
	if len(out) < 2 {
		return out
	}
	i := slices.Index(out, bootstrap)
	if i < 0 {
		if logger != nil {
			logger.Warn("bootstrap account not found, keeping source order",
				zap.String("bootstrap", bootstrap),
				zap.Strings("users", names))
		}
		return out
	}
	out = slices.Delete(out, i, i+1)
	return slices.Insert(out, 0, bootstrap)
}

// UserFiles lists the creation and grant script of each name, in order.
func UserFiles(names []string) []string {
	out := make([]string, 0, 2*len(names))
	for _, n := range names {
		out = append(out, CreationFile(n), GrantFile(n))
	}
	return out
}
