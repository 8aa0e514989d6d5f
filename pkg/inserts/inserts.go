// Package inserts renders the subsystem registration script of a client.
package inserts

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pthm/sqlprovision/internal/sqldsl"
	"github.com/pthm/sqlprovision/pkg/metadata"
)

// DefaultDBLinkDomain qualifies the database link recorded for warehouse 4.
const DefaultDBLinkDomain = "XXXXX.COM"

// Options tune the rendered script.
type Options struct {
	// WarehouseSchema qualifies info_fact_maint_schema.
	WarehouseSchema string
	DBLinkDomain    string
}

func (o Options) withDefaults() Options {
	if o.WarehouseSchema == "" {
		o.WarehouseSchema = metadata.DefaultSchemas.Warehouse
	}
	if o.DBLinkDomain == "" {
		o.DBLinkDomain = DefaultDBLinkDomain
	}
	return o
}

// FileName is the script name for c.
func FileName(c metadata.Client) string {
	return "insert_subsystem_" + c.Upper() + ".sql"
}

// Statements returns the registration statements for c: the subsystem row,
// a week and a distributor row per enrolled distributor (in id order) and
// the two maintenance-schema rows.
func Statements(c metadata.Client, weeks metadata.DistributorWeekMap, opts Options) []sqldsl.InsertStmt {
	opts = opts.withDefaults()
	oid := sqldsl.Int(c.ClientID)

	stmts := []sqldsl.InsertStmt{{
		Table:   "xref_subsystem",
		Columns: []string{"CLIENT_OID", "SUBSYSTEM_NAME"},
		Rows:    []sqldsl.ValuesRow{{oid, sqldsl.Lit(c.Lower() + "_xxx_xxx_prd")}},
	}}

	ids := make([]int64, 0, len(weeks))
	for id := range weeks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		w := weeks[id]
		stmts = append(stmts,
			sqldsl.InsertStmt{
				Table:   "subsystem_week",
				Columns: []string{"CLIENT_OID", "DIST_ID", "START_PERIOD", "END_PERIOD"},
				Rows:    []sqldsl.ValuesRow{{oid, sqldsl.Int(id), sqldsl.Int(w.Start), sqldsl.Int(w.End)}},
			},
			sqldsl.InsertStmt{
				Table:   "xref_subsystem_distributor",
				Columns: []string{"CLIENT_OID", "DIST_ID"},
				Rows:    []sqldsl.ValuesRow{{oid, sqldsl.Int(id)}},
			})
	}

	maint := opts.WarehouseSchema + ".info_fact_maint_schema"
	cols := []string{"CLIENT_OID", "WAREHOUSE_NUMBER", "SUBSYSTEM_NAME"}
	return append(stmts,
		sqldsl.InsertStmt{
			Table:   maint,
			Columns: cols,
			Rows:    []sqldsl.ValuesRow{{oid, sqldsl.Int(0), sqldsl.Lit(c.ProductionLogin())}},
		},
		sqldsl.InsertStmt{
			Table:   maint,
			Columns: cols,
			Rows: []sqldsl.ValuesRow{{oid, sqldsl.Int(4),
				sqldsl.Lit(fmt.Sprintf("@TO_%s_XXX_XXX_PR2.%s", c.Upper(), opts.DBLinkDomain))}},
		})
}

// Script renders the registration script for c.
func Script(c metadata.Client, weeks metadata.DistributorWeekMap, opts Options) string {
	var b strings.Builder
	b.WriteString(sqldsl.Sqlf(`
		-- %s
		-- Subsystem registration for %s (client %d)`,
		FileName(c), c.Upper(), c.ClientID))
	b.WriteString("\n")
	for _, s := range Statements(c, weeks, opts) {
		b.WriteString("\n" + s.Block() + ";\n")
	}
	return b.String()
}

// Write renders the script into dir and returns its path.
func Write(dir string, c metadata.Client, weeks metadata.DistributorWeekMap, opts Options) (string, error) {
	path := filepath.Join(dir, FileName(c))
	if err := os.WriteFile(path, []byte(Script(c, weeks, opts)), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", FileName(c), err)
	}
	return path, nil
}
