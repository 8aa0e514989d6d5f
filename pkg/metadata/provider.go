package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pthm/sqlprovision/internal/sqldsl"
)

// Provider looks up the reference data a run needs. It is queried once at
// startup; everything downstream treats the result as read-only.
type Provider interface {
	// Client returns the identity of the client with the given short name.
	// EnvironmentTag is left empty; the caller owns it.
	Client(ctx context.Context, shortName string) (Client, error)

	// DistributorWeeks returns the reporting window of every distributor
	// whose name contains one of the given patterns.
	DistributorWeeks(ctx context.Context, client Client, names []string) (DistributorWeekMap, error)
}

// Querier is the minimal interface needed to read reference data.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Schemas names the schemas holding the reference tables.
type Schemas struct {
	// Warehouse holds xref_client, xref_distributor and helpdesk_distributor.
	Warehouse string
	// Project holds project and transfer_info.
	Project string
}

// DefaultSchemas are the schema names used when none are configured.
var DefaultSchemas = Schemas{Warehouse: "XXXXX_PRD", Project: "MXXXXX_PROD"}

// Column names read from the reference tables.
const (
	colClientName    = "CLIENT_NAME"
	colClientOID     = "CLIENT_OID"
	colProjectOID    = "PROJECT_OID"
	colIndustryOID   = "INDUSTRY_OID"
	colFileProjectID = "FILE_PROJECT_ID"
	colDistID        = "DIST_ID"
	colStartPeriod   = "START_PERIOD_CODE"
	colEndPeriod     = "END_PERIOD_CODE"
)

// SQLProvider reads reference data from the warehouse and project databases.
type SQLProvider struct {
	warehouse Querier
	project   Querier
	schemas   Schemas
	logger    *zap.Logger
}

// NewSQLProvider creates a provider over two reference databases. They may
// be the same handle.
func NewSQLProvider(warehouse, project Querier, schemas Schemas, logger *zap.Logger) *SQLProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schemas.Warehouse == "" {
		schemas.Warehouse = DefaultSchemas.Warehouse
	}
	if schemas.Project == "" {
		schemas.Project = DefaultSchemas.Project
	}
	return &SQLProvider{warehouse: warehouse, project: project, schemas: schemas, logger: logger}
}

// table qualifies name with a sanitized schema, since schema names come from
// configuration and are concatenated into queries.
func (p *SQLProvider) table(schema, name string) string {
	return sqldsl.Ident(schema) + "." + name
}

// Client implements Provider.
func (p *SQLProvider) Client(ctx context.Context, shortName string) (Client, error) {
	c := Client{ShortName: shortName}
	upper := strings.ToUpper(shortName)

	xref := p.table(p.schemas.Warehouse, "xref_client")
	row, err := firstRow(ctx, p.warehouse, xref,
		[]string{colClientName, colClientOID},
		"SELECT * FROM "+xref+" WHERE client_short_name = $1", upper)
	if err != nil {
		return Client{}, err
	}
	if c.FullName, err = asString(row[colClientName]); err != nil {
		return Client{}, fmt.Errorf("%s.%s: %w", xref, colClientName, err)
	}
	if c.ClientID, err = asInt64(row[colClientOID]); err != nil {
		return Client{}, fmt.Errorf("%s.%s: %w", xref, colClientOID, err)
	}
	p.logger.Info("read client reference row",
		zap.String("table", xref),
		zap.String("full_name", c.FullName),
		zap.Int64("client_id", c.ClientID))

	project := p.table(p.schemas.Project, "project")
	row, err = firstRow(ctx, p.project, project,
		[]string{colProjectOID, colIndustryOID, colFileProjectID},
		"SELECT * FROM "+project+" WHERE project_short_name = $1", upper)
	if err != nil {
		return Client{}, err
	}
	for col, dst := range map[string]*int64{
		colProjectOID:    &c.ProjectID,
		colIndustryOID:   &c.IndustryID,
		colFileProjectID: &c.FileProjectID,
	} {
		if *dst, err = asInt64(row[col]); err != nil {
			return Client{}, fmt.Errorf("%s.%s: %w", project, col, err)
		}
	}

	if c.TransferInfoID, err = p.nextTransferInfoID(ctx); err != nil {
		return Client{}, err
	}
	p.logger.Info("read project reference row",
		zap.String("table", project),
		zap.Int64("project_id", c.ProjectID),
		zap.Int64("industry_id", c.IndustryID),
		zap.Int64("file_project_id", c.FileProjectID),
		zap.Int64("transfer_info_id", c.TransferInfoID))

	return c, nil
}

// nextTransferInfoID returns MAX(TRANSFER_INFO_OID)+1, or 1 for an empty table.
func (p *SQLProvider) nextTransferInfoID(ctx context.Context) (int64, error) {
	table := p.table(p.schemas.Project, "transfer_info")
	rows, err := p.project.QueryContext(ctx, "SELECT MAX(TRANSFER_INFO_OID)+1 FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var next sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&next); err != nil {
			return 0, fmt.Errorf("scanning %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", table, err)
	}
	if !next.Valid {
		return 1, nil
	}
	return next.Int64, nil
}

// DistributorWeeks implements Provider.
func (p *SQLProvider) DistributorWeeks(ctx context.Context, client Client, names []string) (DistributorWeekMap, error) {
	weeks := DistributorWeekMap{}
	distTable := p.table(p.schemas.Warehouse, "xref_distributor")
	helpdesk := p.table(p.schemas.Warehouse, "helpdesk_distributor")

	for _, name := range names {
		ids, err := p.distributorIDs(ctx, distTable, name)
		if err != nil {
			return nil, err
		}
		p.logger.Info("read distributor ids",
			zap.String("distributor", strings.ToUpper(name)),
			zap.Int64s("dist_ids", ids))

		for _, id := range ids {
			rows, err := allRows(ctx, p.warehouse, helpdesk,
				[]string{colStartPeriod, colEndPeriod},
				"SELECT DISTINCT "+colStartPeriod+", "+colEndPeriod+" FROM "+helpdesk+
					" WHERE client_oid = $1 AND dist_id = $2",
				client.ClientID, id)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				p.logger.Warn("no week code found",
					zap.String("table", helpdesk),
					zap.Int64("dist_id", id))
				continue
			}
			var wr WeekRange
			if wr.Start, err = asInt64(rows[0][colStartPeriod]); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", helpdesk, colStartPeriod, err)
			}
			if wr.End, err = asInt64(rows[0][colEndPeriod]); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", helpdesk, colEndPeriod, err)
			}
			weeks[id] = wr
		}
	}
	return weeks, nil
}

func (p *SQLProvider) distributorIDs(ctx context.Context, table, name string) ([]int64, error) {
	rows, err := allRows(ctx, p.warehouse, table, []string{colDistID},
		"SELECT DISTINCT "+colDistID+" FROM "+table+" WHERE dist_name LIKE $1",
		"%"+strings.ToUpper(name)+"%")
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		id, err := asInt64(r[colDistID])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", table, colDistID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// firstRow runs query and returns its first row keyed by upper-cased column
// name. A result without rows is ErrClientNotFound.
func firstRow(ctx context.Context, q Querier, table string, required []string, query string, args ...any) (map[string]any, error) {
	rows, err := allRows(ctx, q, table, required, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", table, ErrClientNotFound)
	}
	return rows[0], nil
}

func allRows(ctx context.Context, q Querier, table string, required []string, query string, args ...any) ([]map[string]any, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	if err := checkColumns(table, cols, required); err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			m[strings.ToUpper(c)] = vals[i]
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	return out, nil
}

// asInt64 converts the driver representations of an integer column.
func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return parseInt(string(n))
	case string:
		return parseInt(n)
	case nil:
		return 0, fmt.Errorf("unexpected NULL")
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	// NUMBER columns arrive as decimal text from some drivers.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return int64(f), nil
}

func asString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case nil:
		return "", fmt.Errorf("unexpected NULL")
	default:
		return fmt.Sprint(v), nil
	}
}
