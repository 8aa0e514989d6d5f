package metadata

import "context"

// ReferenceTable is a table the SQL provider reads, with the columns it
// relies on.
type ReferenceTable struct {
	Name    string
	Columns []string
	// Project is set for tables read through the project database.
	Project bool
}

// Tables lists the reference tables in the order Client and
// DistributorWeeks read them.
func (p *SQLProvider) Tables() []ReferenceTable {
	wh, pr := p.schemas.Warehouse, p.schemas.Project
	return []ReferenceTable{
		{Name: p.table(wh, "xref_client"), Columns: []string{"CLIENT_SHORT_NAME", colClientName, colClientOID}},
		{Name: p.table(pr, "project"), Columns: []string{"PROJECT_SHORT_NAME", colProjectOID, colIndustryOID, colFileProjectID}, Project: true},
		{Name: p.table(pr, "transfer_info"), Columns: []string{"TRANSFER_INFO_OID"}, Project: true},
		{Name: p.table(wh, "xref_distributor"), Columns: []string{colDistID, "DIST_NAME"}},
		{Name: p.table(wh, "helpdesk_distributor"), Columns: []string{colClientOID, colDistID, colStartPeriod, colEndPeriod}},
	}
}

// Probe checks that t is readable and carries its columns, without reading
// any rows. A missing column is reported as a MissingColumnsError.
func (p *SQLProvider) Probe(ctx context.Context, t ReferenceTable) error {
	q := p.warehouse
	if t.Project {
		q = p.project
	}
	_, err := allRows(ctx, q, t.Name, t.Columns, "SELECT * FROM "+t.Name+" WHERE 1 = 0")
	return err
}
