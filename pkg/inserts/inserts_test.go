package inserts

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlprovision/pkg/metadata"
)

var client = metadata.Client{ShortName: "abc", ClientID: 4201}

func TestScript(t *testing.T) {
	weeks := metadata.DistributorWeekMap{
		20: {Start: 202410, End: 202452},
		10: {Start: 202401, End: 202452},
	}

	got := Script(client, weeks, Options{})
	want := `-- insert_subsystem_ABC.sql
-- Subsystem registration for ABC (client 4201)

INSERT INTO xref_subsystem
(CLIENT_OID, SUBSYSTEM_NAME)
VALUES
(4201, 'abc_xxx_xxx_prd');

INSERT INTO subsystem_week
(CLIENT_OID, DIST_ID, START_PERIOD, END_PERIOD)
VALUES
(4201, 10, 202401, 202452);

INSERT INTO xref_subsystem_distributor
(CLIENT_OID, DIST_ID)
VALUES
(4201, 10);

INSERT INTO subsystem_week
(CLIENT_OID, DIST_ID, START_PERIOD, END_PERIOD)
VALUES
(4201, 20, 202410, 202452);

INSERT INTO xref_subsystem_distributor
(CLIENT_OID, DIST_ID)
VALUES
(4201, 20);

INSERT INTO XXXXX_PRD.info_fact_maint_schema
(CLIENT_OID, WAREHOUSE_NUMBER, SUBSYSTEM_NAME)
VALUES
(4201, 0, 'ABC_XXX_XXX_PRD');

INSERT INTO XXXXX_PRD.info_fact_maint_schema
(CLIENT_OID, WAREHOUSE_NUMBER, SUBSYSTEM_NAME)
VALUES
(4201, 4, '@TO_ABC_XXX_XXX_PR2.XXXXX.COM');
`
	assert.Equal(t, want, got)
}

func TestStatements_NoDistributors(t *testing.T) {
	stmts := Statements(client, nil, Options{WarehouseSchema: "wh", DBLinkDomain: "example.org"})
	require.Len(t, stmts, 3)
	assert.Equal(t, "wh.info_fact_maint_schema", stmts[2].Table)
	assert.Contains(t, stmts[2].SQL(), "'@TO_ABC_XXX_XXX_PR2.example.org'")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, client, nil, Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INSERT INTO xref_subsystem")
}
