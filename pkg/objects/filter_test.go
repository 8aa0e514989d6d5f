package objects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm/sqlprovision/pkg/metadata"
)

var client = metadata.Client{ShortName: "abc", EnvironmentTag: "PRD"}

func TestClassOf(t *testing.T) {
	tests := []struct {
		name string
		want Class
	}{
		{"XYZ_XXX_XXX_PRD_Tables.sql", ClassTables},
		{"XYZ_XXX_XXX_PRD_Indexes.sql", ClassIndexes},
		{"XYZ_XXX_XXX_PRD_Views.sql", ClassOther},
		{"XYZ_Tables_Indexes.sql", ClassIndexes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassOf(tt.name))
		})
	}
}

func TestFilter_DropThenCreate(t *testing.T) {
	got := Filter("DROP TABLE foo;\nCREATE TABLE bar (id NUMBER);", ClassTables, client)
	assert.Equal(t, "CREATE TABLE bar (id NUMBER);", got)
}

func TestFilter_Tables(t *testing.T) {
	dump := `-- Generated dump
DROP TABLE XYZ_XXX_XXX_PRD.T1 CASCADE CONSTRAINTS;

CREATE TABLE XYZ_XXX_XXX_PRD.T1
(
  ID NUMBER,
  NAME VARCHAR2(10)
)
PCTUSED    0
PCTFREE    10
TABLESPACE USERS;

COMMENT ON TABLE xyz_xxx_xxx_prd.T1 IS 'x';

CREATE TABLE xyz_xxx_xxx_prd.T2 (ID NUMBER);
`
	got := Filter(dump, ClassTables, client)
	assert.Equal(t,
		"CREATE TABLE ABC_XXX_XXX_PRD.T1\n(\n  ID NUMBER,\n  NAME VARCHAR2(10)\n);\n\n"+
			"CREATE TABLE ABC_xxx_xxx_prd.T2 (ID NUMBER);",
		got)
}

func TestFilter_Indexes(t *testing.T) {
	dump := `DROP INDEX XYZ_XXX_XXX_PRD.I1;
CREATE UNIQUE INDEX XYZ_XXX_XXX_PRD.I1 ON XYZ_XXX_XXX_PRD.T1
(ID)
LOGGING
TABLESPACE USERS
PCTFREE    10
INITRANS   2;

CREATE INDEX XYZ_XXX_XXX_PRD.I2 ON XYZ_XXX_XXX_PRD.T1 (NAME) NOLOGGING TABLESPACE IDX;

CREATE INDEX XYZ_XXX_XXX_PRD.I3 ON XYZ_XXX_XXX_PRD.T1 (NAME);
`
	got := Filter(dump, ClassIndexes, client)
	assert.Equal(t,
		"CREATE UNIQUE INDEX ABC_XXX_XXX_PRD.I1 ON ABC_XXX_XXX_PRD.T1\n(ID)\nLOGGING\nTABLESPACE USERS;\n\n"+
			"CREATE INDEX ABC_XXX_XXX_PRD.I2 ON ABC_XXX_XXX_PRD.T1 (NAME) NOLOGGING TABLESPACE IDX;",
		got)
}

func TestFilter_EmptyCapture(t *testing.T) {
	assert.Equal(t, "", Filter("DROP TABLE a;\nDROP INDEX b;", ClassTables, client))
	assert.Equal(t, "", Filter("CREATE TABLE a (id NUMBER);", ClassIndexes, client))
}

func TestFilter_Other(t *testing.T) {
	dump := "/* old view */\nDROP VIEW XYZ_V;\nCREATE OR REPLACE VIEW xyz_v AS SELECT 'keep me;' AS c FROM dual;\n"
	got := Filter(dump, ClassOther, client)
	assert.Equal(t, "CREATE OR REPLACE VIEW ABC_v AS SELECT 'keep me;' AS c FROM dual;", got)
}

func TestFilter_DropInsideStatement(t *testing.T) {
	dump := "ALTER TABLE XYZ_T DROP CONSTRAINT XYZ_FK;\n" +
		"CREATE VIEW xyz_v AS SELECT 1 AS c FROM dual;\n" +
		"BEGIN EXECUTE IMMEDIATE 'DROP TABLE xyz_tmp'; END;"
	got := Filter(dump, ClassOther, client)
	assert.Equal(t, "CREATE VIEW ABC_v AS SELECT 1 AS c FROM dual; END;", got)
}

func TestFilter_LowerCaseHeads(t *testing.T) {
	tables := "create table xyz_t (id number)\npctused 0\ntablespace users;"
	assert.Equal(t, "create table ABC_t (id number);", Filter(tables, ClassTables, client))

	indexes := "create index xyz_i on xyz_t (id) logging tablespace idx pctfree 10;"
	assert.Equal(t, "create index ABC_i on ABC_t (id) logging tablespace idx;", Filter(indexes, ClassIndexes, client))
}

func TestFilter_NeverEmitsDrop(t *testing.T) {
	dumps := []string{
		"DROP TABLE a;\ndrop index b;\n  Drop\nSEQUENCE c;",
		"-- c\nDROP TABLE a PURGE;\nCREATE TABLE a (id NUMBER);\nDROP SYNONYM s;",
		"CREATE INDEX i ON t (a) LOGGING TABLESPACE x;\nDROP INDEX i;",
		"ALTER TABLE t DROP CONSTRAINT t_fk;\nALTER TABLE t ADD c NUMBER;",
		"CREATE VIEW v AS SELECT 1 FROM dual;\nBEGIN\n  EXECUTE IMMEDIATE 'drop table tmp';\nEND;",
		"CREATE TABLE t (id NUMBER) PCTUSED 0;\nALTER TABLE t\n  DROP COLUMN c;",
	}
	for _, d := range dumps {
		for _, class := range []Class{ClassOther, ClassTables, ClassIndexes} {
			got := Filter(d, class, client)
			assert.NotContains(t, strings.ToUpper(got), "DROP", "%s / %s", class, d)
		}
	}
}
