// Package sqldsl provides typed building blocks for the INSERT statements the
// provisioning run emits.
//
// # Overview
//
// Generated scripts contain a small number of statements that are built from
// client data rather than copied from templates: the audit row written after
// every account creation, and the subsystem rows of the INSERT side artifact.
// Rather than formatting those with fmt and hand quoting, callers compose them
// from expressions that know how to render themselves.
//
// # Expression Types
//
//	Lit("NONE")    // String literal: 'NONE'
//	Int(4201)      // Integer literal: 4201
//	Raw("SYSDATE") // Raw SQL (escape hatch)
//
// # Statement Types
//
//	InsertStmt{
//	    Table:   "dba_util.msa_sec_app_db_schema",
//	    Columns: []string{"db_schema", "created"},
//	    Rows:    []ValuesRow{{Lit("ABC_XXX_XXX_PRD"), Raw("SYSDATE")}},
//	}
//
// SQL renders the statement on one line; Block renders it over several lines
// in the layout used by the side artifacts. Neither adds the terminator.
//
// Ident sanitizes configured schema names before they are joined into
// reference queries.
package sqldsl
