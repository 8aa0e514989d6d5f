//go:build integration

package metadata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const referenceSchema = `
CREATE SCHEMA xxxxx_prd;
CREATE SCHEMA mxxxxx_prod;
CREATE TABLE xxxxx_prd.xref_client (client_short_name TEXT, client_name TEXT, client_oid BIGINT);
CREATE TABLE xxxxx_prd.xref_distributor (dist_id BIGINT, dist_name TEXT);
CREATE TABLE xxxxx_prd.helpdesk_distributor (client_oid BIGINT, dist_id BIGINT, start_period_code BIGINT, end_period_code BIGINT);
CREATE TABLE mxxxxx_prod.project (project_short_name TEXT, project_oid BIGINT, industry_oid BIGINT, file_project_id BIGINT);
CREATE TABLE mxxxxx_prod.transfer_info (transfer_info_oid BIGINT);
INSERT INTO xxxxx_prd.xref_client VALUES ('ABC', 'ABC Holdings', 4201);
INSERT INTO xxxxx_prd.xref_distributor VALUES (10, 'MCLANE CO'), (20, 'OTHER');
INSERT INTO xxxxx_prd.helpdesk_distributor VALUES (4201, 10, 202401, 202452);
INSERT INTO mxxxxx_prod.project VALUES ('ABC', 77, 3, 912);
INSERT INTO mxxxxx_prod.transfer_info VALUES (15000);
`

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("reference"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, referenceSchema)
	require.NoError(t, err)
	return db
}

func TestSQLProvider_Postgres(t *testing.T) {
	db := startPostgres(t)
	p := NewSQLProvider(db, db, Schemas{Warehouse: "xxxxx_prd", Project: "mxxxxx_prod"}, nil)
	ctx := context.Background()

	c, err := p.Client(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC Holdings", c.FullName)
	assert.Equal(t, int64(4201), c.ClientID)
	assert.Equal(t, int64(912), c.FileProjectID)
	assert.Equal(t, int64(15001), c.TransferInfoID)

	weeks, err := p.DistributorWeeks(ctx, c, []string{"McLane"})
	require.NoError(t, err)
	assert.Equal(t, DistributorWeekMap{10: {Start: 202401, End: 202452}}, weeks)
}
