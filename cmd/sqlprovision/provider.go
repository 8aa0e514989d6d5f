package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/pthm/sqlprovision/internal/cli"
	"github.com/pthm/sqlprovision/pkg/metadata"
)

// referenceDB holds the reference database handles. warehouse and project
// are the same handle when both schemas live on one server.
type referenceDB struct {
	warehouse *sql.DB
	project   *sql.DB
}

func (r *referenceDB) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.project != nil && r.project != r.warehouse {
		errs = append(errs, r.project.Close())
	}
	if r.warehouse != nil {
		errs = append(errs, r.warehouse.Close())
	}
	return errors.Join(errs...)
}

// openReferenceDB connects to the reference databases with the configured
// driver: "postgres" is lib/pq, "pgx" is pgx's database/sql adapter.
func openReferenceDB(ctx context.Context, c *cli.Config) (*referenceDB, error) {
	switch c.Metadata.Driver {
	case "postgres", "pgx":
	default:
		return nil, cli.ConfigError(fmt.Sprintf("unknown metadata.driver %q", c.Metadata.Driver), nil)
	}
	if c.Metadata.WarehouseURL == "" {
		return nil, cli.ConfigError("metadata.warehouse_url is required for the database source", nil)
	}

	r := &referenceDB{}
	var err error
	if r.warehouse, err = connect(ctx, c.Metadata.Driver, c.Metadata.WarehouseURL); err != nil {
		return nil, cli.DBConnectError("connecting to warehouse database", err)
	}
	r.project = r.warehouse
	if url := c.ResolvedProjectURL(); url != c.Metadata.WarehouseURL {
		if r.project, err = connect(ctx, c.Metadata.Driver, url); err != nil {
			_ = r.warehouse.Close()
			return nil, cli.DBConnectError("connecting to project database", err)
		}
	}
	return r, nil
}

func connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func metadataProvider(r *referenceDB, c *cli.Config) *metadata.SQLProvider {
	return metadata.NewSQLProvider(r.warehouse, r.project, c.Schemas(), logger)
}

// openProvider returns the configured metadata provider and a function
// releasing what it holds.
func openProvider(ctx context.Context, c *cli.Config) (metadata.Provider, func() error, error) {
	switch c.Metadata.Source {
	case cli.SourceFile:
		if c.Metadata.File == "" {
			return nil, nil, cli.ConfigError("metadata.file is required for the file source", nil)
		}
		p, err := metadata.LoadFileProvider(c.Metadata.File)
		if err != nil {
			return nil, nil, cli.MetadataError("loading client description", err)
		}
		return p, func() error { return nil }, nil
	case cli.SourceDatabase, "":
		r, err := openReferenceDB(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		return metadataProvider(r, c), r.Close, nil
	default:
		return nil, nil, cli.ConfigError(fmt.Sprintf("unknown metadata.source %q", c.Metadata.Source), nil)
	}
}
