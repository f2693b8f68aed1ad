package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const AuditRunsSchema = `
	CREATE TABLE IF NOT EXISTS audit_runs (
		id VARCHAR NOT NULL PRIMARY KEY,
		provider VARCHAR NOT NULL,
		target VARCHAR,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		evaluated INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);
`
const ClusterReportsSchema = `
	CREATE TABLE IF NOT EXISTS cluster_reports (
		run_id VARCHAR NOT NULL,
		cluster_name VARCHAR NOT NULL,
		machine_type VARCHAR,
		node_count INTEGER,
		vcpus_per_node INTEGER,
		memory_mb_per_node INTEGER,
		report JSON,
		recommendation_count INTEGER NOT NULL DEFAULT 0,
		error VARCHAR,
		evaluated_at TIMESTAMP
	);
`

var bootQueries = []string{
	AuditRunsSchema,
	ClusterReportsSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
