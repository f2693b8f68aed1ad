package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_CreatesSchema(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "duckdb-test-*")
	require.NoError(t, err)

	defer func() {
		err := os.RemoveAll(tmpDir)
		if err != nil {
			t.Errorf("failed to cleanup test directory: %v", err)
		}
	}()

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := NewDB(Settings{
		DbPath: dbPath,
	})
	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		err := db.Close()
		if err != nil {
			t.Errorf("failed to close database connection: %v", err)
		}
	}()

	_, err = db.Exec(
		`INSERT INTO audit_runs (id, provider, target, started_at) VALUES (?, ?, ?, ?)`,
		"run-001", "dataproc", "analytics/us-central1", time.Now().UTC(),
	)
	require.NoError(t, err)

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM audit_runs WHERE id = ?", "run-001").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = db.QueryRow("SELECT COUNT(*) FROM cluster_reports").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTransactionContext(t *testing.T) {
	assert.Nil(t, GetTransaction(context.Background()))

	db, err := NewDB(Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	ctx := WithTransaction(context.Background(), tx)
	assert.Same(t, tx, GetTransaction(ctx))
}

func TestInTransaction(t *testing.T) {
	db, err := NewDB(Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	insert := func(id string) func(context.Context, *sql.Tx) error {
		return func(ctx context.Context, tx *sql.Tx) error {
			assert.Same(t, tx, GetTransaction(ctx))
			_, err := tx.ExecContext(ctx, `INSERT INTO audit_runs (id, provider, target, started_at, finished_at, evaluated, failed)
				VALUES (?, 'dataproc', 'analytics/us-central1', now(), now(), 0, 0)`, id)
			return err
		}
	}

	require.NoError(t, InTransaction(context.Background(), db, insert("committed")))

	err = InTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		if err := insert("rolled-back")(ctx, tx); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	var ids []string
	rows, err := db.Query("SELECT id FROM audit_runs ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"committed"}, ids)
}
