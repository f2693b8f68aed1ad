package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/spark-advisor/pkg/models/store"
	"github.com/de-tools/spark-advisor/pkg/store/duckdb"
)

const DefaultLimit = 50

// Store keeps the outcome of audit runs and the per-cluster reports they produced.
type Store interface {
	SaveRun(ctx context.Context, run store.AuditRun, reports []store.ClusterReport) error
	ListRuns(ctx context.Context, limit int) ([]store.AuditRun, error)
	ListClusterReports(ctx context.Context, cluster string, limit int) ([]store.ClusterReport, error)
}

type historyStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &historyStore{db: db}, nil
}

// SaveRun writes the run and its reports atomically. It joins the transaction
// carried by ctx when there is one and commits its own otherwise.
func (s *historyStore) SaveRun(ctx context.Context, run store.AuditRun, reports []store.ClusterReport) error {
	err := duckdb.InTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return insertRun(ctx, tx, run, reports)
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func insertRun(ctx context.Context, tx *sql.Tx, run store.AuditRun, reports []store.ClusterReport) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_runs (id, provider, target, started_at, finished_at, evaluated, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Provider, run.Target, run.StartedAt, run.FinishedAt, run.Evaluated, run.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(reports) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cluster_reports (
			run_id, cluster_name, machine_type, node_count, vcpus_per_node,
			memory_mb_per_node, report, recommendation_count, error, evaluated_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		var report, errMsg any
		if r.Report != nil {
			report = string(r.Report)
		}
		if r.Error != nil {
			errMsg = *r.Error
		}

		_, err = stmt.ExecContext(ctx,
			run.ID,
			r.ClusterName,
			r.MachineType,
			r.NodeCount,
			r.VCPUsPerNode,
			r.MemoryMBPerNode,
			report,
			r.Recommendations,
			errMsg,
			r.EvaluatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert report for %s: %w", r.ClusterName, err)
		}
	}

	return nil
}

func (s *historyStore) ListRuns(ctx context.Context, limit int) ([]store.AuditRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, target, started_at, finished_at, evaluated, failed
		FROM audit_runs
		ORDER BY started_at DESC
		LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []store.AuditRun{}
	for rows.Next() {
		var run store.AuditRun
		var target sql.NullString
		var finishedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.Provider, &target, &run.StartedAt, &finishedAt, &run.Evaluated, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Target = target.String
		run.FinishedAt = finishedAt.Time
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *historyStore) ListClusterReports(ctx context.Context, cluster string, limit int) ([]store.ClusterReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, cluster_name, machine_type, node_count, vcpus_per_node, memory_mb_per_node,
		       CAST(report AS VARCHAR), recommendation_count, error, evaluated_at
		FROM cluster_reports
		WHERE cluster_name = ?
		ORDER BY evaluated_at DESC
		LIMIT ?`, cluster, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []store.ClusterReport{}
	for rows.Next() {
		var (
			r           store.ClusterReport
			machineType sql.NullString
			nodeCount   sql.NullInt64
			vcpus       sql.NullInt64
			memory      sql.NullInt64
			report      sql.NullString
			errMsg      sql.NullString
			evaluatedAt sql.NullTime
		)
		if err := rows.Scan(
			&r.RunID, &r.ClusterName, &machineType, &nodeCount, &vcpus, &memory,
			&report, &r.Recommendations, &errMsg, &evaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}

		r.MachineType = machineType.String
		r.NodeCount = int(nodeCount.Int64)
		r.VCPUsPerNode = int(vcpus.Int64)
		r.MemoryMBPerNode = int(memory.Int64)
		r.EvaluatedAt = evaluatedAt.Time
		if report.Valid {
			r.Report = []byte(report.String)
		}
		if errMsg.Valid {
			msg := errMsg.String
			r.Error = &msg
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
