// Package scans provides the PostgreSQL-backed repository for scan requests.
package scans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sarhadsec/scanbot/internal/bot/models"
	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/dbx"
)

// uniqueViolation is the PostgreSQL error code raised by the partial unique
// index guarding one in-flight scan per user.
const uniqueViolation = "23505"

// PostgresRepository implements scan request storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, req *models.ScanRequest) error {

	query :=
		`INSERT INTO scan_requests (id, user_id, kind, url, file_sha256, file_name, file_size, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.UserID, req.Target.Kind, req.Target.URL,
		req.Target.FileSHA256, req.Target.FileName, req.Target.FileSize,
		req.Status, req.SubmittedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrScanInProgress
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const selectColumns = `id, user_id, kind, url, file_sha256, file_name, file_size,
	 status, analysis_id, verdict, engines_total, engines_flagged, provider_id, permalink,
	 submitted_at, completed_at`

func (r *PostgresRepository) Find(ctx context.Context, id string) (*models.ScanRequest, error) {
	query := `SELECT ` + selectColumns + ` FROM scan_requests WHERE id = $1`
	return r.scanRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindInProgress(ctx context.Context, userID int64) (*models.ScanRequest, error) {
	query := `SELECT ` + selectColumns + `
		 FROM scan_requests
		 WHERE user_id = $1 AND status IN ('pending', 'analyzing')`
	return r.scanRow(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) scanRow(row *sql.Row) (*models.ScanRequest, error) {
	req := &models.ScanRequest{}
	var verdict, providerID, permalink *string
	var total, flagged *int

	err := row.Scan(
		&req.ID, &req.UserID, &req.Target.Kind, &req.Target.URL,
		&req.Target.FileSHA256, &req.Target.FileName, &req.Target.FileSize,
		&req.Status, &req.AnalysisID, &verdict, &total, &flagged, &providerID, &permalink,
		&req.SubmittedAt, &req.CompletedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if verdict != nil {
		req.Result = &models.ScanResult{
			Verdict:        models.Verdict(*verdict),
			EnginesTotal:   *total,
			EnginesFlagged: *flagged,
		}
		if providerID != nil {
			req.Result.ProviderID = *providerID
		}
		if permalink != nil {
			req.Result.Permalink = *permalink
		}
	}

	return req, nil
}

func (r *PostgresRepository) MarkAnalyzing(ctx context.Context, id, analysisID string) error {
	query :=
		`UPDATE scan_requests
		 SET status = 'analyzing', analysis_id = $2
		 WHERE id = $1 AND status = 'pending'
		 `
	return r.execForward(ctx, query, id, analysisID)
}

func (r *PostgresRepository) Complete(ctx context.Context, id string, result *models.ScanResult) error {
	query :=
		`UPDATE scan_requests
		 SET status = 'completed', verdict = $2, engines_total = $3, engines_flagged = $4,
		     provider_id = $5, permalink = $6, completed_at = NOW()
		 WHERE id = $1 AND status IN ('pending', 'analyzing')
		 `
	return r.execForward(ctx, query, id,
		result.Verdict, result.EnginesTotal, result.EnginesFlagged, result.ProviderID, result.Permalink)
}

func (r *PostgresRepository) MarkTerminal(ctx context.Context, id string, status models.ScanStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	query :=
		`UPDATE scan_requests
		 SET status = $2, completed_at = NOW()
		 WHERE id = $1 AND status IN ('pending', 'analyzing')
		 `
	return r.execForward(ctx, query, id, status)
}

// execForward runs a status-transition update. Zero rows affected means the
// request was missing or already terminal, both reported as ErrNotFound so
// transitions stay strictly one-directional.
func (r *PostgresRepository) execForward(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Counts(ctx context.Context) (StatusCounts, error) {
	query := `SELECT status, COUNT(*) FROM scan_requests GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	counts := StatusCounts{}
	for rows.Next() {
		var status models.ScanStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return counts, nil
}
