package scans

import (
	"context"

	"github.com/sarhadsec/scanbot/internal/bot/models"
)

// StatusCounts aggregates scan requests per lifecycle status.
type StatusCounts map[models.ScanStatus]int64

type Repository interface {
	// Create inserts a pending request. If the user already has an
	// in-flight request, common.ErrScanInProgress is returned.
	Create(ctx context.Context, req *models.ScanRequest) error
	Find(ctx context.Context, id string) (*models.ScanRequest, error)
	// FindInProgress returns the user's pending or analyzing request,
	// common.ErrNotFound when there is none.
	FindInProgress(ctx context.Context, userID int64) (*models.ScanRequest, error)
	// MarkAnalyzing moves a pending request forward, recording the
	// provider analysis id.
	MarkAnalyzing(ctx context.Context, id, analysisID string) error
	// Complete stores the result and moves the request to completed.
	Complete(ctx context.Context, id string, result *models.ScanResult) error
	// MarkTerminal moves the request to failed or timed_out.
	MarkTerminal(ctx context.Context, id string, status models.ScanStatus) error
	Counts(ctx context.Context) (StatusCounts, error)
}
