package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/sarhadsec/scanbot/internal/bot/analysis"
	"github.com/sarhadsec/scanbot/internal/bot/models"
	"github.com/sarhadsec/scanbot/internal/bot/repositories/scans"
	"github.com/sarhadsec/scanbot/internal/bot/repositories/users"
	"github.com/sarhadsec/scanbot/internal/common"
	"github.com/sarhadsec/scanbot/internal/logging"
)

// FileOpener yields the staged bytes of a file target by digest.
type FileOpener interface {
	Open(ctx context.Context, sha256hex string) (io.ReadCloser, error)
}

// Options hold the orchestrator's timing policy.
type Options struct {
	// PollInterval is the fixed delay between verdict polls.
	PollInterval time.Duration
	// ScanDeadline bounds the whole poll phase; crossing it marks the
	// request timed_out.
	ScanDeadline time.Duration
	// SubmitMaxAttempts caps submission tries, the first attempt included.
	SubmitMaxAttempts uint64
	// SubmitBackoffBase seeds the exponential backoff between attempts.
	SubmitBackoffBase time.Duration
}

// Orchestrator drives a scan request from submission to a persisted terminal
// status. A terminal status is always written before Run returns, so a crash
// observer never finds a finished scan still marked in-flight.
type Orchestrator struct {
	users  users.Repository
	scans  scans.Repository
	client analysis.Client
	files  FileOpener
	opts   Options
	logger logging.Logger
}

func NewOrchestrator(ur users.Repository, sr scans.Repository, client analysis.Client, files FileOpener, opts Options, logger logging.Logger) *Orchestrator {
	if opts.SubmitBackoffBase <= 0 {
		opts.SubmitBackoffBase = time.Second
	}
	if opts.SubmitMaxAttempts == 0 {
		opts.SubmitMaxAttempts = 1
	}
	return &Orchestrator{
		users:  ur,
		scans:  sr,
		client: client,
		files:  files,
		opts:   opts,
		logger: logger.With("module", "scan"),
	}
}

// Run executes one scan end to end for the given user. The returned request
// carries the terminal status and, when completed, the result.
//
// Errors: common.ErrNotOnboarded, common.ErrBanned, common.ErrValidation,
// common.ErrScanInProgress, common.ErrScanFailed, common.ErrScanTimedOut.
func (o *Orchestrator) Run(ctx context.Context, telegramID int64, target models.ScanTarget) (*models.ScanRequest, error) {
	user, err := o.users.Find(ctx, telegramID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotOnboarded
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user.Banned {
		return nil, common.ErrBanned
	}
	if !user.Onboarded() {
		return nil, common.ErrNotOnboarded
	}

	if err := ValidateTarget(target); err != nil {
		return nil, err
	}

	req := models.NewScanRequest(telegramID, target)
	if err := o.scans.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("creating scan request: %w", err)
	}

	log := o.logger.With("request_id", req.ID, "kind", string(target.Kind))
	log.Info(ctx, "scan accepted")

	// Known files resolve without a submission round-trip.
	if target.Kind == models.TargetFile {
		report, err := o.client.LookupFile(ctx, target.FileSHA256)
		if err == nil {
			log.Info(ctx, "file known to provider, skipping submission")
			return o.complete(ctx, req, report)
		}
		if !errors.Is(err, common.ErrNotFound) {
			log.Warn(ctx, "file lookup failed, submitting anyway", "error", err)
		}
	}

	handle, err := o.submit(ctx, req)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyKnown) {
			// The provider learned about the file between our lookup and
			// the upload; the hash lookup succeeds now.
			if report, lerr := o.client.LookupFile(ctx, target.FileSHA256); lerr == nil {
				log.Info(ctx, "file became known during upload")
				return o.complete(ctx, req, report)
			}
		}
		return nil, o.fail(ctx, req, log, err)
	}

	req.AnalysisID = handle.AnalysisID
	if err := o.scans.MarkAnalyzing(ctx, req.ID, handle.AnalysisID); err != nil {
		return nil, o.fail(ctx, req, log, err)
	}
	req.Status = models.ScanAnalyzing
	log.Info(ctx, "analysis started", "analysis_id", handle.AnalysisID)

	return o.poll(ctx, req, handle, log)
}

// submit sends the target to the provider, retrying transient failures with
// exponential backoff. File readers are reopened per attempt.
func (o *Orchestrator) submit(ctx context.Context, req *models.ScanRequest) (*analysis.Handle, error) {
	backoff := retry.WithMaxRetries(o.opts.SubmitMaxAttempts-1, retry.NewExponential(o.opts.SubmitBackoffBase))

	var handle *analysis.Handle
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		h, err := o.attemptSubmit(ctx, req)
		if err != nil {
			if errors.Is(err, common.ErrRateLimited) || errors.Is(err, common.ErrProviderUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		handle = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return handle, nil
}

func (o *Orchestrator) attemptSubmit(ctx context.Context, req *models.ScanRequest) (*analysis.Handle, error) {
	target := req.Target
	if target.Kind == models.TargetURL {
		return o.client.SubmitURL(ctx, target.URL)
	}

	content, err := o.files.Open(ctx, target.FileSHA256)
	if err != nil {
		return nil, fmt.Errorf("opening staged file: %w", err)
	}
	defer content.Close()

	return o.client.SubmitFile(ctx, target.FileName, target.FileSize, content)
}

// poll fetches the verdict on a fixed interval until the provider finishes
// or the deadline passes.
func (o *Orchestrator) poll(ctx context.Context, req *models.ScanRequest, handle *analysis.Handle, log logging.Logger) (*models.ScanRequest, error) {
	deadlineCtx, cancel := context.WithTimeout(ctx, o.opts.ScanDeadline)
	defer cancel()

	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-deadlineCtx.Done():
			return nil, o.timeout(ctx, req, log)
		case <-ticker.C:
			report, err := o.client.FetchVerdict(deadlineCtx, handle)
			if err != nil {
				if errors.Is(err, common.ErrAnalysisPending) {
					log.Debug(ctx, "analysis still running")
					continue
				}
				if errors.Is(err, common.ErrRateLimited) || errors.Is(err, common.ErrProviderUnavailable) {
					log.Warn(ctx, "verdict poll failed, will retry", "error", err)
					continue
				}
				if deadlineCtx.Err() != nil {
					return nil, o.timeout(ctx, req, log)
				}
				return nil, o.fail(ctx, req, log, err)
			}
			return o.complete(ctx, req, report)
		}
	}
}

func (o *Orchestrator) complete(ctx context.Context, req *models.ScanRequest, report *analysis.Report) (*models.ScanRequest, error) {
	result := resultFromReport(report)
	if err := o.scans.Complete(persistCtx(ctx), req.ID, result); err != nil {
		return nil, fmt.Errorf("persisting result: %w", err)
	}
	now := time.Now()
	req.Status = models.ScanCompleted
	req.CompletedAt = &now
	req.Result = result
	o.logger.Info(ctx, "scan completed",
		"request_id", req.ID, "verdict", string(result.Verdict),
		"engines_flagged", result.EnginesFlagged, "engines_total", result.EnginesTotal)
	return req, nil
}

func (o *Orchestrator) fail(ctx context.Context, req *models.ScanRequest, log logging.Logger, cause error) error {
	if err := o.scans.MarkTerminal(persistCtx(ctx), req.ID, models.ScanFailed); err != nil {
		log.Error(ctx, "marking scan failed", "error", err)
	}
	req.Status = models.ScanFailed
	log.Error(ctx, "scan failed", "error", cause)
	return fmt.Errorf("%w: %v", common.ErrScanFailed, cause)
}

func (o *Orchestrator) timeout(ctx context.Context, req *models.ScanRequest, log logging.Logger) error {
	if err := o.scans.MarkTerminal(persistCtx(ctx), req.ID, models.ScanTimedOut); err != nil {
		log.Error(ctx, "marking scan timed out", "error", err)
	}
	req.Status = models.ScanTimedOut
	log.Warn(ctx, "scan timed out")
	return common.ErrScanTimedOut
}

// persistCtx detaches terminal writes from a possibly expired request
// context so the final status always lands.
func persistCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
