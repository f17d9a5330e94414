// Package analysis defines the contract with the external reputation engine
// and its VirusTotal implementation.
//
// Submission and polling are deliberately split: the client performs single
// network calls and holds no wait state, so the orchestrator owns the
// backoff and deadline policy and the client stays trivially substitutable
// in tests.
package analysis

import (
	"context"
	"io"
)

// Handle identifies a submitted analysis at the provider.
type Handle struct {
	// AnalysisID is the provider-assigned id used to poll for the verdict.
	AnalysisID string

	// Permalink points at the provider's human-readable report page.
	Permalink string
}

// Stats are the per-engine counters of a finished analysis.
type Stats struct {
	Harmless   int
	Malicious  int
	Suspicious int
	Undetected int
	Timeout    int
}

// Report is a terminal verdict snapshot fetched from the provider.
type Report struct {
	Stats      Stats
	ProviderID string
	Permalink  string
}

// Client is the submit/poll contract with the reputation engine.
//
// Submit errors: common.ErrRateLimited, common.ErrProviderUnavailable,
// common.ErrInvalidTarget, and common.ErrAlreadyKnown for file targets the
// provider has on record (resolve those via LookupFile).
//
// FetchVerdict performs one poll attempt and never blocks waiting for the
// analysis; while the provider is still working it returns
// common.ErrAnalysisPending.
type Client interface {
	SubmitURL(ctx context.Context, rawURL string) (*Handle, error)
	SubmitFile(ctx context.Context, name string, size int64, content io.Reader) (*Handle, error)
	// LookupFile checks the provider's record for a known file by SHA-256
	// digest. common.ErrNotFound means the file was never analyzed.
	LookupFile(ctx context.Context, sha256hex string) (*Report, error)
	FetchVerdict(ctx context.Context, h *Handle) (*Report, error)
}
