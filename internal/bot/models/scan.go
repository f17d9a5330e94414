package models

import (
	"time"

	"github.com/google/uuid"
)

// TargetKind discriminates the ScanTarget variant.
type TargetKind string

const (
	TargetURL  TargetKind = "url"
	TargetFile TargetKind = "file"
)

// ScanTarget is a tagged variant: either a URL string or a content-addressed
// reference to staged file bytes. Consumers switch on Kind exhaustively.
type ScanTarget struct {
	Kind TargetKind

	// URL is set when Kind == TargetURL.
	URL string

	// FileSHA256, FileName and FileSize are set when Kind == TargetFile.
	// FileSHA256 is the hex digest under which the bytes are staged.
	FileSHA256 string
	FileName   string
	FileSize   int64
}

// URLTarget builds a URL scan target.
func URLTarget(raw string) ScanTarget {
	return ScanTarget{Kind: TargetURL, URL: raw}
}

// FileTarget builds a file scan target referencing staged bytes by digest.
func FileTarget(sha256hex, name string, size int64) ScanTarget {
	return ScanTarget{Kind: TargetFile, FileSHA256: sha256hex, FileName: name, FileSize: size}
}

// ScanStatus is the lifecycle state of a ScanRequest. Transitions only move
// forward: pending -> analyzing -> {completed | failed | timed_out}, or
// pending -> failed when submission never succeeds.
type ScanStatus string

const (
	ScanPending   ScanStatus = "pending"
	ScanAnalyzing ScanStatus = "analyzing"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
	ScanTimedOut  ScanStatus = "timed_out"
)

// Terminal reports whether no further transition is defined for s.
func (s ScanStatus) Terminal() bool {
	switch s {
	case ScanCompleted, ScanFailed, ScanTimedOut:
		return true
	}
	return false
}

// Verdict is the normalized judgement derived from the provider report.
type Verdict string

const (
	VerdictClean      Verdict = "clean"
	VerdictSuspicious Verdict = "suspicious"
	VerdictMalicious  Verdict = "malicious"
	VerdictUnknown    Verdict = "unknown"
)

// ScanResult is derived deterministically from the provider's raw report and
// never mutated after creation.
type ScanResult struct {
	Verdict        Verdict
	EnginesTotal   int
	EnginesFlagged int

	// ProviderID is the opaque provider-side identifier, kept for
	// de-duplication and debugging.
	ProviderID string

	// Permalink points at the provider's human-readable report.
	Permalink string
}

// ScanRequest tracks one submission through its lifecycle. It is owned by the
// orchestrator until a terminal status is persisted, then read-only.
type ScanRequest struct {
	ID          string
	UserID      int64
	Target      ScanTarget
	Status      ScanStatus
	AnalysisID  string
	SubmittedAt time.Time
	CompletedAt *time.Time
	Result      *ScanResult
}

// NewScanRequest creates a pending request for the given user and target.
func NewScanRequest(userID int64, target ScanTarget) *ScanRequest {
	return &ScanRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		Target:      target,
		Status:      ScanPending,
		SubmittedAt: time.Now(),
	}
}
