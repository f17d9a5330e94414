// Package scan contains the submission validator and the orchestrator that
// drives a scan request through submit, poll and verdict interpretation.
package scan

import (
	"fmt"
	"net/url"

	"github.com/sarhadsec/scanbot/internal/bot/models"
	"github.com/sarhadsec/scanbot/internal/common"
)

// MaxFileSize is the submission ceiling for file targets.
const MaxFileSize = 20 << 20 // 20 MiB

// Validation failure reasons. Each wraps common.ErrValidation so callers can
// match the whole class or the specific reason.
var (
	ErrEmptyURL     = fmt.Errorf("%w: empty url", common.ErrValidation)
	ErrMalformedURL = fmt.Errorf("%w: url must be absolute with http or https scheme", common.ErrValidation)
	ErrEmptyFile    = fmt.Errorf("%w: empty file", common.ErrValidation)
	ErrFileTooLarge = fmt.Errorf("%w: file exceeds %d bytes", common.ErrValidation, int64(MaxFileSize))
	ErrNoFileRef    = fmt.Errorf("%w: missing file reference", common.ErrValidation)
)

// ValidateTarget enforces submission constraints before any network call.
// It is a pure function: no I/O, no side effects.
func ValidateTarget(target models.ScanTarget) error {
	switch target.Kind {

	case models.TargetURL:
		if target.URL == "" {
			return ErrEmptyURL
		}
		u, err := url.Parse(target.URL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return ErrMalformedURL
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ErrMalformedURL
		}
		return nil

	case models.TargetFile:
		if target.FileSHA256 == "" {
			return ErrNoFileRef
		}
		if target.FileSize <= 0 {
			return ErrEmptyFile
		}
		if target.FileSize > MaxFileSize {
			return ErrFileTooLarge
		}
		return nil
	}

	return fmt.Errorf("%w: unknown target kind %q", common.ErrValidation, target.Kind)
}
