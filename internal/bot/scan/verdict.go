package scan

import (
	"github.com/sarhadsec/scanbot/internal/bot/analysis"
	"github.com/sarhadsec/scanbot/internal/bot/models"
)

// verdictFromStats collapses per-engine counters into a single verdict.
// Priority: any malicious engine wins, then any suspicious one. A report with
// zero engines carries no signal and maps to unknown rather than clean.
func verdictFromStats(s analysis.Stats) models.Verdict {
	total := s.Harmless + s.Malicious + s.Suspicious + s.Undetected + s.Timeout
	switch {
	case s.Malicious > 0:
		return models.VerdictMalicious
	case s.Suspicious > 0:
		return models.VerdictSuspicious
	case total == 0:
		return models.VerdictUnknown
	default:
		return models.VerdictClean
	}
}

// resultFromReport derives the persisted scan result from a completed
// provider report.
func resultFromReport(r *analysis.Report) *models.ScanResult {
	s := r.Stats
	return &models.ScanResult{
		Verdict:        verdictFromStats(s),
		EnginesTotal:   s.Harmless + s.Malicious + s.Suspicious + s.Undetected + s.Timeout,
		EnginesFlagged: s.Malicious + s.Suspicious,
		ProviderID:     r.ProviderID,
		Permalink:      r.Permalink,
	}
}
