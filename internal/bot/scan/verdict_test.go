package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sarhadsec/scanbot/internal/bot/analysis"
	"github.com/sarhadsec/scanbot/internal/bot/models"
)

func TestVerdictFromStats(t *testing.T) {
	tests := []struct {
		name  string
		stats analysis.Stats
		want  models.Verdict
	}{
		{name: "all harmless", stats: analysis.Stats{Harmless: 70}, want: models.VerdictClean},
		{name: "undetected only", stats: analysis.Stats{Undetected: 12}, want: models.VerdictClean},
		{name: "one malicious wins", stats: analysis.Stats{Harmless: 69, Malicious: 1}, want: models.VerdictMalicious},
		{name: "malicious beats suspicious", stats: analysis.Stats{Malicious: 2, Suspicious: 5}, want: models.VerdictMalicious},
		{name: "suspicious only", stats: analysis.Stats{Harmless: 60, Suspicious: 3}, want: models.VerdictSuspicious},
		{name: "no engines", stats: analysis.Stats{}, want: models.VerdictUnknown},
		{name: "timeouts count as engines", stats: analysis.Stats{Timeout: 4}, want: models.VerdictClean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, verdictFromStats(tt.stats))
		})
	}
}

func TestResultFromReport(t *testing.T) {
	report := &analysis.Report{
		Stats:      analysis.Stats{Harmless: 60, Malicious: 2, Suspicious: 1, Undetected: 6, Timeout: 1},
		ProviderID: "prov-1",
		Permalink:  "https://provider.example/report/prov-1",
	}

	got := resultFromReport(report)

	assert.Equal(t, models.VerdictMalicious, got.Verdict)
	assert.Equal(t, 70, got.EnginesTotal)
	assert.Equal(t, 3, got.EnginesFlagged)
	assert.Equal(t, "prov-1", got.ProviderID)
	assert.Equal(t, "https://provider.example/report/prov-1", got.Permalink)
}
