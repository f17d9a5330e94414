package telegram

import (
	"fmt"
	"strings"

	"github.com/sarhadsec/scanbot/internal/bot/models"
)

// adSlotText fills the sponsored slot at the bottom of every report.
const adSlotText = "📢 Reklama uchun: @SarhadAdmin"

// verdict headers keep the provider's English term next to the Uzbek one so
// screenshots stay understandable outside the chat.
var verdictHeaders = map[models.Verdict]string{
	models.VerdictClean:      "✅ XAVFSIZ (Safe)",
	models.VerdictSuspicious: "⚠️ SHUBHALI (Suspicious)",
	models.VerdictMalicious:  "🚨 XAVFLI (Malicious)",
	models.VerdictUnknown:    "❔ NOMA'LUM (Unknown)",
}

// formatReport renders a completed scan as a Markdown message.
func formatReport(result *models.ScanResult) string {
	header := verdictHeaders[result.Verdict]
	if header == "" {
		header = verdictHeaders[models.VerdictUnknown]
	}

	var b strings.Builder
	b.WriteString("🔒 **Xavfsizlik tekshiruvi natijasi**\n\n")
	fmt.Fprintf(&b, "📊 **Natija**: %s\n\n", header)
	fmt.Fprintf(&b, "🔴 Xavf belgisi: %d\n", result.EnginesFlagged)
	fmt.Fprintf(&b, "🟢 Tekshirgan dvigatellar: %d\n\n", result.EnginesTotal)
	if result.Permalink != "" {
		fmt.Fprintf(&b, "🔗 [Batafsil hisobot](%s)\n\n", result.Permalink)
	}
	b.WriteString("⚖️ *Mas'uliyatni rad etish: natijalar tashqi tahlil xizmatiga asoslanadi " +
		"va 100% kafolat bermaydi. Har doim ehtiyot bo'ling.*\n\n")
	b.WriteString(adSlotText)
	return b.String()
}
