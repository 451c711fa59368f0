package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/skalibog/sgs/internal/analysis/aggregator"
	"github.com/skalibog/sgs/pkg/models"
)

// Формат строки результата:
// TICKER | SCORE | TECH_NOTES | NEWS_NOTES | RISK_FLAGS | EXPRESSION | KEY_LEVELS
const header = "TICKER | SCORE | TECH_NOTES | NEWS_NOTES | RISK_FLAGS | EXPRESSION | KEY_LEVELS"

// Render возвращает текстовый отчет пакетного скрининга
func Render(result *aggregator.ScreenResult) string {
	var b strings.Builder

	b.WriteString(header)
	b.WriteString("\n")

	for _, candidate := range result.Candidates {
		b.WriteString(candidate.OutputLine())
		b.WriteString("\n")
	}

	if len(result.Excluded) > 0 {
		b.WriteString("\nИсключены из ранжирования:\n")
		for _, excluded := range result.Excluded {
			b.WriteString(fmt.Sprintf("  %s: %s\n", excluded.Ticker, excluded.Reason))
		}
	}

	b.WriteString(fmt.Sprintf("\nКандидатов: %d, исключено: %d, время: %s\n",
		len(result.Candidates),
		len(result.Excluded),
		result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond)))

	return b.String()
}

// RenderHistory возвращает текстовую сводку истории анализа тикера
func RenderHistory(ticker string, history []*models.ShortCandidate) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("История анализа %s:\n", ticker))
	if len(history) == 0 {
		b.WriteString("  нет записей\n")
		return b.String()
	}

	for _, c := range history {
		b.WriteString(fmt.Sprintf("  %s | tech=%.1f adj=%+.1f penalty=%.1f final=%.1f | %s\n",
			c.AnalyzedAt.Format("2006-01-02 15:04"),
			c.TechScore,
			c.SentimentAdjustment,
			c.RiskPenalty,
			c.FinalScore,
			c.Expression))
	}

	return b.String()
}
