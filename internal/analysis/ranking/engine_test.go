package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/models"
)

func newTestEngine() *Engine {
	return NewEngine(config.Default().Analysis.Ranking)
}

func fptr(v float64) *float64 {
	return &v
}

func TestPenaltyDeduplicated(t *testing.T) {
	engine := newTestEngine()

	flags := models.NewFlagSet(
		models.FlagMicrocap,
		models.FlagMicrocap,
		models.FlagHighSqueeze,
	)

	// MICROCAP 1.0 + HIGH_SQUEEZE 2.0, без двойного счета
	assert.InDelta(t, 3.0, engine.Penalty(flags), 1e-9)
}

func TestPenaltyAllFlags(t *testing.T) {
	engine := newTestEngine()

	flags := models.NewFlagSet(
		models.FlagMicrocap,
		models.FlagHighSqueeze,
		models.FlagLowLiquidity,
		models.FlagExtremeVolatility,
		models.FlagFundamentalRepricing,
		models.FlagWarrant,
		models.FlagNewListing,
		models.FlagNonPrimaryExchange,
	)

	assert.InDelta(t, 10.0, engine.Penalty(flags), 1e-9)
}

func TestFinalScoreClamped(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name      string
		tech      float64
		sentiment float64
		penalty   float64
		want      float64
	}{
		{"обычная комбинация", 7.0, -1.5, 2.0, 3.5},
		{"верхний срез", 10.0, 3.0, 0, 10.0},
		{"нижний срез", 2.0, -5.0, 5.0, 0},
		{"нулевые входы", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.FinalScore(tt.tech, tt.sentiment, tt.penalty)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 10.0)
		})
	}
}

// Опасное сочетание флагов дает AVOID при любой оценке
func TestExpressionDangerousCombo(t *testing.T) {
	engine := newTestEngine()

	flags := models.NewFlagSet(models.FlagMicrocap, models.FlagHighSqueeze)

	for _, score := range []float64{0, 5, 10} {
		assert.Equal(t, models.ExpressionAvoid,
			engine.Expression(score, flags, nil, nil))
	}

	// Надмножество опасного сочетания тоже AVOID
	superset := models.NewFlagSet(
		models.FlagMicrocap, models.FlagHighSqueeze, models.FlagWarrant)
	assert.Equal(t, models.ExpressionAvoid,
		engine.Expression(10, superset, nil, nil))
}

func TestExpressionDecisionOrder(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name       string
		score      float64
		flags      models.FlagSet
		assessment *models.CatalystAssessment
		beta       *float64
		want       models.TradeExpression
	}{
		{
			"уверенная переоценка важнее оценки",
			9.0,
			models.NewFlagSet(),
			&models.CatalystAssessment{JustifiesRepricing: true, Confidence: 0.8},
			nil,
			models.ExpressionAvoid,
		},
		{
			"неуверенная переоценка пропускает",
			9.0,
			models.NewFlagSet(),
			&models.CatalystAssessment{JustifiesRepricing: true, Confidence: 0.5},
			nil,
			models.ExpressionShortShares,
		},
		{
			"низкая оценка",
			3.9,
			models.NewFlagSet(),
			nil,
			nil,
			models.ExpressionAvoid,
		},
		{
			"сквиз предпочитает путы",
			7.0,
			models.NewFlagSet(models.FlagHighSqueeze),
			nil,
			nil,
			models.ExpressionBuyPuts,
		},
		{
			"волатильность предпочитает спреды",
			7.0,
			models.NewFlagSet(models.FlagExtremeVolatility),
			nil,
			nil,
			models.ExpressionPutSpreads,
		},
		{
			"сквиз важнее волатильности невозможен: это AVOID",
			7.0,
			models.NewFlagSet(models.FlagHighSqueeze, models.FlagExtremeVolatility),
			nil,
			nil,
			models.ExpressionAvoid,
		},
		{
			"запредельная бета",
			7.0,
			models.NewFlagSet(),
			nil,
			fptr(5.0),
			models.ExpressionAvoid,
		},
		{
			"высокая бета",
			7.0,
			models.NewFlagSet(),
			nil,
			fptr(3.5),
			models.ExpressionBuyPuts,
		},
		{
			"микрокап без сквиза",
			7.0,
			models.NewFlagSet(models.FlagMicrocap),
			nil,
			nil,
			models.ExpressionPutSpreads,
		},
		{
			"чистый кандидат",
			7.0,
			models.NewFlagSet(),
			nil,
			fptr(1.2),
			models.ExpressionShortShares,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Expression(tt.score, tt.flags, tt.assessment, tt.beta)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRankDeterministic(t *testing.T) {
	engine := newTestEngine()

	candidates := []*models.ShortCandidate{
		{Ticker: "BBBB", FinalScore: 7.0},
		{Ticker: "AAAA", FinalScore: 7.0},
		{Ticker: "CCCC", FinalScore: 9.0},
		{Ticker: "DDDD", FinalScore: 3.0},
	}

	ranked := engine.Rank(candidates)

	tickers := make([]string, len(ranked))
	for i, c := range ranked {
		tickers[i] = c.Ticker
	}

	// Убывание оценки, равные оценки по тикеру
	assert.Equal(t, []string{"CCCC", "AAAA", "BBBB", "DDDD"}, tickers)
}

func TestRankDeduplicatesByTicker(t *testing.T) {
	engine := newTestEngine()

	candidates := []*models.ShortCandidate{
		{Ticker: "AAAA", FinalScore: 5.0},
		{Ticker: "AAAA", FinalScore: 8.0},
		{Ticker: "AAAA", FinalScore: 6.0},
	}

	ranked := engine.Rank(candidates)

	assert.Len(t, ranked, 1)
	assert.Equal(t, 8.0, ranked[0].FinalScore)
}
