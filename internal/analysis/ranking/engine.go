package ranking

import (
	"sort"

	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/models"
)

// Опасные сочетания флагов, при которых шорт не берется
// независимо от итоговой оценки
var dangerousCombos = [][]models.RiskFlag{
	{models.FlagMicrocap, models.FlagHighSqueeze},
	{models.FlagHighSqueeze, models.FlagExtremeVolatility},
	{models.FlagMicrocap, models.FlagHighSqueeze, models.FlagLowLiquidity},
}

// Engine вычисляет итоговую оценку, штрафы за риски и способ
// выражения шорт-идеи, затем ранжирует кандидатов пакета
type Engine struct {
	config config.RankingConfig
}

// NewEngine создает движок ранжирования
func NewEngine(cfg config.RankingConfig) *Engine {
	return &Engine{
		config: cfg,
	}
}

// Penalty возвращает суммарный штраф по множеству флагов.
// Множество дедуплицировано по построению, флаг штрафуется один раз.
func (e *Engine) Penalty(flags models.FlagSet) float64 {
	var total float64
	for flag := range flags {
		total += flagPenalty(flag)
	}
	return total
}

// flagPenalty возвращает фиксированный штраф за один флаг риска
func flagPenalty(flag models.RiskFlag) float64 {
	switch flag {
	case models.FlagMicrocap:
		return 1.0
	case models.FlagHighSqueeze:
		return 2.0
	case models.FlagLowLiquidity:
		return 0.5
	case models.FlagExtremeVolatility:
		return 1.5
	case models.FlagFundamentalRepricing:
		return 3.0
	case models.FlagWarrant:
		return 0.5
	case models.FlagNewListing:
		return 1.0
	case models.FlagNonPrimaryExchange:
		return 0.5
	default:
		return 0
	}
}

// FinalScore комбинирует техническую оценку, корректировку по
// катализатору и штрафы за риски со срезом в [0,10]
func (e *Engine) FinalScore(techScore, sentimentAdjustment, penalty float64) float64 {
	score := techScore + sentimentAdjustment - penalty
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// Expression выбирает способ выражения шорт-идеи по таблице решений.
// Правила проверяются строго по порядку, срабатывает первое.
func (e *Engine) Expression(finalScore float64, flags models.FlagSet, assessment *models.CatalystAssessment, beta *float64) models.TradeExpression {
	for _, combo := range dangerousCombos {
		if flags.HasAll(combo...) {
			return models.ExpressionAvoid
		}
	}

	if assessment != nil && assessment.JustifiesRepricing && assessment.Confidence >= e.config.RepricingConfidenceAvoid {
		return models.ExpressionAvoid
	}

	if finalScore < e.config.AvoidScoreThreshold {
		return models.ExpressionAvoid
	}

	if flags.Has(models.FlagHighSqueeze) {
		return models.ExpressionBuyPuts
	}

	if flags.Has(models.FlagExtremeVolatility) {
		return models.ExpressionPutSpreads
	}

	// Градация по бете: запредельная бета исключает и опционы
	if beta != nil {
		if *beta > e.config.MaxBetaForShares*1.5 {
			return models.ExpressionAvoid
		}
		if *beta > e.config.MaxBetaForShares {
			return models.ExpressionBuyPuts
		}
	}

	if flags.Has(models.FlagMicrocap) {
		return models.ExpressionPutSpreads
	}

	return models.ExpressionShortShares
}

// Rank сортирует кандидатов по убыванию итоговой оценки.
// Дубликаты тикеров схлопываются с сохранением большей оценки,
// равные оценки упорядочиваются по тикеру для воспроизводимости.
func (e *Engine) Rank(candidates []*models.ShortCandidate) []*models.ShortCandidate {
	best := make(map[string]*models.ShortCandidate, len(candidates))
	for _, c := range candidates {
		if prev, ok := best[c.Ticker]; ok && prev.FinalScore >= c.FinalScore {
			continue
		}
		best[c.Ticker] = c
	}

	ranked := make([]*models.ShortCandidate, 0, len(best))
	for _, c := range best {
		ranked = append(ranked, c)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		return ranked[i].Ticker < ranked[j].Ticker
	})

	return ranked
}
