package sentiment

import (
	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/models"
)

// Adjuster переводит оценку катализатора в корректировку технической
// оценки. Отрицательная корректировка снижает привлекательность шорта
// (катализатор реальный), положительная — повышает (движение пустое).
type Adjuster struct {
	config config.SentimentConfig
}

// NewAdjuster создает корректировщик оценки по катализатору
func NewAdjuster(cfg config.SentimentConfig) *Adjuster {
	return &Adjuster{
		config: cfg,
	}
}

// Adjust вычисляет корректировку по оценке катализатора.
// Возвращает срезанное значение и сырое до среза, сырое идет в отчет.
func (a *Adjuster) Adjust(assessment *models.CatalystAssessment) (capped, raw float64) {
	base := catalystAdjustment(assessment.Type) + sentimentAdjustment(assessment.Sentiment)

	if assessment.JustifiesRepricing {
		base -= a.config.RepricingPenalty
	}

	// Уверенность масштабирует величину: при нулевой уверенности
	// корректировка строго нулевая
	raw = base * assessment.Confidence

	capped = raw
	if capped < a.config.MinAdjustment {
		capped = a.config.MinAdjustment
	}
	if capped > a.config.MaxAdjustment {
		capped = a.config.MaxAdjustment
	}

	return capped, raw
}

// NoNewsAdjustment возвращает фиксированную корректировку при полном
// отсутствии новостей: движение без новостей слегка в пользу шорта
func (a *Adjuster) NoNewsAdjustment() float64 {
	return a.config.NoNewsAdjustment
}

// catalystAdjustment возвращает вклад типа катализатора.
// Реальные фундаментальные события защищают бумагу от шорта,
// пустые и социальные — наоборот.
func catalystAdjustment(t models.CatalystType) float64 {
	switch t {
	case models.CatalystEarnings:
		return -3.0
	case models.CatalystFDA:
		return -4.0
	case models.CatalystMA:
		return -5.0
	case models.CatalystUpgrade:
		return -2.0
	case models.CatalystContract:
		return -1.5
	case models.CatalystSpeculative:
		return 1.5
	case models.CatalystMemeSocial:
		return 2.0
	case models.CatalystUnknown:
		return 0.5
	default:
		return 0
	}
}

// sentimentAdjustment возвращает вклад тональности новостей
func sentimentAdjustment(s models.SentimentLevel) float64 {
	switch s {
	case models.SentimentStronglyPositive:
		return -1.0
	case models.SentimentPositive:
		return -0.5
	case models.SentimentMixed:
		return 0.5
	case models.SentimentNegative:
		return 1.0
	case models.SentimentStronglyNegative:
		return 1.5
	default:
		return 0
	}
}
