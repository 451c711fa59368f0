package risk

import (
	"math"
	"time"

	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/models"
)

// Detector выставляет флаги риска кандидата на шорт.
// Чистая функция от фундаментальных данных, технического снимка,
// дневного изменения и оценки катализатора: правила независимы
// и могут срабатывать одновременно.
type Detector struct {
	config config.RiskConfig
}

// NewDetector создает детектор флагов риска
func NewDetector(cfg config.RiskConfig) *Detector {
	return &Detector{
		config: cfg,
	}
}

// Detect возвращает множество флагов риска для тикера
func (d *Detector) Detect(ticker string, changePercent float64, fundamentals *models.Fundamentals, state *models.TechnicalState, assessment *models.CatalystAssessment) models.FlagSet {
	flags := models.NewFlagSet()

	if d.detectHighSqueeze(changePercent, fundamentals) {
		flags.Add(models.FlagHighSqueeze)
	}
	if d.detectExtremeVolatility(changePercent, fundamentals, state) {
		flags.Add(models.FlagExtremeVolatility)
	}
	if d.detectMicrocap(fundamentals) {
		flags.Add(models.FlagMicrocap)
	}
	if d.detectLowLiquidity(fundamentals) {
		flags.Add(models.FlagLowLiquidity)
	}
	if d.detectNonPrimaryExchange(fundamentals) {
		flags.Add(models.FlagNonPrimaryExchange)
	}
	if d.detectNewListing(fundamentals) {
		flags.Add(models.FlagNewListing)
	}
	if assessment != nil && assessment.JustifiesRepricing {
		flags.Add(models.FlagFundamentalRepricing)
	}
	if IsWarrant(ticker) {
		flags.Add(models.FlagWarrant)
	}

	return flags
}

// detectHighSqueeze проверяет риск шорт-сквиза.
// Прямые триггеры: экстремальное дневное движение или малое число
// акций в обращении. Косвенный: накопление не менее двух сигналов
// низкого флоута и перегретости.
func (d *Detector) detectHighSqueeze(changePercent float64, f *models.Fundamentals) bool {
	move := math.Abs(changePercent)

	if move > d.config.SqueezeChangeThreshold {
		return true
	}

	if f == nil {
		return false
	}

	if f.SharesOutstanding != nil && *f.SharesOutstanding < d.config.SqueezeSharesThreshold {
		return true
	}

	var signals int

	if f.FloatShares != nil && *f.FloatShares < d.config.LowFloatThreshold {
		signals += 2
	}
	if f.Beta != nil && *f.Beta > d.config.HighBetaThreshold {
		signals++
	}
	switch {
	case move > 50:
		signals += 2
	case move > 30:
		signals++
	}
	if f.FloatShares != nil && f.AvgVolume != nil && *f.AvgVolume > 0 {
		// Дней до покрытия меньше одного: флоут выкупается за день торгов
		if *f.FloatShares / *f.AvgVolume < 1 {
			signals++
		}
	}
	if f.MarketCap != nil && *f.MarketCap < 500_000_000 && move > 20 {
		signals++
	}

	return signals >= 2
}

// detectExtremeVolatility проверяет экстремальную волатильность
func (d *Detector) detectExtremeVolatility(changePercent float64, f *models.Fundamentals, state *models.TechnicalState) bool {
	if math.Abs(changePercent) > d.config.VolatilityChange {
		return true
	}

	if state != nil && state.ATRExpansion != nil && *state.ATRExpansion > d.config.ATRExpansionThreshold {
		return true
	}

	return f != nil && f.Beta != nil && *f.Beta > d.config.HighBetaThreshold
}

// detectMicrocap проверяет капитализацию ниже порога микрокапа
func (d *Detector) detectMicrocap(f *models.Fundamentals) bool {
	if f == nil || f.MarketCap == nil {
		return false
	}
	return *f.MarketCap < d.config.MicrocapThreshold
}

// detectLowLiquidity проверяет низкий средний объем торгов
func (d *Detector) detectLowLiquidity(f *models.Fundamentals) bool {
	if f == nil || f.AvgVolume == nil {
		return false
	}
	return *f.AvgVolume < d.config.LowVolumeThreshold
}

// detectNonPrimaryExchange проверяет листинг вне основной биржи.
// Отсутствие данных о бирже флагом не считается.
func (d *Detector) detectNonPrimaryExchange(f *models.Fundamentals) bool {
	if f == nil || f.Exchange == "" {
		return false
	}
	return f.Exchange != d.config.PrimaryExchange
}

// detectNewListing проверяет недавний выход на биржу
func (d *Detector) detectNewListing(f *models.Fundamentals) bool {
	if f == nil || f.IPODate == nil {
		return false
	}
	days := int(time.Since(*f.IPODate).Hours() / 24)
	return days <= d.config.NewListingDays
}
