package scoring

import (
	"fmt"
	"math"

	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/models"
)

// Максимальные вклады компонентов технической оценки.
// Сумма максимумов превышает 10 — итог срезается, это ожидаемо.
const (
	rsiMax       = 2.0
	bollingerMax = 2.0
	macdMax      = 1.5
	volumeMax    = 1.5
	momentumMax  = 1.5
	patternMax   = 1.5
)

// Breakdown представляет разбивку технической оценки по компонентам
type Breakdown struct {
	RSI       float64
	Bollinger float64
	MACD      float64
	Volume    float64
	Momentum  float64
	Pattern   float64
	Total     float64
}

// String возвращает компактную строку разбивки для логов
func (b Breakdown) String() string {
	return fmt.Sprintf("RSI=%.1f BB=%.1f MACD=%.1f VOL=%.1f MOM=%.1f PAT=%.1f TOTAL=%.1f",
		b.RSI, b.Bollinger, b.MACD, b.Volume, b.Momentum, b.Pattern, b.Total)
}

// Scorer отображает снимок технических индикаторов в оценку 0-10.
// Чем выше оценка, тем перекупленнее бумага и привлекательнее шорт.
// Отсутствующее поле снимка дает нулевой вклад, не ошибку.
type Scorer struct {
	config config.ScoringConfig
}

// NewScorer создает новый расчетчик технической оценки
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{
		config: cfg,
	}
}

// Score вычисляет техническую оценку и ее разбивку по компонентам
func (s *Scorer) Score(state *models.TechnicalState) (float64, Breakdown) {
	breakdown := Breakdown{
		RSI:       s.scoreRSI(state),
		Bollinger: s.scoreBollinger(state),
		MACD:      s.scoreMACD(state),
		Volume:    s.scoreVolume(state),
		Momentum:  s.scoreMomentum(state),
		Pattern:   s.scorePattern(state),
	}

	total := breakdown.RSI + breakdown.Bollinger + breakdown.MACD +
		breakdown.Volume + breakdown.Momentum + breakdown.Pattern
	breakdown.Total = math.Min(total, s.config.MaxTotal)

	return breakdown.Total, breakdown
}

// scoreRSI оценивает перекупленность по RSI ступенчатой функцией.
// Используется больший из дневного и внутридневного RSI.
func (s *Scorer) scoreRSI(state *models.TechnicalState) float64 {
	rsi := state.RSIDaily
	if state.RSIIntraday != nil && (rsi == nil || *state.RSIIntraday > *rsi) {
		rsi = state.RSIIntraday
	}
	if rsi == nil {
		return 0
	}

	switch {
	case *rsi >= 90:
		return rsiMax
	case *rsi >= 80:
		return 1.7
	case *rsi >= 70:
		return 1.3
	case *rsi >= 60:
		return 0.8
	case *rsi >= 50:
		return 0.3
	default:
		return 0
	}
}

// scoreBollinger оценивает растянутость цены относительно полос Боллинджера
func (s *Scorer) scoreBollinger(state *models.TechnicalState) float64 {
	if state.PriceAboveUpper {
		return bollingerMax
	}
	if state.BollingerPosition == nil {
		return 0
	}

	switch pb := *state.BollingerPosition; {
	case pb >= 0.95:
		return 1.7
	case pb >= 0.80:
		return 1.3
	case pb >= 0.60:
		return 0.7
	case pb >= 0.50:
		return 0.3
	default:
		return 0
	}
}

// scoreMACD оценивает затухание импульса по MACD
func (s *Scorer) scoreMACD(state *models.TechnicalState) float64 {
	if state.MACDHistogram == nil {
		return 0
	}

	var score float64

	if state.MACDHistogramFalling {
		score += 0.8
	}

	// Положительная, но маленькая гистограмма — импульс выдыхается
	if hist := *state.MACDHistogram; hist > 0 && hist < 0.1 {
		score += 0.4
	}

	if state.MACDLine != nil && state.MACDSignal != nil && *state.MACDLine < *state.MACDSignal {
		score += 0.3
	}

	return math.Min(score, macdMax)
}

// scoreVolume оценивает качество объема: дивергенция и слабый
// относительный объем повышают привлекательность шорта
func (s *Scorer) scoreVolume(state *models.TechnicalState) float64 {
	var score float64

	if !state.VolumeConfirms {
		score += 1.0
	}

	if state.VolumeVsAvg != nil {
		switch ratio := *state.VolumeVsAvg; {
		case ratio < 0.7:
			score += 0.5
		case ratio < 1.0:
			score += 0.2
		}
	}

	return math.Min(score, volumeMax)
}

// scoreMomentum оценивает параболичность движения по темпам изменения цены
func (s *Scorer) scoreMomentum(state *models.TechnicalState) float64 {
	var score float64

	if state.ROC1D != nil {
		switch r1 := *state.ROC1D; {
		case r1 >= 50:
			score += 0.6
		case r1 >= 30:
			score += 0.4
		case r1 >= 20:
			score += 0.2
		}
	}

	if state.ROC5D != nil {
		switch r5 := *state.ROC5D; {
		case r5 >= 100:
			score += 0.6
		case r5 >= 50:
			score += 0.4
		case r5 >= 30:
			score += 0.2
		}
	}

	// Замедление: трехдневный темп заметно отстает от пятидневного
	if state.ROC3D != nil && state.ROC5D != nil {
		if *state.ROC5D > 0 && *state.ROC3D < *state.ROC5D*0.6 {
			score += 0.3
		}
	}

	return math.Min(score, momentumMax)
}

// scorePattern оценивает разворотные паттерны
func (s *Scorer) scorePattern(state *models.TechnicalState) float64 {
	var score float64

	if state.LowerHigh {
		score += 0.8
	}
	if state.ExhaustionCandle {
		score += 0.7
	}

	return math.Min(score, patternMax)
}
