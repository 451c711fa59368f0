package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/models"
)

func newTestScorer() *Scorer {
	return NewScorer(config.Default().Analysis.Scoring)
}

func fptr(v float64) *float64 {
	return &v
}

func TestScoreEmptyState(t *testing.T) {
	scorer := newTestScorer()

	total, breakdown := scorer.Score(&models.TechnicalState{VolumeConfirms: true})

	assert.Equal(t, 0.0, breakdown.RSI)
	assert.Equal(t, 0.0, breakdown.Bollinger)
	assert.Equal(t, 0.0, breakdown.MACD)
	assert.Equal(t, 0.0, breakdown.Volume)
	assert.Equal(t, 0.0, breakdown.Momentum)
	assert.Equal(t, 0.0, breakdown.Pattern)
	assert.Equal(t, 0.0, total)
}

func TestScoreRSISteps(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		name     string
		daily    *float64
		intraday *float64
		want     float64
	}{
		{"нет данных", nil, nil, 0},
		{"нейтральный", fptr(45), nil, 0},
		{"слегка перекуплен", fptr(55), nil, 0.3},
		{"умеренно перекуплен", fptr(65), nil, 0.8},
		{"перекуплен", fptr(75), nil, 1.3},
		{"сильно перекуплен", fptr(85), nil, 1.7},
		{"экстремально перекуплен", fptr(95), nil, 2.0},
		{"граница 90", fptr(90), nil, 2.0},
		{"внутридневной выше дневного", fptr(65), fptr(92), 2.0},
		{"дневной выше внутридневного", fptr(92), fptr(65), 2.0},
		{"только внутридневной", nil, fptr(75), 1.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &models.TechnicalState{RSIDaily: tt.daily, RSIIntraday: tt.intraday}
			assert.Equal(t, tt.want, scorer.scoreRSI(state))
		})
	}
}

func TestScoreBollinger(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		name       string
		position   *float64
		aboveUpper bool
		want       float64
	}{
		{"выше верхней полосы", nil, true, 2.0},
		{"у верхней полосы", fptr(0.97), false, 1.7},
		{"высоко в полосе", fptr(0.85), false, 1.3},
		{"выше середины", fptr(0.65), false, 0.7},
		{"чуть выше середины", fptr(0.52), false, 0.3},
		{"нижняя половина", fptr(0.3), false, 0},
		{"нет данных", nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &models.TechnicalState{
				BollingerPosition: tt.position,
				PriceAboveUpper:   tt.aboveUpper,
			}
			assert.Equal(t, tt.want, scorer.scoreBollinger(state))
		})
	}
}

func TestScoreMACD(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		name    string
		state   *models.TechnicalState
		want    float64
	}{
		{
			"нет данных",
			&models.TechnicalState{},
			0,
		},
		{
			"затухающая гистограмма",
			&models.TechnicalState{
				MACDHistogram:        fptr(0.5),
				MACDHistogramFalling: true,
			},
			0.8,
		},
		{
			"все условия",
			&models.TechnicalState{
				MACDHistogram:        fptr(0.05),
				MACDHistogramFalling: true,
				MACDLine:             fptr(1.0),
				MACDSignal:           fptr(1.2),
			},
			1.5,
		},
		{
			"линия ниже сигнальной",
			&models.TechnicalState{
				MACDHistogram: fptr(0.5),
				MACDLine:      fptr(1.0),
				MACDSignal:    fptr(1.2),
			},
			0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorer.scoreMACD(tt.state), 1e-9)
		})
	}
}

func TestScoreVolume(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		name     string
		confirms bool
		ratio    *float64
		want     float64
	}{
		{"объем подтверждает", true, fptr(1.5), 0},
		{"дивергенция объема", false, fptr(1.5), 1.0},
		{"дивергенция и слабый объем", false, fptr(0.5), 1.5},
		{"дивергенция и объем ниже среднего", false, fptr(0.9), 1.2},
		{"только слабый объем", true, fptr(0.5), 0.5},
		{"нет данных об объеме", false, nil, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &models.TechnicalState{
				VolumeConfirms: tt.confirms,
				VolumeVsAvg:    tt.ratio,
			}
			assert.InDelta(t, tt.want, scorer.scoreVolume(state), 1e-9)
		})
	}
}

func TestScoreMomentum(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		name  string
		state *models.TechnicalState
		want  float64
	}{
		{"нет данных", &models.TechnicalState{}, 0},
		{
			"параболический день",
			&models.TechnicalState{ROC1D: fptr(60)},
			0.6,
		},
		{
			"растянутая неделя",
			&models.TechnicalState{ROC5D: fptr(120)},
			0.6,
		},
		{
			"замедление темпа",
			&models.TechnicalState{ROC3D: fptr(10), ROC5D: fptr(40)},
			0.7,
		},
		{
			"максимум срезается",
			&models.TechnicalState{ROC1D: fptr(60), ROC3D: fptr(10), ROC5D: fptr(120)},
			1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorer.scoreMomentum(tt.state), 1e-9)
		})
	}
}

// Сценарий полного перегрева: сырая сумма компонентов превышает 10,
// итог обязан срезаться ровно до 10
func TestScoreClampedAtMax(t *testing.T) {
	scorer := newTestScorer()

	state := &models.TechnicalState{
		RSIDaily:             fptr(95),
		PriceAboveUpper:      true,
		MACDHistogram:        fptr(0.05),
		MACDHistogramFalling: true,
		MACDLine:             fptr(0.5),
		MACDSignal:           fptr(0.7),
		VolumeConfirms:       false,
		VolumeVsAvg:          fptr(0.5),
		ROC1D:                fptr(60),
		ROC3D:                fptr(20),
		ROC5D:                fptr(120),
		LowerHigh:            true,
		ExhaustionCandle:     true,
	}

	total, breakdown := scorer.Score(state)

	rawSum := breakdown.RSI + breakdown.Bollinger + breakdown.MACD +
		breakdown.Volume + breakdown.Momentum + breakdown.Pattern
	assert.Greater(t, rawSum, 10.0)
	assert.Equal(t, 10.0, total)
	assert.Equal(t, 10.0, breakdown.Total)
}

// Каждый компонент остается в своем документированном диапазоне
func TestSubScoreRanges(t *testing.T) {
	scorer := newTestScorer()

	states := []*models.TechnicalState{
		{},
		{RSIDaily: fptr(100), RSIIntraday: fptr(100)},
		{PriceAboveUpper: true, BollingerPosition: fptr(5)},
		{MACDHistogram: fptr(0.01), MACDHistogramFalling: true, MACDLine: fptr(-1), MACDSignal: fptr(1)},
		{VolumeConfirms: false, VolumeVsAvg: fptr(0.01)},
		{ROC1D: fptr(1000), ROC3D: fptr(0), ROC5D: fptr(1000)},
		{LowerHigh: true, ExhaustionCandle: true},
	}

	for _, state := range states {
		total, b := scorer.Score(state)
		assert.GreaterOrEqual(t, b.RSI, 0.0)
		assert.LessOrEqual(t, b.RSI, rsiMax)
		assert.GreaterOrEqual(t, b.Bollinger, 0.0)
		assert.LessOrEqual(t, b.Bollinger, bollingerMax)
		assert.GreaterOrEqual(t, b.MACD, 0.0)
		assert.LessOrEqual(t, b.MACD, macdMax)
		assert.GreaterOrEqual(t, b.Volume, 0.0)
		assert.LessOrEqual(t, b.Volume, volumeMax)
		assert.GreaterOrEqual(t, b.Momentum, 0.0)
		assert.LessOrEqual(t, b.Momentum, momentumMax)
		assert.GreaterOrEqual(t, b.Pattern, 0.0)
		assert.LessOrEqual(t, b.Pattern, patternMax)
		assert.GreaterOrEqual(t, total, 0.0)
		assert.LessOrEqual(t, total, 10.0)
	}
}
