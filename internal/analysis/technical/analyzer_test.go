package technical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/models"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(config.Default().Analysis.Technical)
}

// makeSeries строит дневной ряд по ценам закрытия: диапазон свечи
// симметричен вокруг закрытия, объем нарастает
func makeSeries(closes []float64) *models.Series {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]*models.Candle, len(closes))
	for i, c := range closes {
		bars[i] = &models.Candle{
			Ticker:    "TEST",
			Interval:  "daily",
			Timestamp: start.AddDate(0, 0, i),
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100 + float64(i),
		}
	}
	return &models.Series{Ticker: "TEST", Interval: "daily", Bars: bars}
}

func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 50 + float64(i)
	}
	return closes
}

func TestAnalyzeEmptySeries(t *testing.T) {
	analyzer := newTestAnalyzer()

	state := analyzer.Analyze(&models.Series{}, nil)

	assert.Nil(t, state.RSIDaily)
	assert.Nil(t, state.MACDHistogram)
	assert.True(t, state.VolumeConfirms)
	assert.False(t, state.PriceAboveUpper)
}

func TestAnalyzeShortHistory(t *testing.T) {
	analyzer := newTestAnalyzer()

	// Пять свечей: ни один индикатор с окном 14+ не рассчитывается
	state := analyzer.Analyze(makeSeries(risingCloses(5)), nil)

	assert.Nil(t, state.RSIDaily)
	assert.Nil(t, state.MACDLine)
	assert.Nil(t, state.BollingerPosition)
	assert.Nil(t, state.ATRDaily)
	assert.Nil(t, state.VolumeVsAvg)
	assert.NotNil(t, state.ROC1D)
	assert.NotNil(t, state.ROC3D)
}

func TestAnalyzeSteadyRally(t *testing.T) {
	analyzer := newTestAnalyzer()

	state := analyzer.Analyze(makeSeries(risingCloses(60)), nil)

	require.NotNil(t, state.RSIDaily)
	assert.Greater(t, *state.RSIDaily, 90.0)

	require.NotNil(t, state.BollingerPosition)
	assert.Greater(t, *state.BollingerPosition, 0.5)

	require.NotNil(t, state.ROC5D)
	assert.Greater(t, *state.ROC5D, 0.0)

	require.NotNil(t, state.VolumeVsAvg)
	assert.Greater(t, *state.VolumeVsAvg, 1.0)

	// Объем нарастает вместе с ценой
	assert.True(t, state.VolumeConfirms)
	assert.Equal(t, "rising", state.OBVTrend)
}

// Результат не зависит от порядка свечей на входе
func TestAnalyzeSortsInput(t *testing.T) {
	analyzer := newTestAnalyzer()

	series := makeSeries(risingCloses(60))

	reversed := &models.Series{Ticker: "TEST", Interval: "daily"}
	for i := len(series.Bars) - 1; i >= 0; i-- {
		reversed.Bars = append(reversed.Bars, series.Bars[i])
	}

	assert.Equal(t, analyzer.Analyze(series, nil), analyzer.Analyze(reversed, nil))
}

func TestDetectLowerHigh(t *testing.T) {
	highs := []float64{1, 2, 1, 1, 3, 1, 1, 2.5, 1, 1}
	bars := make([]*models.Candle, len(highs))
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i, h := range highs {
		bars[i] = &models.Candle{Timestamp: start.AddDate(0, 0, i), High: h, Low: h - 0.5, Close: h - 0.2, Volume: 100}
	}

	assert.True(t, detectLowerHigh(bars, 10))

	// Последний пик выше предыдущего — паттерна нет
	bars[7].High = 3.5
	assert.False(t, detectLowerHigh(bars, 10))

	// Недостаточно истории
	assert.False(t, detectLowerHigh(bars[:5], 10))
}

func TestDetectExhaustionCandle(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]*models.Candle, 5)
	for i := 0; i < 4; i++ {
		bars[i] = &models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      10.2, High: 11, Low: 10, Close: 10.5,
			Volume: 100,
		}
	}
	// Широкий диапазон, длинная верхняя тень, закрытие внизу, большой объем
	bars[4] = &models.Candle{
		Timestamp: start.AddDate(0, 0, 4),
		Open:      11, High: 16, Low: 10, Close: 10.5,
		Volume: 300,
	}

	assert.True(t, detectExhaustionCandle(bars, 5))

	// Закрытие в верхней половине диапазона ломает паттерн
	bars[4].Close = 15
	assert.False(t, detectExhaustionCandle(bars, 5))
}

func TestKeyLevels(t *testing.T) {
	analyzer := newTestAnalyzer()

	daily := makeSeries([]float64{10, 12, 11, 14, 13, 15, 16, 15, 14, 13, 12, 11})
	levels := analyzer.KeyLevels(daily, nil)

	require.NotNil(t, levels.PriorClose)
	assert.Equal(t, "12.00", levels.PriorClose.StringFixed(2))

	// Экстремумы последних 10 дней: максимум 16+1, минимум 13-1
	require.NotNil(t, levels.Resistance)
	assert.Equal(t, "17.00", levels.Resistance.StringFixed(2))
	require.NotNil(t, levels.Support)
	assert.Equal(t, "10.00", levels.Support.StringFixed(2))

	assert.Nil(t, levels.IntradayHigh)
	assert.Nil(t, levels.IntradayLow)
}

func TestVolumeVsAverageWindow(t *testing.T) {
	analyzer := newTestAnalyzer()

	volumes := make([]float64, 20)
	for i := range volumes {
		volumes[i] = 100
	}
	volumes[19] = 290

	ratio := analyzer.volumeVsAverage(volumes)
	require.NotNil(t, ratio)
	// Среднее окна включает текущую свечу: (19*100+290)/20 = 109.5
	assert.InDelta(t, 290.0/109.5, *ratio, 1e-9)

	assert.Nil(t, analyzer.volumeVsAverage(volumes[:10]))
}
