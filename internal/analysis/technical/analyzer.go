package technical

import (
	"math"
	"sort"

	"github.com/markcheno/go-talib"

	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/models"
)

// Analyzer реализует расчет технических индикаторов по ряду свечей.
// Все вычисления чистые; при нехватке истории поле снимка остается
// пустым и дает нулевой вклад в оценку.
type Analyzer struct {
	config config.TechnicalConfig
}

// NewAnalyzer создает новый анализатор технических индикаторов
func NewAnalyzer(cfg config.TechnicalConfig) *Analyzer {
	return &Analyzer{
		config: cfg,
	}
}

// Analyze строит снимок технических индикаторов по дневному ряду
// и, при наличии, внутридневному
func (a *Analyzer) Analyze(daily, intraday *models.Series) *models.TechnicalState {
	state := &models.TechnicalState{
		VolumeConfirms: true,
	}

	if daily.IsEmpty() {
		return state
	}

	// Сортируем явно: внешний порядок свечей не гарантирован
	bars := sortedAscending(daily.Bars)
	closes, highs, lows, volumes := extractColumns(bars)

	state.RSIDaily = a.currentRSI(closes)

	macdLine, macdSignal, macdHist, histFalling := a.currentMACD(closes)
	state.MACDLine = macdLine
	state.MACDSignal = macdSignal
	state.MACDHistogram = macdHist
	state.MACDHistogramFalling = histFalling

	upper, middle, lower, percentB, aboveUpper := a.currentBollinger(closes)
	state.BollingerUpper = upper
	state.BollingerMiddle = middle
	state.BollingerLower = lower
	state.BollingerPosition = percentB
	state.PriceAboveUpper = aboveUpper

	atr, atrPct, atrExpansion := a.currentATR(highs, lows, closes)
	state.ATRDaily = atr
	state.ATRPercent = atrPct
	state.ATRExpansion = atrExpansion

	state.OBVTrend = a.obvTrend(closes, volumes, 5)
	state.VolumeVsAvg = a.volumeVsAverage(volumes)
	state.VolumeConfirms = a.volumeConfirmsPrice(closes, volumes, 5)

	state.ROC1D = a.currentROC(closes, 1)
	state.ROC3D = a.currentROC(closes, 3)
	state.ROC5D = a.currentROC(closes, 5)

	state.LowerHigh = detectLowerHigh(bars, a.config.PatternLookback)
	state.ExhaustionCandle = detectExhaustionCandle(bars, a.config.VolumeAvgWindow)

	if !intraday.IsEmpty() {
		intradayBars := sortedAscending(intraday.Bars)
		intradayCloses, _, _, _ := extractColumns(intradayBars)
		state.RSIIntraday = a.currentRSI(intradayCloses)

		// Паттерны на внутридневном графике дополняют дневные
		state.LowerHigh = state.LowerHigh || detectLowerHigh(intradayBars, 20)
		state.ExhaustionCandle = state.ExhaustionCandle || detectExhaustionCandle(intradayBars, a.config.VolumeAvgWindow)
	}

	return state
}

// currentRSI рассчитывает последнее значение RSI
func (a *Analyzer) currentRSI(closes []float64) *float64 {
	period := a.config.RSIPeriod
	if len(closes) < period+1 {
		return nil
	}

	rsi := talib.Rsi(closes, period)
	return lastValid(rsi)
}

// currentMACD рассчитывает последние значения MACD и признак
// затухающей гистограммы (три последних значения строго убывают)
func (a *Analyzer) currentMACD(closes []float64) (line, signal, hist *float64, falling bool) {
	slow := a.config.MACDSlow
	sig := a.config.MACDSignal
	if len(closes) < slow+sig {
		return nil, nil, nil, false
	}

	macd, macdSignal, macdHist := talib.Macd(closes, a.config.MACDFast, slow, sig)

	line = lastValid(macd)
	signal = lastValid(macdSignal)
	hist = lastValid(macdHist)

	if n := len(macdHist); n >= 3 {
		h0, h1, h2 := macdHist[n-3], macdHist[n-2], macdHist[n-1]
		if !math.IsNaN(h0) && !math.IsNaN(h1) && !math.IsNaN(h2) {
			falling = h2 < h1 && h1 < h0
		}
	}

	return line, signal, hist, falling
}

// currentBollinger рассчитывает последние значения полос Боллинджера,
// позицию цены в полосе (%B) и признак выхода за верхнюю границу
func (a *Analyzer) currentBollinger(closes []float64) (upper, middle, lower, percentB *float64, aboveUpper bool) {
	window := a.config.BollingerWindow
	if len(closes) < window {
		return nil, nil, nil, nil, false
	}

	up, mid, low := talib.BBands(closes, window, a.config.BollingerStd, a.config.BollingerStd, 0)

	upper = lastValid(up)
	middle = lastValid(mid)
	lower = lastValid(low)

	lastClose := closes[len(closes)-1]
	if upper != nil && lower != nil {
		width := *upper - *lower
		if width > 0 {
			pb := (lastClose - *lower) / width
			percentB = &pb
		}
		aboveUpper = lastClose > *upper
	}

	return upper, middle, lower, percentB, aboveUpper
}

// currentATR рассчитывает последнее значение ATR, его процент от цены
// и расширение относительно значения периодом ранее
func (a *Analyzer) currentATR(highs, lows, closes []float64) (atr, atrPct, expansion *float64) {
	period := a.config.ATRPeriod
	if len(closes) < period+1 {
		return nil, nil, nil
	}

	values := talib.Atr(highs, lows, closes, period)
	atr = lastValid(values)
	if atr == nil {
		return nil, nil, nil
	}

	lastClose := closes[len(closes)-1]
	if lastClose > 0 {
		pct := *atr / lastClose * 100
		atrPct = &pct
	}

	// Расширение волатильности: текущий ATR против ATR периодом ранее
	if prevIdx := len(values) - 1 - period; prevIdx >= period {
		prev := values[prevIdx]
		if !math.IsNaN(prev) && prev > 0 {
			exp := *atr / prev
			expansion = &exp
		}
	}

	return atr, atrPct, expansion
}

// obvTrend определяет направление OBV за последние lookback свечей:
// rising, falling или flat
func (a *Analyzer) obvTrend(closes, volumes []float64, lookback int) string {
	if len(closes) < 2 {
		return ""
	}

	obv := talib.Obv(closes, volumes)
	if len(obv) < lookback {
		return ""
	}

	recent := obv[len(obv)-lookback:]
	minVal, maxVal := recent[0], recent[0]
	for _, v := range recent {
		if math.IsNaN(v) {
			return ""
		}
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}

	obvRange := maxVal - minVal
	if obvRange == 0 {
		return "flat"
	}

	// Наклон нормализуем к диапазону OBV за окно
	slope := calculateSlope(recent)
	normalized := slope / (obvRange / float64(len(recent)))

	switch {
	case normalized > 0.1:
		return "rising"
	case normalized < -0.1:
		return "falling"
	default:
		return "flat"
	}
}

// volumeVsAverage возвращает отношение объема последней свечи к среднему
// за скользящее окно, включающее текущую свечу
func (a *Analyzer) volumeVsAverage(volumes []float64) *float64 {
	window := a.config.VolumeAvgWindow
	if len(volumes) < window {
		return nil
	}

	recent := volumes[len(volumes)-window:]
	var sum float64
	for _, v := range recent {
		sum += v
	}
	avg := sum / float64(window)
	if avg == 0 {
		return nil
	}

	ratio := volumes[len(volumes)-1] / avg
	return &ratio
}

// volumeConfirmsPrice проверяет, подтверждает ли объем движение цены
// за последние lookback свечей. Правило намеренно асимметрично:
// подтверждением считается любой рост объема независимо от направления
// цены — при падении цены растущий объем подтверждает продажи.
func (a *Analyzer) volumeConfirmsPrice(closes, volumes []float64, lookback int) bool {
	if len(closes) < lookback {
		return true
	}

	volumeChange := volumes[len(volumes)-1] - volumes[len(volumes)-lookback]
	return volumeChange > 0
}

// currentROC рассчитывает последнее значение темпа изменения цены в процентах
func (a *Analyzer) currentROC(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}

	roc := talib.Roc(closes, period)
	return lastValid(roc)
}

// sortedAscending возвращает копию свечей, отсортированную по времени
func sortedAscending(bars []*models.Candle) []*models.Candle {
	sorted := make([]*models.Candle, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// extractColumns подготавливает колонки данных для расчетов
func extractColumns(bars []*models.Candle) (closes, highs, lows, volumes []float64) {
	closes = make([]float64, len(bars))
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	volumes = make([]float64, len(bars))

	for i, c := range bars {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.Volume
	}

	return closes, highs, lows, volumes
}

// lastValid возвращает указатель на последнее значение ряда, если оно число
func lastValid(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// calculateSlope вычисляет наклон линейной регрессии
func calculateSlope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64

	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	slope := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	if math.IsNaN(slope) {
		return 0
	}

	return slope
}
