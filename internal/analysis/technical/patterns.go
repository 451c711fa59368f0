package technical

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/skalibog/sgs/pkg/models"
)

// detectLowerHigh ищет формирование понижающегося максимума:
// среди последних lookback свечей должно быть не менее двух локальных
// пиков, и последний пик ниже предыдущего
func detectLowerHigh(bars []*models.Candle, lookback int) bool {
	if len(bars) < lookback {
		return false
	}

	recent := bars[len(bars)-lookback:]

	var peaks []float64
	for i := 1; i < len(recent)-1; i++ {
		if recent[i].High > recent[i-1].High && recent[i].High > recent[i+1].High {
			peaks = append(peaks, recent[i].High)
		}
	}

	if len(peaks) < 2 {
		return false
	}

	return peaks[len(peaks)-1] < peaks[len(peaks)-2]
}

// detectExhaustionCandle проверяет свечу истощения на последнем баре.
// Все четыре условия обязательны: широкий диапазон, длинная верхняя тень,
// закрытие в нижней половине диапазона и повышенный объем.
func detectExhaustionCandle(bars []*models.Candle, window int) bool {
	if len(bars) < window {
		return false
	}

	last := bars[len(bars)-1]
	recent := bars[len(bars)-window:]

	var sumRange, sumVolume float64
	for _, c := range recent {
		sumRange += c.High - c.Low
		sumVolume += c.Volume
	}
	avgRange := sumRange / float64(window)
	avgVolume := sumVolume / float64(window)

	currentRange := last.High - last.Low
	if currentRange <= 0 || currentRange < avgRange*1.5 {
		return false
	}

	bodyTop := last.Open
	if last.Close > bodyTop {
		bodyTop = last.Close
	}
	upperWick := last.High - bodyTop
	if upperWick/currentRange <= 0.4 {
		return false
	}

	closePosition := (last.Close - last.Low) / currentRange
	if closePosition > 0.5 {
		return false
	}

	return last.Volume > avgVolume*1.5
}

// KeyLevels строит ключевые ценовые уровни по дневному и внутридневному рядам
func (a *Analyzer) KeyLevels(daily, intraday *models.Series) models.KeyLevels {
	var levels models.KeyLevels

	if !daily.IsEmpty() {
		bars := sortedAscending(daily.Bars)

		if len(bars) >= 2 {
			levels.PriorClose = decimalPtr(bars[len(bars)-2].Close)
		}

		// Сопротивление и поддержка по экстремумам последних 10 дней
		lookback := 10
		if len(bars) < lookback {
			lookback = len(bars)
		}
		recent := bars[len(bars)-lookback:]
		high, low := recent[0].High, recent[0].Low
		for _, c := range recent {
			if c.High > high {
				high = c.High
			}
			if c.Low < low {
				low = c.Low
			}
		}
		levels.Resistance = decimalPtr(high)
		levels.Support = decimalPtr(low)
	}

	if !intraday.IsEmpty() {
		bars := sortedAscending(intraday.Bars)
		sessionStart := bars[len(bars)-1].Timestamp.Truncate(24 * time.Hour)

		high, low := bars[len(bars)-1].High, bars[len(bars)-1].Low
		for _, c := range bars {
			if c.Timestamp.Before(sessionStart) {
				continue
			}
			if c.High > high {
				high = c.High
			}
			if c.Low < low {
				low = c.Low
			}
		}
		levels.IntradayHigh = decimalPtr(high)
		levels.IntradayLow = decimalPtr(low)
	}

	return levels
}

// decimalPtr оборачивает float64 в указатель на decimal
func decimalPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}
