package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CatalystType классифицирует новостной катализатор движения цены
type CatalystType string

const (
	CatalystEarnings      CatalystType = "EARNINGS"
	CatalystFDA           CatalystType = "FDA"
	CatalystMA            CatalystType = "MERGER_ACQUISITION"
	CatalystUpgrade       CatalystType = "UPGRADE"
	CatalystDowngrade     CatalystType = "DOWNGRADE"
	CatalystContract      CatalystType = "CONTRACT"
	CatalystProductLaunch CatalystType = "PRODUCT_LAUNCH"
	CatalystSpeculative   CatalystType = "SPECULATIVE"
	CatalystMemeSocial    CatalystType = "MEME_SOCIAL"
	CatalystUnknown       CatalystType = "UNKNOWN"
)

// ParseCatalystType проверяет строку из внешнего источника (LLM)
func ParseCatalystType(s string) (CatalystType, error) {
	switch t := CatalystType(strings.ToUpper(strings.TrimSpace(s))); t {
	case CatalystEarnings, CatalystFDA, CatalystMA, CatalystUpgrade,
		CatalystDowngrade, CatalystContract, CatalystProductLaunch,
		CatalystSpeculative, CatalystMemeSocial, CatalystUnknown:
		return t, nil
	case "MA", "M&A":
		// LLM иногда возвращает краткую форму
		return CatalystMA, nil
	default:
		return CatalystUnknown, fmt.Errorf("неизвестный тип катализатора: %q", s)
	}
}

// SentimentLevel представляет пятиуровневую оценку тональности новостей
type SentimentLevel string

const (
	SentimentStronglyPositive SentimentLevel = "strongly_positive"
	SentimentPositive         SentimentLevel = "positive"
	SentimentMixed            SentimentLevel = "mixed"
	SentimentNegative         SentimentLevel = "negative"
	SentimentStronglyNegative SentimentLevel = "strongly_negative"
)

// ParseSentimentLevel проверяет строку из внешнего источника (LLM)
func ParseSentimentLevel(s string) (SentimentLevel, error) {
	switch l := SentimentLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case SentimentStronglyPositive, SentimentPositive, SentimentMixed,
		SentimentNegative, SentimentStronglyNegative:
		return l, nil
	default:
		return SentimentMixed, fmt.Errorf("неизвестный уровень тональности: %q", s)
	}
}

// RiskFlag представляет флаг риска кандидата на шорт
type RiskFlag string

const (
	FlagMicrocap             RiskFlag = "MICROCAP"
	FlagHighSqueeze          RiskFlag = "HIGH_SQUEEZE"
	FlagLowLiquidity         RiskFlag = "LOW_LIQUIDITY"
	FlagExtremeVolatility    RiskFlag = "EXTREME_VOLATILITY"
	FlagNonPrimaryExchange   RiskFlag = "NON_PRIMARY_EXCHANGE"
	FlagNewListing           RiskFlag = "NEW_LISTING"
	FlagFundamentalRepricing RiskFlag = "FUNDAMENTAL_REPRICING"
	FlagWarrant              RiskFlag = "WARRANT"
	FlagNone                 RiskFlag = "NONE"
)

// FlagSet представляет множество флагов риска без дубликатов
type FlagSet map[RiskFlag]struct{}

// NewFlagSet создает множество из перечисленных флагов
func NewFlagSet(flags ...RiskFlag) FlagSet {
	set := make(FlagSet, len(flags))
	for _, f := range flags {
		set.Add(f)
	}
	return set
}

// Add добавляет флаг в множество
func (s FlagSet) Add(f RiskFlag) {
	if f != FlagNone {
		s[f] = struct{}{}
	}
}

// Has проверяет наличие флага
func (s FlagSet) Has(f RiskFlag) bool {
	_, ok := s[f]
	return ok
}

// HasAll проверяет наличие всех перечисленных флагов
func (s FlagSet) HasAll(flags ...RiskFlag) bool {
	for _, f := range flags {
		if !s.Has(f) {
			return false
		}
	}
	return true
}

// Values возвращает флаги в детерминированном порядке.
// Для пустого множества возвращается единственный флаг NONE.
func (s FlagSet) Values() []RiskFlag {
	if len(s) == 0 {
		return []RiskFlag{FlagNone}
	}
	flags := make([]RiskFlag, 0, len(s))
	for f := range s {
		flags = append(flags, f)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}

// String возвращает флаги через запятую
func (s FlagSet) String() string {
	values := s.Values()
	parts := make([]string, len(values))
	for i, f := range values {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// TradeExpression представляет рекомендуемый способ выражения шорт-идеи
type TradeExpression string

const (
	ExpressionShortShares TradeExpression = "SHORT_SHARES"
	ExpressionBuyPuts     TradeExpression = "BUY_PUTS"
	ExpressionPutSpreads  TradeExpression = "PUT_SPREADS"
	ExpressionAvoid       TradeExpression = "AVOID"
)

// TechnicalState представляет неизменяемый снимок технических индикаторов.
// Любое из опциональных полей может отсутствовать при нехватке истории —
// отсутствие дает нулевой вклад в оценку, а не ошибку.
type TechnicalState struct {
	RSIDaily    *float64
	RSIIntraday *float64

	MACDLine             *float64
	MACDSignal           *float64
	MACDHistogram        *float64
	MACDHistogramFalling bool

	BollingerUpper    *float64
	BollingerMiddle   *float64
	BollingerLower    *float64
	BollingerPosition *float64
	PriceAboveUpper   bool

	ATRDaily     *float64
	ATRPercent   *float64
	ATRExpansion *float64

	OBVTrend         string
	VolumeVsAvg      *float64
	VolumeConfirms   bool
	ROC1D            *float64
	ROC3D            *float64
	ROC5D            *float64
	LowerHigh        bool
	ExhaustionCandle bool
}

// Summary возвращает краткую строку технических заметок для отчета
func (t *TechnicalState) Summary() string {
	var parts []string

	if t.RSIDaily != nil {
		if t.RSIIntraday != nil {
			parts = append(parts, fmt.Sprintf("RSI %.0f (intra %.0f)", *t.RSIDaily, *t.RSIIntraday))
		} else {
			parts = append(parts, fmt.Sprintf("RSI %.0f", *t.RSIDaily))
		}
	}
	if t.PriceAboveUpper {
		parts = append(parts, "above upper BB")
	} else if t.BollingerPosition != nil && *t.BollingerPosition > 0.8 {
		parts = append(parts, "near upper BB")
	}
	if t.MACDHistogramFalling {
		parts = append(parts, "MACD fading")
	}
	if !t.VolumeConfirms {
		parts = append(parts, "vol divergence")
	}
	if t.LowerHigh {
		parts = append(parts, "lower high forming")
	}
	if t.ExhaustionCandle {
		parts = append(parts, "exhaustion candle")
	}

	if len(parts) == 0 {
		return "neutral"
	}
	return strings.Join(parts, ", ")
}

// CatalystAssessment представляет результат классификации катализатора.
// Тип катализатора и JustifiesRepricing выставляются одним проходом
// классификации и ниже по конвейеру не переопределяются.
type CatalystAssessment struct {
	Type               CatalystType
	Sentiment          SentimentLevel
	Summary            string
	JustifiesRepricing bool
	Confidence         float64
}

// Notes возвращает краткую строку новостных заметок для отчета
func (a *CatalystAssessment) Notes() string {
	var b strings.Builder
	b.WriteString(string(a.Type))
	if a.Summary != "" {
		b.WriteString(": ")
		b.WriteString(a.Summary)
	}
	b.WriteString(" [")
	b.WriteString(string(a.Sentiment))
	b.WriteString("]")

	if a.JustifiesRepricing {
		b.WriteString(" **FUNDAMENTAL_REPRICING**")
	} else if a.Type == CatalystSpeculative || a.Type == CatalystMemeSocial || a.Type == CatalystUnknown {
		b.WriteString(" [LOW_QUALITY_CATALYST]")
	}
	return b.String()
}

// KeyLevels представляет ключевые ценовые уровни для сопровождения сделки
type KeyLevels struct {
	IntradayHigh *decimal.Decimal
	IntradayLow  *decimal.Decimal
	PriorClose   *decimal.Decimal
	Resistance   *decimal.Decimal
	Support      *decimal.Decimal
}

// String возвращает непустые уровни в фиксированном порядке
func (k KeyLevels) String() string {
	var parts []string
	appendLevel := func(name string, v *decimal.Decimal) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%s", name, v.StringFixed(2)))
		}
	}
	appendLevel("intraday_high", k.IntradayHigh)
	appendLevel("intraday_low", k.IntradayLow)
	appendLevel("prior_close", k.PriorClose)
	appendLevel("resistance", k.Resistance)
	appendLevel("support", k.Support)
	return strings.Join(parts, " ")
}

// ShortCandidate представляет полностью проанализированного кандидата на шорт.
// Создается один раз за проход анализа и не мутируется; повторный анализ
// порождает новый экземпляр.
type ShortCandidate struct {
	RunID         string
	Ticker        string
	CurrentPrice  decimal.Decimal
	ChangePercent float64

	TechScore           float64
	SentimentAdjustment float64
	RiskPenalty         float64
	FinalScore          float64

	State      *TechnicalState
	Assessment *CatalystAssessment
	Flags      FlagSet

	Expression TradeExpression
	Levels     KeyLevels

	MarketCap      *float64
	AvgVolume      *float64
	Sector         string
	AnalysisSource string
	AnalyzedAt     time.Time
}

// OutputLine возвращает строку результата в формате
// TICKER | SCORE | TECH_NOTES | NEWS_NOTES | RISK_FLAGS | EXPRESSION | KEY_LEVELS
func (c *ShortCandidate) OutputLine() string {
	return fmt.Sprintf("%s | %.1f | %s | %s | %s | %s | %s",
		c.Ticker,
		c.FinalScore,
		c.State.Summary(),
		c.Assessment.Notes(),
		c.Flags.String(),
		c.Expression,
		c.Levels.String(),
	)
}

// ExcludedTicker представляет тикер, исключенный из ранжирования
type ExcludedTicker struct {
	Ticker string
	Reason string
}
