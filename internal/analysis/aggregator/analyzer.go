package aggregator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skalibog/sgs/internal/analysis/catalyst"
	"github.com/skalibog/sgs/internal/analysis/ranking"
	"github.com/skalibog/sgs/internal/analysis/risk"
	"github.com/skalibog/sgs/internal/analysis/scoring"
	"github.com/skalibog/sgs/internal/analysis/sentiment"
	"github.com/skalibog/sgs/internal/analysis/technical"
	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/internal/exchange"
	"github.com/skalibog/sgs/internal/storage"
	"github.com/skalibog/sgs/pkg/logger"
	"github.com/skalibog/sgs/pkg/models"
)

// Analyzer объединяет все аналитические компоненты конвейера:
// индикаторы -> техническая оценка -> катализатор -> корректировка ->
// флаги риска -> итоговая оценка и способ выражения
type Analyzer struct {
	config        config.Config
	provider      exchange.Provider
	storage       storage.Storage
	technicalAnal *technical.Analyzer
	scorer        *scoring.Scorer
	classifier    *catalyst.Chain
	adjuster      *sentiment.Adjuster
	riskDetector  *risk.Detector
	ranker        *ranking.Engine
}

// ScreenResult представляет итог пакетного скрининга
type ScreenResult struct {
	RunID      string
	Candidates []*models.ShortCandidate
	Excluded   []models.ExcludedTicker
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewAnalyzer создает новый анализатор
func NewAnalyzer(cfg config.Config, provider exchange.Provider, store storage.Storage, classifier *catalyst.Chain) *Analyzer {
	return &Analyzer{
		config:        cfg,
		provider:      provider,
		storage:       store,
		technicalAnal: technical.NewAnalyzer(cfg.Analysis.Technical),
		scorer:        scoring.NewScorer(cfg.Analysis.Scoring),
		classifier:    classifier,
		adjuster:      sentiment.NewAdjuster(cfg.Analysis.Sentiment),
		riskDetector:  risk.NewDetector(cfg.Analysis.Risk),
		ranker:        ranking.NewEngine(cfg.Analysis.Ranking),
	}
}

// AnalyzeTicker прогоняет один тикер через полный конвейер анализа
func (a *Analyzer) AnalyzeTicker(ctx context.Context, runID string, record *models.GainerRecord) (*models.ShortCandidate, error) {
	ticker := record.Ticker

	daily, err := a.provider.DailySeries(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения дневных данных %s: %w", ticker, err)
	}
	if daily.IsEmpty() {
		return nil, fmt.Errorf("нет дневных данных для %s", ticker)
	}

	price, changePercent := record.Price, record.ChangePercent
	if price == 0 {
		// Тикер задан вручную, без котировки из списка лидеров:
		// цена и изменение восстанавливаются из дневных свечей
		price, changePercent = quoteFromDaily(daily)
	}

	intraday, err := a.provider.IntradaySeries(ctx, ticker, a.config.Screener.IntradayInterval)
	if err != nil {
		// Внутридневные данные опциональны, анализ продолжается без них
		logger.Warn("Внутридневные данные недоступны",
			zap.String("ticker", ticker),
			zap.Error(err))
		intraday = &models.Series{Ticker: ticker, Interval: a.config.Screener.IntradayInterval}
	}

	fundamentals, err := a.provider.Fundamentals(ctx, ticker)
	if err != nil {
		logger.Warn("Фундаментальные данные недоступны",
			zap.String("ticker", ticker),
			zap.Error(err))
		fundamentals = nil
	}

	news, err := a.provider.News(ctx, ticker, a.config.Screener.MaxHeadlines)
	if err != nil {
		logger.Warn("Новости недоступны",
			zap.String("ticker", ticker),
			zap.Error(err))
		news = nil
	}

	// Технические индикаторы и оценка
	state := a.technicalAnal.Analyze(daily, intraday)
	techScore, breakdown := a.scorer.Score(state)
	logger.Debug("Техническая оценка рассчитана",
		zap.String("ticker", ticker),
		zap.String("breakdown", breakdown.String()))

	// Классификация катализатора и корректировка оценки.
	// Полное отсутствие новостей идет отдельной фиксированной веткой.
	var assessment *models.CatalystAssessment
	var sentimentAdj float64
	source := "none"

	if news.IsEmpty() {
		assessment = &models.CatalystAssessment{
			Type:       models.CatalystUnknown,
			Sentiment:  models.SentimentMixed,
			Summary:    "No news available",
			Confidence: 0.2,
		}
		sentimentAdj = a.adjuster.NoNewsAdjustment()
	} else {
		assessment, source = a.classifier.Classify(ctx, ticker, changePercent, news.Headlines(a.config.Screener.MaxHeadlines))
		sentimentAdj, _ = a.adjuster.Adjust(assessment)
	}

	// Флаги риска и итоговая оценка
	flags := a.riskDetector.Detect(ticker, changePercent, fundamentals, state, assessment)
	penalty := a.ranker.Penalty(flags)
	finalScore := a.ranker.FinalScore(techScore, sentimentAdj, penalty)

	var beta *float64
	if fundamentals != nil {
		beta = fundamentals.Beta
	}
	expression := a.ranker.Expression(finalScore, flags, assessment, beta)

	candidate := &models.ShortCandidate{
		RunID:               runID,
		Ticker:              ticker,
		CurrentPrice:        decimal.NewFromFloat(price),
		ChangePercent:       changePercent,
		TechScore:           techScore,
		SentimentAdjustment: sentimentAdj,
		RiskPenalty:         penalty,
		FinalScore:          finalScore,
		State:               state,
		Assessment:          assessment,
		Flags:               flags,
		Expression:          expression,
		Levels:              a.technicalAnal.KeyLevels(daily, intraday),
		AnalysisSource:      source,
		AnalyzedAt:          time.Now(),
	}

	if fundamentals != nil {
		candidate.MarketCap = fundamentals.MarketCap
		candidate.AvgVolume = fundamentals.AvgVolume
		candidate.Sector = fundamentals.Sector
	}

	return candidate, nil
}

// Screen анализирует пакет тикеров и ранжирует кандидатов.
// Тикеры обрабатываются последовательно: источник данных троттлит
// запросы, параллелизм выигрыша не дает.
func (a *Analyzer) Screen(ctx context.Context, records []*models.GainerRecord) (*ScreenResult, error) {
	result := &ScreenResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	records = expandWarrants(records)

	var candidates []*models.ShortCandidate
	for _, record := range records {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		candidate, err := a.AnalyzeTicker(ctx, result.RunID, record)
		if err != nil {
			logger.Warn("Тикер исключен из ранжирования",
				zap.String("ticker", record.Ticker),
				zap.Error(err))
			result.Excluded = append(result.Excluded, models.ExcludedTicker{
				Ticker: record.Ticker,
				Reason: err.Error(),
			})
			continue
		}
		candidates = append(candidates, candidate)

		if a.storage != nil {
			if err := a.storage.SaveCandidate(ctx, candidate); err != nil {
				logger.Warn("Не удалось сохранить кандидата",
					zap.String("ticker", candidate.Ticker),
					zap.Error(err))
			}
		}
	}

	result.Candidates = a.ranker.Rank(candidates)
	result.FinishedAt = time.Now()

	logger.Info("Скрининг завершен",
		zap.String("run_id", result.RunID),
		zap.Int("candidates", len(result.Candidates)),
		zap.Int("excluded", len(result.Excluded)),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)))

	return result, nil
}

// expandWarrants добавляет в пакет базовые тикеры обнаруженных варрантов:
// движение варранта обычно означает движение базовой акции, и она
// анализируется вместе с ним. Котировка базового тикера восстановится
// из дневных свечей при анализе.
func expandWarrants(records []*models.GainerRecord) []*models.GainerRecord {
	existing := make(map[string]struct{}, len(records))
	for _, record := range records {
		existing[strings.ToUpper(record.Ticker)] = struct{}{}
	}

	expanded := records
	for _, record := range records {
		if !risk.IsWarrant(record.Ticker) {
			continue
		}
		underlying := risk.Underlying(record.Ticker)
		if _, ok := existing[underlying]; ok {
			continue
		}
		existing[underlying] = struct{}{}
		logger.Debug("Добавлен базовый тикер варранта",
			zap.String("warrant", record.Ticker),
			zap.String("underlying", underlying))
		expanded = append(expanded, &models.GainerRecord{Ticker: underlying})
	}
	return expanded
}

// quoteFromDaily восстанавливает текущую цену и дневное изменение
// по двум последним дневным свечам
func quoteFromDaily(daily *models.Series) (price, changePercent float64) {
	bars := make([]*models.Candle, len(daily.Bars))
	copy(bars, daily.Bars)
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	last := bars[len(bars)-1]
	price = last.Close
	if len(bars) >= 2 {
		prior := bars[len(bars)-2]
		if prior.Close != 0 {
			changePercent = (last.Close - prior.Close) / prior.Close * 100
		}
	}
	return price, changePercent
}

// History возвращает историю анализа тикера из хранилища
func (a *Analyzer) History(ctx context.Context, ticker string, limit int) ([]*models.ShortCandidate, error) {
	if a.storage == nil {
		return nil, fmt.Errorf("хранилище не настроено")
	}
	return a.storage.GetCandidateHistory(ctx, ticker, limit)
}
