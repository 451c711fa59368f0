package catalyst

import (
	"context"

	"go.uber.org/zap"

	"github.com/skalibog/sgs/pkg/logger"
	"github.com/skalibog/sgs/pkg/models"
)

// Classifier классифицирует новостной катализатор движения цены.
// Реализации взаимозаменяемы за одним интерфейсом: LLM-стратегия
// и эвристическая стратегия по ключевым словам.
type Classifier interface {
	// Name возвращает имя стратегии для поля analysis_source
	Name() string
	// Classify строит оценку катализатора по заголовкам и дневному изменению
	Classify(ctx context.Context, ticker string, changePercent float64, headlines []string) (*models.CatalystAssessment, error)
}

// Chain пробует стратегии в фиксированном порядке и берет первый
// успешный результат. Отказ LLM (транспортная ошибка, некорректный JSON,
// неожиданная схема) переключает на следующую стратегию, а не
// поднимается вызывающему.
type Chain struct {
	strategies []Classifier
}

// NewChain создает цепочку стратегий классификации
func NewChain(strategies ...Classifier) *Chain {
	return &Chain{
		strategies: strategies,
	}
}

// Classify возвращает оценку катализатора и имя сработавшей стратегии.
// Последняя стратегия в цепочке (эвристика) ошибок не возвращает,
// поэтому анализ тикера никогда не прерывается из-за классификации.
func (c *Chain) Classify(ctx context.Context, ticker string, changePercent float64, headlines []string) (*models.CatalystAssessment, string) {
	for _, strategy := range c.strategies {
		assessment, err := strategy.Classify(ctx, ticker, changePercent, headlines)
		if err != nil {
			logger.Warn("Стратегия классификации катализатора недоступна, переключаемся на следующую",
				zap.String("ticker", ticker),
				zap.String("strategy", strategy.Name()),
				zap.Error(err))
			continue
		}
		return assessment, strategy.Name()
	}

	// Сюда попадаем только при пустой цепочке
	return &models.CatalystAssessment{
		Type:       models.CatalystUnknown,
		Sentiment:  models.SentimentMixed,
		Summary:    "No classification available",
		Confidence: 0.2,
	}, "none"
}
