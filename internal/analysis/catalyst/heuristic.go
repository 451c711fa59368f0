package catalyst

import (
	"context"
	"strings"

	"github.com/skalibog/sgs/pkg/models"
)

// keywordGroup связывает группу ключевых слов с фиксированной оценкой
type keywordGroup struct {
	keywords  []string
	catalyst  models.CatalystType
	sentiment models.SentimentLevel
	justifies bool
	summary   string
}

// Группы проверяются строго по порядку, срабатывает первое совпадение.
// Порядок значим: FDA и M&A важнее пересекающихся по словам групп ниже.
var keywordGroups = []keywordGroup{
	{
		keywords:  []string{"fda", "approval", "approved", "clinical", "trial", "phase"},
		catalyst:  models.CatalystFDA,
		sentiment: models.SentimentStronglyPositive,
		justifies: true,
		summary:   "FDA/clinical news detected",
	},
	{
		keywords:  []string{"merger", "acquisition", "acquire", "buyout", "takeover"},
		catalyst:  models.CatalystMA,
		sentiment: models.SentimentStronglyPositive,
		justifies: true,
		summary:   "M&A activity detected",
	},
	{
		keywords:  []string{"earnings", "eps", "revenue", "profit", "beat", "miss", "guidance"},
		catalyst:  models.CatalystEarnings,
		sentiment: models.SentimentPositive,
		justifies: true,
		summary:   "Earnings-related news detected",
	},
	{
		keywords:  []string{"upgrade", "price target", "outperform", "buy rating"},
		catalyst:  models.CatalystUpgrade,
		sentiment: models.SentimentPositive,
		justifies: false,
		summary:   "Analyst upgrade detected",
	},
	{
		keywords:  []string{"contract", "award", "partnership", "agreement", "deal"},
		catalyst:  models.CatalystContract,
		sentiment: models.SentimentPositive,
		justifies: false,
		summary:   "Contract/partnership news detected",
	},
	{
		keywords:  []string{"reddit", "wsb", "squeeze", "moon", "apes", "yolo"},
		catalyst:  models.CatalystMemeSocial,
		sentiment: models.SentimentMixed,
		justifies: false,
		summary:   "Social/meme activity detected",
	},
	{
		keywords:  []string{"potential", "could", "may", "exploring", "considering"},
		catalyst:  models.CatalystSpeculative,
		sentiment: models.SentimentMixed,
		justifies: false,
		summary:   "Speculative/vague PR detected",
	},
}

// HeuristicClassifier классифицирует катализатор по ключевым словам.
// Резервная стратегия: работает без сети и никогда не возвращает ошибок.
type HeuristicClassifier struct{}

// NewHeuristicClassifier создает эвристический классификатор
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// Name возвращает имя стратегии
func (h *HeuristicClassifier) Name() string {
	return "heuristic"
}

// Classify сопоставляет заголовки с группами ключевых слов
func (h *HeuristicClassifier) Classify(_ context.Context, _ string, _ float64, headlines []string) (*models.CatalystAssessment, error) {
	if len(headlines) == 0 {
		return &models.CatalystAssessment{
			Type:       models.CatalystUnknown,
			Sentiment:  models.SentimentMixed,
			Summary:    "No news available",
			Confidence: 0.2,
		}, nil
	}

	text := strings.ToLower(strings.Join(headlines, " "))

	for _, group := range keywordGroups {
		if containsAny(text, group.keywords) {
			return &models.CatalystAssessment{
				Type:               group.catalyst,
				Sentiment:          group.sentiment,
				Summary:            group.summary,
				JustifiesRepricing: group.justifies,
				Confidence:         0.5,
			}, nil
		}
	}

	return &models.CatalystAssessment{
		Type:       models.CatalystUnknown,
		Sentiment:  models.SentimentMixed,
		Summary:    "No clear catalyst identified",
		Confidence: 0.5,
	}, nil
}

// containsAny проверяет вхождение хотя бы одного ключевого слова
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
