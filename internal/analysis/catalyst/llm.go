package catalyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/models"
)

const catalystPrompt = `Analyze these news headlines for ticker %s which gained %.1f%% today.

Headlines (most recent first):
%s

Your task: Determine what is driving this stock move and whether it justifies a permanent valuation change.

Respond ONLY with valid JSON (no markdown, no explanation):
{
  "catalyst_type": "<one of: EARNINGS, FDA, MERGER_ACQUISITION, UPGRADE, DOWNGRADE, CONTRACT, PRODUCT_LAUNCH, SPECULATIVE, MEME_SOCIAL, UNKNOWN>",
  "sentiment": "<one of: strongly_positive, positive, mixed, negative, strongly_negative>",
  "summary": "<one sentence describing the catalyst, max 100 chars>",
  "justifies_repricing": <true if this news justifies a permanent valuation change, false if speculative/temporary>,
  "confidence": <0.0 to 1.0, your confidence in this assessment>
}

Guidelines:
- EARNINGS: quarterly results, revenue/profit beats or misses
- FDA: drug approvals, clinical trial results, regulatory decisions
- MERGER_ACQUISITION: merger, acquisition, buyout announcements
- UPGRADE/DOWNGRADE: analyst rating changes
- CONTRACT: major business wins, partnerships
- PRODUCT_LAUNCH: new product announcements
- SPECULATIVE: vague PR, rumors, no clear fundamental driver
- MEME_SOCIAL: social media driven, retail squeeze patterns
- UNKNOWN: cannot determine catalyst

justifies_repricing is TRUE only for strong earnings beats with raised guidance,
FDA approvals for major drugs, confirmed M&A at premium, or contract wins that
materially change the revenue outlook.`

// llmResponse представляет строгую JSON-схему ответа модели
type llmResponse struct {
	CatalystType       string  `json:"catalyst_type"`
	Sentiment          string  `json:"sentiment"`
	Summary            string  `json:"summary"`
	JustifiesRepricing bool    `json:"justifies_repricing"`
	Confidence         float64 `json:"confidence"`
}

// ClaudeClassifier классифицирует катализатор через Anthropic API.
// Единственная блокирующая граница конвейера: вызов ограничен таймаутом,
// любая ошибка переводит цепочку на эвристическую стратегию.
type ClaudeClassifier struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewClaudeClassifier создает LLM-классификатор катализаторов
func NewClaudeClassifier(cfg config.ClaudeConfig) *ClaudeClassifier {
	return &ClaudeClassifier{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Name возвращает имя стратегии
func (c *ClaudeClassifier) Name() string {
	return "claude"
}

// Classify запрашивает у модели классификацию катализатора в строгом JSON
func (c *ClaudeClassifier) Classify(ctx context.Context, ticker string, changePercent float64, headlines []string) (*models.CatalystAssessment, error) {
	if len(headlines) == 0 {
		return nil, fmt.Errorf("нет заголовков для классификации")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(catalystPrompt, ticker, changePercent, "- "+strings.Join(headlines, "\n- "))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := c.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return nil, fmt.Errorf("ошибка вызова Claude API: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, fmt.Errorf("пустой ответ Claude API")
	}

	return parseAssessment(text.String())
}

// parseAssessment разбирает и валидирует JSON-ответ модели.
// Любое расхождение со схемой — ошибка, по которой цепочка
// переключается на эвристику.
func parseAssessment(response string) (*models.CatalystAssessment, error) {
	var parsed llmResponse
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		return nil, fmt.Errorf("некорректный JSON в ответе модели: %w", err)
	}

	catalystType, err := models.ParseCatalystType(parsed.CatalystType)
	if err != nil {
		return nil, err
	}

	sentiment, err := models.ParseSentimentLevel(parsed.Sentiment)
	if err != nil {
		return nil, err
	}

	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return nil, fmt.Errorf("confidence вне диапазона [0,1]: %f", parsed.Confidence)
	}

	// Усечение по рунам, чтобы не разрезать многобайтовый символ
	summary := parsed.Summary
	if runes := []rune(summary); len(runes) > 100 {
		summary = string(runes[:100])
	}

	return &models.CatalystAssessment{
		Type:               catalystType,
		Sentiment:          sentiment,
		Summary:            summary,
		JustifiesRepricing: parsed.JustifiesRepricing,
		Confidence:         parsed.Confidence,
	}, nil
}

// extractJSON выделяет JSON-объект из ответа, снимая markdown-ограждения
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return response[start : end+1]
	}

	return response
}
