package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/logger"
	"github.com/skalibog/sgs/pkg/models"
)

// AlphaVantageClient клиент Alpha Vantage API с троттлингом запросов
// и повторами с экспоненциальной задержкой
type AlphaVantageClient struct {
	httpClient   *http.Client
	apiKey       string
	baseURL      string
	requestDelay time.Duration
	maxRetries   int

	mu          sync.Mutex
	lastRequest time.Time
}

// NewAlphaVantageClient создает новый клиент рыночных данных
func NewAlphaVantageClient(cfg config.MarketDataConfig) *AlphaVantageClient {
	return &AlphaVantageClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		requestDelay: time.Duration(cfg.RequestDelayMS) * time.Millisecond,
		maxRetries:   cfg.MaxRetries,
	}
}

// throttle выдерживает паузу между запросами к API
func (c *AlphaVantageClient) throttle(ctx context.Context) error {
	c.mu.Lock()
	wait := c.requestDelay - time.Since(c.lastRequest)
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// request выполняет запрос с повторами и разбирает ответ в out
func (c *AlphaVantageClient) request(ctx context.Context, params url.Values, out interface{}) error {
	params.Set("apikey", c.apiKey)
	requestURL := c.baseURL + "?" + params.Encode()

	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := b.Duration()
			logger.Debug("Повтор запроса к Alpha Vantage",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.throttle(ctx); err != nil {
			return err
		}

		body, err := c.fetch(ctx, requestURL)
		if err != nil {
			lastErr = err
			continue
		}

		if err := checkAPIError(body); err != nil {
			lastErr = err
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("ошибка разбора ответа API: %w", err)
		}
		return nil
	}

	return fmt.Errorf("запрос не удался после %d попыток: %w", c.maxRetries, lastErr)
}

// fetch выполняет один HTTP-запрос
func (c *AlphaVantageClient) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("неожиданный статус ответа: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	return body, nil
}

// checkAPIError распознает текстовые ошибки в теле успешного ответа:
// Alpha Vantage возвращает их со статусом 200
func checkAPIError(body []byte) error {
	var envelope struct {
		ErrorMessage string `json:"Error Message"`
		Note         string `json:"Note"`
		Information  string `json:"Information"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Тело не объект, пусть разберет целевой тип
		return nil
	}

	if envelope.ErrorMessage != "" {
		return fmt.Errorf("ошибка API: %s", envelope.ErrorMessage)
	}
	if strings.Contains(envelope.Note, "API call frequency") {
		return fmt.Errorf("превышен лимит запросов: %s", envelope.Note)
	}
	if strings.Contains(envelope.Information, "API call frequency") {
		return fmt.Errorf("превышен лимит запросов: %s", envelope.Information)
	}
	return nil
}

// TopGainers получает дневных лидеров роста
func (c *AlphaVantageClient) TopGainers(ctx context.Context) ([]*models.GainerRecord, error) {
	var resp struct {
		TopGainers []struct {
			Ticker           string `json:"ticker"`
			Price            string `json:"price"`
			ChangeAmount     string `json:"change_amount"`
			ChangePercentage string `json:"change_percentage"`
			Volume           string `json:"volume"`
		} `json:"top_gainers"`
	}

	params := url.Values{}
	params.Set("function", "TOP_GAINERS_LOSERS")
	if err := c.request(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("ошибка получения лидеров роста: %w", err)
	}

	gainers := make([]*models.GainerRecord, 0, len(resp.TopGainers))
	for _, item := range resp.TopGainers {
		price := parseFloat(item.Price)
		change := parseFloat(item.ChangeAmount)
		changePct := parseFloat(strings.TrimSuffix(item.ChangePercentage, "%"))
		volume := parseFloat(item.Volume)

		// Битые записи пропускаются, остальные сохраняются
		if item.Ticker == "" || price == nil || changePct == nil {
			continue
		}

		record := &models.GainerRecord{
			Ticker:        item.Ticker,
			Price:         *price,
			ChangePercent: *changePct,
		}
		if change != nil {
			record.ChangeAmount = *change
		}
		if volume != nil {
			record.Volume = *volume
		}
		gainers = append(gainers, record)
	}

	return gainers, nil
}

// avBar представляет значения одной свечи в формате Alpha Vantage
type avBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// DailySeries получает дневные свечи тикера
func (c *AlphaVantageClient) DailySeries(ctx context.Context, ticker string) (*models.Series, error) {
	var resp struct {
		TimeSeries map[string]avBar `json:"Time Series (Daily)"`
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", ticker)
	params.Set("outputsize", "compact")
	if err := c.request(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("ошибка получения дневных свечей %s: %w", ticker, err)
	}

	return &models.Series{
		Ticker:   ticker,
		Interval: "daily",
		Bars:     parseBars(ticker, "daily", resp.TimeSeries, "2006-01-02"),
	}, nil
}

// IntradaySeries получает внутридневные свечи тикера
func (c *AlphaVantageClient) IntradaySeries(ctx context.Context, ticker, interval string) (*models.Series, error) {
	var raw map[string]json.RawMessage

	params := url.Values{}
	params.Set("function", "TIME_SERIES_INTRADAY")
	params.Set("symbol", ticker)
	params.Set("interval", interval)
	params.Set("outputsize", "compact")
	if err := c.request(ctx, params, &raw); err != nil {
		return nil, fmt.Errorf("ошибка получения внутридневных свечей %s: %w", ticker, err)
	}

	series := &models.Series{
		Ticker:   ticker,
		Interval: interval,
	}

	key := fmt.Sprintf("Time Series (%s)", interval)
	if payload, ok := raw[key]; ok {
		var bars map[string]avBar
		if err := json.Unmarshal(payload, &bars); err != nil {
			return nil, fmt.Errorf("ошибка разбора внутридневных свечей %s: %w", ticker, err)
		}
		series.Bars = parseBars(ticker, interval, bars, "2006-01-02 15:04:05")
	}

	return series, nil
}

// Fundamentals получает фундаментальные данные из эндпоинта OVERVIEW
func (c *AlphaVantageClient) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	var resp struct {
		Name              string `json:"Name"`
		Exchange          string `json:"Exchange"`
		Sector            string `json:"Sector"`
		Industry          string `json:"Industry"`
		MarketCap         string `json:"MarketCapitalization"`
		Beta              string `json:"Beta"`
		SharesOutstanding string `json:"SharesOutstanding"`
		SharesFloat       string `json:"SharesFloat"`
		AvgVolume10D      string `json:"10DayAverageVolume"`
		Week52High        string `json:"52WeekHigh"`
		Week52Low         string `json:"52WeekLow"`
		IPODate           string `json:"IPODate"`
	}

	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", ticker)
	if err := c.request(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("ошибка получения фундаментальных данных %s: %w", ticker, err)
	}

	f := &models.Fundamentals{
		Ticker:            ticker,
		Name:              resp.Name,
		Exchange:          strings.ToUpper(resp.Exchange),
		Sector:            resp.Sector,
		Industry:          resp.Industry,
		MarketCap:         parseFloat(resp.MarketCap),
		Beta:              parseFloat(resp.Beta),
		SharesOutstanding: parseFloat(resp.SharesOutstanding),
		FloatShares:       parseFloat(resp.SharesFloat),
		AvgVolume:         parseFloat(resp.AvgVolume10D),
		Week52High:        parseFloat(resp.Week52High),
		Week52Low:         parseFloat(resp.Week52Low),
	}

	if resp.IPODate != "" && resp.IPODate != "None" {
		if t, err := time.Parse("2006-01-02", resp.IPODate); err == nil {
			f.IPODate = &t
		}
	}

	return f, nil
}

// News получает ленту новостей с тональностью по тикеру
func (c *AlphaVantageClient) News(ctx context.Context, ticker string, limit int) (*models.NewsFeed, error) {
	var resp struct {
		Feed []struct {
			Title           string `json:"title"`
			URL             string `json:"url"`
			Source          string `json:"source"`
			TimePublished   string `json:"time_published"`
			TickerSentiment []struct {
				Ticker         string `json:"ticker"`
				SentimentScore string `json:"ticker_sentiment_score"`
			} `json:"ticker_sentiment"`
		} `json:"feed"`
	}

	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("tickers", ticker)
	params.Set("limit", fmt.Sprintf("%d", limit))
	if err := c.request(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("ошибка получения новостей %s: %w", ticker, err)
	}

	feed := &models.NewsFeed{
		Ticker:    ticker,
		FetchedAt: time.Now(),
	}

	for _, article := range resp.Feed {
		if article.Title == "" {
			continue
		}
		item := models.NewsItem{
			Title:  article.Title,
			Source: article.Source,
			URL:    article.URL,
		}
		if t, err := time.Parse("20060102T150405", article.TimePublished); err == nil {
			item.PublishedAt = t
		}
		for _, ts := range article.TickerSentiment {
			if ts.Ticker == ticker {
				item.Sentiment = parseFloat(ts.SentimentScore)
				break
			}
		}
		feed.Items = append(feed.Items, item)
		if limit > 0 && len(feed.Items) >= limit {
			break
		}
	}

	return feed, nil
}

// parseBars разбирает временной ряд Alpha Vantage в свечи,
// свежие первыми. Битые записи пропускаются.
func parseBars(ticker, interval string, timeSeries map[string]avBar, layout string) []*models.Candle {
	bars := make([]*models.Candle, 0, len(timeSeries))
	for timestamp, values := range timeSeries {
		ts, err := time.Parse(layout, timestamp)
		if err != nil {
			continue
		}
		open := parseFloat(values.Open)
		high := parseFloat(values.High)
		low := parseFloat(values.Low)
		closePrice := parseFloat(values.Close)
		volume := parseFloat(values.Volume)
		if open == nil || high == nil || low == nil || closePrice == nil || volume == nil {
			continue
		}
		bars = append(bars, &models.Candle{
			Ticker:    ticker,
			Interval:  interval,
			Timestamp: ts,
			Open:      *open,
			High:      *high,
			Low:       *low,
			Close:     *closePrice,
			Volume:    *volume,
		})
	}

	// Свежие первыми, как отдает API; анализатор пересортирует сам
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.After(bars[j].Timestamp)
	})

	return bars
}

// parseFloat разбирает числовое поле API; "None", "-" и пустая
// строка трактуются как отсутствие значения
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}
