// internal/storage/influxdb.go
package storage

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/pkg/models"
)

// Storage интерфейс для работы с хранилищем результатов скрининга
type Storage interface {
	// Методы для свечей
	SaveCandles(ctx context.Context, candles []*models.Candle) error
	GetCandles(ctx context.Context, ticker, interval string, limit int) ([]*models.Candle, error)

	// Методы для кандидатов
	SaveCandidate(ctx context.Context, candidate *models.ShortCandidate) error
	GetCandidateHistory(ctx context.Context, ticker string, limit int) ([]*models.ShortCandidate, error)

	Close()
}

// InfluxDBStorage реализует интерфейс Storage с использованием InfluxDB
type InfluxDBStorage struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	writeAPI api.WriteAPI
	org      string
	bucket   string
}

// NewInfluxDBStorage создает новое хранилище InfluxDB
func NewInfluxDBStorage(cfg config.StorageConfig) (*InfluxDBStorage, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	// Проверка соединения
	health, err := client.Health(context.Background())
	if err != nil {
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	queryAPI := client.QueryAPI(cfg.Organization)
	writeAPI := client.WriteAPI(cfg.Organization, cfg.Bucket)

	return &InfluxDBStorage{
		client:   client,
		queryAPI: queryAPI,
		writeAPI: writeAPI,
		org:      cfg.Organization,
		bucket:   cfg.Bucket,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStorage) Close() {
	s.client.Close()
}

// SaveCandles сохраняет свечи в базу данных
func (s *InfluxDBStorage) SaveCandles(ctx context.Context, candles []*models.Candle) error {
	for _, candle := range candles {
		point := influxdb2.NewPoint(
			"candles",
			map[string]string{
				"ticker":   candle.Ticker,
				"interval": candle.Interval,
			},
			map[string]interface{}{
				"open":   candle.Open,
				"high":   candle.High,
				"low":    candle.Low,
				"close":  candle.Close,
				"volume": candle.Volume,
			},
			candle.Timestamp,
		)
		s.writeAPI.WritePoint(point)
	}

	s.writeAPI.Flush()
	return nil
}

// GetCandles получает исторические свечи
func (s *InfluxDBStorage) GetCandles(ctx context.Context, ticker, interval string, limit int) ([]*models.Candle, error) {
	// Формируем Flux-запрос
	query := fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -90d)
			|> filter(fn: (r) => r._measurement == "candles")
			|> filter(fn: (r) => r.ticker == "%s")
			|> filter(fn: (r) => r.interval == "%s")
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
	`, s.bucket, ticker, interval, limit)

	// Выполняем запрос
	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса свечей: %w", err)
	}

	// Обрабатываем результаты
	var candles []*models.Candle
	for result.Next() {
		record := result.Record()

		open, _ := record.ValueByKey("open").(float64)
		high, _ := record.ValueByKey("high").(float64)
		low, _ := record.ValueByKey("low").(float64)
		closePrice, _ := record.ValueByKey("close").(float64)
		volume, _ := record.ValueByKey("volume").(float64)

		candle := &models.Candle{
			Ticker:    ticker,
			Interval:  interval,
			Timestamp: record.Time(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		}

		candles = append(candles, candle)
	}

	// Проверяем на ошибки при обработке результатов
	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}

	return candles, nil
}

// SaveCandidate сохраняет результат анализа кандидата
func (s *InfluxDBStorage) SaveCandidate(ctx context.Context, candidate *models.ShortCandidate) error {
	price, _ := candidate.CurrentPrice.Float64()

	point := influxdb2.NewPoint(
		"candidates",
		map[string]string{
			"ticker":     candidate.Ticker,
			"expression": string(candidate.Expression),
			"catalyst":   string(candidate.Assessment.Type),
		},
		map[string]interface{}{
			"run_id":               candidate.RunID,
			"price":                price,
			"change_percent":       candidate.ChangePercent,
			"tech_score":           candidate.TechScore,
			"sentiment_adjustment": candidate.SentimentAdjustment,
			"risk_penalty":         candidate.RiskPenalty,
			"final_score":          candidate.FinalScore,
			"risk_flags":           candidate.Flags.String(),
			"analysis_source":      candidate.AnalysisSource,
		},
		candidate.AnalyzedAt,
	)

	s.writeAPI.WritePoint(point)
	s.writeAPI.Flush()

	return nil
}

// GetCandidateHistory получает историю анализа тикера
func (s *InfluxDBStorage) GetCandidateHistory(ctx context.Context, ticker string, limit int) ([]*models.ShortCandidate, error) {
	// Формируем Flux-запрос
	query := fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -30d)
			|> filter(fn: (r) => r._measurement == "candidates")
			|> filter(fn: (r) => r.ticker == "%s")
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
	`, s.bucket, ticker, limit)

	// Выполняем запрос
	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории кандидатов: %w", err)
	}

	// Обрабатываем результаты
	var candidates []*models.ShortCandidate
	for result.Next() {
		record := result.Record()

		runID, _ := record.ValueByKey("run_id").(string)
		changePercent, _ := record.ValueByKey("change_percent").(float64)
		techScore, _ := record.ValueByKey("tech_score").(float64)
		sentimentAdj, _ := record.ValueByKey("sentiment_adjustment").(float64)
		riskPenalty, _ := record.ValueByKey("risk_penalty").(float64)
		finalScore, _ := record.ValueByKey("final_score").(float64)
		source, _ := record.ValueByKey("analysis_source").(string)

		candidate := &models.ShortCandidate{
			RunID:               runID,
			Ticker:              ticker,
			ChangePercent:       changePercent,
			TechScore:           techScore,
			SentimentAdjustment: sentimentAdj,
			RiskPenalty:         riskPenalty,
			FinalScore:          finalScore,
			AnalysisSource:      source,
			AnalyzedAt:          record.Time(),
		}

		candidates = append(candidates, candidate)
	}

	// Проверяем на ошибки
	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", result.Err())
	}

	return candidates, nil
}
