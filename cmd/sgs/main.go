package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/skalibog/sgs/internal/analysis/aggregator"
	"github.com/skalibog/sgs/internal/analysis/catalyst"
	"github.com/skalibog/sgs/internal/config"
	"github.com/skalibog/sgs/internal/exchange"
	"github.com/skalibog/sgs/internal/report"
	"github.com/skalibog/sgs/internal/storage"
	"github.com/skalibog/sgs/pkg/logger"
	"github.com/skalibog/sgs/pkg/models"
)

func main() {
	// Обработка флагов командной строки
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	tickers := flag.String("tickers", "", "список тикеров через запятую вместо лидеров роста")
	history := flag.String("history", "", "показать историю анализа тикера и выйти")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init("")
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	logger.Init(cfg.LogLevel)
	defer logger.GetLogger().Sync()

	// Контекст отменяется сигналами завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Инициализируем хранилище
	var store storage.Storage
	if cfg.Storage.Enabled {
		influx, err := storage.NewInfluxDBStorage(cfg.Storage)
		if err != nil {
			logger.Fatal("Ошибка инициализации хранилища", zap.Error(err))
		}
		store = influx
	} else {
		store = storage.NewMemoryStorage()
	}
	defer store.Close()

	// Инициализируем источник рыночных данных
	if cfg.MarketData.APIKey == "" {
		logger.Fatal("Не задан ключ API рыночных данных (ALPHA_VANTAGE_API_KEY)")
	}
	provider := exchange.NewAlphaVantageClient(cfg.MarketData)

	// Собираем цепочку классификации катализаторов:
	// LLM-стратегия при наличии ключа, эвристика всегда замыкает цепочку
	var strategies []catalyst.Classifier
	if cfg.Claude.Enabled && cfg.Claude.APIKey != "" {
		strategies = append(strategies, catalyst.NewClaudeClassifier(cfg.Claude))
	} else {
		logger.Warn("LLM-классификатор отключен, используется только эвристика")
	}
	strategies = append(strategies, catalyst.NewHeuristicClassifier())
	classifier := catalyst.NewChain(strategies...)

	analyzer := aggregator.NewAnalyzer(*cfg, provider, store, classifier)

	if *history != "" {
		records, err := analyzer.History(ctx, strings.ToUpper(*history), 20)
		if err != nil {
			logger.Fatal("Ошибка получения истории", zap.Error(err))
		}
		fmt.Print(report.RenderHistory(strings.ToUpper(*history), records))
		return
	}

	records, err := resolveTickers(ctx, cfg, provider, *tickers)
	if err != nil {
		logger.Fatal("Ошибка получения списка тикеров", zap.Error(err))
	}
	if len(records) == 0 {
		logger.Fatal("Пустой список тикеров для анализа")
	}

	logger.Info("Запуск скрининга",
		zap.Int("tickers", len(records)))

	result, err := analyzer.Screen(ctx, records)
	if err != nil {
		logger.Fatal("Ошибка скрининга", zap.Error(err))
	}

	fmt.Print(report.Render(result))
}

// resolveTickers строит список записей для анализа: явный список из
// флага или конфигурации, иначе дневные лидеры роста из API
func resolveTickers(ctx context.Context, cfg *config.Config, provider exchange.Provider, flagTickers string) ([]*models.GainerRecord, error) {
	manual := flagTickers
	if manual == "" && len(cfg.Screener.Tickers) > 0 {
		manual = strings.Join(cfg.Screener.Tickers, ",")
	}

	if manual != "" {
		var records []*models.GainerRecord
		for _, t := range strings.Split(manual, ",") {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			// Цена и изменение подтянутся из дневных свечей при анализе
			records = append(records, &models.GainerRecord{Ticker: t})
		}
		return records, nil
	}

	gainers, err := provider.TopGainers(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Screener.TopN > 0 && len(gainers) > cfg.Screener.TopN {
		gainers = gainers[:cfg.Screener.TopN]
	}
	return gainers, nil
}
