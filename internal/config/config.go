package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Screener   ScreenerConfig   `yaml:"screener"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Claude     ClaudeConfig     `yaml:"claude"`
	MarketData MarketDataConfig `yaml:"market_data"`
	Storage    StorageConfig    `yaml:"storage"`
	LogLevel   string           `yaml:"log_level"`
}

// ScreenerConfig содержит настройки пакетного скрининга
type ScreenerConfig struct {
	Tickers          []string `yaml:"tickers"`
	TopN             int      `yaml:"top_n"`
	LookbackDays     int      `yaml:"lookback_days"`
	IntradayInterval string   `yaml:"intraday_interval"`
	MaxHeadlines     int      `yaml:"max_headlines"`
}

// AnalysisConfig содержит настройки аналитических модулей
type AnalysisConfig struct {
	Technical TechnicalConfig `yaml:"technical"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Risk      RiskConfig      `yaml:"risk"`
	Ranking   RankingConfig   `yaml:"ranking"`
}

// TechnicalConfig настройки расчета технических индикаторов
type TechnicalConfig struct {
	RSIPeriod       int     `yaml:"rsi_period"`
	MACDFast        int     `yaml:"macd_fast"`
	MACDSlow        int     `yaml:"macd_slow"`
	MACDSignal      int     `yaml:"macd_signal"`
	BollingerWindow int     `yaml:"bollinger_window"`
	BollingerStd    float64 `yaml:"bollinger_std"`
	ATRPeriod       int     `yaml:"atr_period"`
	VolumeAvgWindow int     `yaml:"volume_avg_window"`
	PatternLookback int     `yaml:"pattern_lookback"`
}

// ScoringConfig настройки технической оценки
type ScoringConfig struct {
	MaxTotal float64 `yaml:"max_total"`
}

// SentimentConfig настройки корректировки по катализатору
type SentimentConfig struct {
	MinAdjustment    float64 `yaml:"min_adjustment"`
	MaxAdjustment    float64 `yaml:"max_adjustment"`
	RepricingPenalty float64 `yaml:"repricing_penalty"`
	NoNewsAdjustment float64 `yaml:"no_news_adjustment"`
}

// RiskConfig настройки детектора флагов риска
type RiskConfig struct {
	MicrocapThreshold      float64 `yaml:"microcap_threshold"`
	LowVolumeThreshold     float64 `yaml:"low_volume_threshold"`
	SqueezeChangeThreshold float64 `yaml:"squeeze_change_threshold"`
	SqueezeSharesThreshold float64 `yaml:"squeeze_shares_threshold"`
	LowFloatThreshold      float64 `yaml:"low_float_threshold"`
	HighBetaThreshold      float64 `yaml:"high_beta_threshold"`
	VolatilityChange       float64 `yaml:"volatility_change_threshold"`
	ATRExpansionThreshold  float64 `yaml:"atr_expansion_threshold"`
	NewListingDays         int     `yaml:"new_listing_days"`
	PrimaryExchange        string  `yaml:"primary_exchange"`
}

// RankingConfig настройки финального ранжирования
type RankingConfig struct {
	AvoidScoreThreshold      float64 `yaml:"avoid_score_threshold"`
	MaxBetaForShares         float64 `yaml:"max_beta_for_shares"`
	RepricingConfidenceAvoid float64 `yaml:"repricing_confidence_avoid"`
}

// ClaudeConfig содержит настройки LLM-классификатора катализаторов
type ClaudeConfig struct {
	Enabled        bool   `yaml:"enabled"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// MarketDataConfig содержит настройки клиента рыночных данных
type MarketDataConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	RequestDelayMS int    `yaml:"request_delay_ms"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// StorageConfig настройки хранения данных
type StorageConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
}

// Default возвращает конфигурацию с документированными значениями по умолчанию
func Default() *Config {
	return &Config{
		Screener: ScreenerConfig{
			TopN:             20,
			LookbackDays:     60,
			IntradayInterval: "15min",
			MaxHeadlines:     10,
		},
		Analysis: AnalysisConfig{
			Technical: TechnicalConfig{
				RSIPeriod:       14,
				MACDFast:        12,
				MACDSlow:        26,
				MACDSignal:      9,
				BollingerWindow: 20,
				BollingerStd:    2.0,
				ATRPeriod:       14,
				VolumeAvgWindow: 20,
				PatternLookback: 10,
			},
			Scoring: ScoringConfig{
				MaxTotal: 10.0,
			},
			Sentiment: SentimentConfig{
				MinAdjustment:    -5.0,
				MaxAdjustment:    3.0,
				RepricingPenalty: 2.0,
				NoNewsAdjustment: 0.5,
			},
			Risk: RiskConfig{
				MicrocapThreshold:      300_000_000,
				LowVolumeThreshold:     100_000,
				SqueezeChangeThreshold: 100,
				SqueezeSharesThreshold: 50_000_000,
				LowFloatThreshold:      10_000_000,
				HighBetaThreshold:      2.5,
				VolatilityChange:       50,
				ATRExpansionThreshold:  5,
				NewListingDays:         90,
				PrimaryExchange:        "NASDAQ",
			},
			Ranking: RankingConfig{
				AvoidScoreThreshold:      4.0,
				MaxBetaForShares:         3.0,
				RepricingConfidenceAvoid: 0.7,
			},
		},
		Claude: ClaudeConfig{
			Enabled:        true,
			Model:          "claude-sonnet-4-20250514",
			MaxTokens:      500,
			TimeoutSeconds: 30,
		},
		MarketData: MarketDataConfig{
			BaseURL:        "https://www.alphavantage.co/query",
			RequestDelayMS: 800,
			TimeoutSeconds: 20,
			MaxRetries:     4,
		},
		LogLevel: "info",
	}
}

// Load загружает конфигурацию из файла поверх значений по умолчанию
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
	}

	// Ключи API берутся из окружения, если не заданы в файле
	if cfg.Claude.APIKey == "" {
		cfg.Claude.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.MarketData.APIKey == "" {
		cfg.MarketData.APIKey = os.Getenv("ALPHA_VANTAGE_API_KEY")
	}

	return cfg, nil
}
