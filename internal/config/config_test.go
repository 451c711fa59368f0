package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 14, cfg.Analysis.Technical.RSIPeriod)
	assert.Equal(t, 10.0, cfg.Analysis.Scoring.MaxTotal)
	assert.Equal(t, -5.0, cfg.Analysis.Sentiment.MinAdjustment)
	assert.Equal(t, 3.0, cfg.Analysis.Sentiment.MaxAdjustment)
	assert.Equal(t, 300_000_000.0, cfg.Analysis.Risk.MicrocapThreshold)
	assert.Equal(t, 4.0, cfg.Analysis.Ranking.AvoidScoreThreshold)
	assert.Equal(t, "NASDAQ", cfg.Analysis.Risk.PrimaryExchange)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
screener:
  top_n: 5
analysis:
  risk:
    microcap_threshold: 500000000
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Явные значения переопределяются
	assert.Equal(t, 5, cfg.Screener.TopN)
	assert.Equal(t, 500_000_000.0, cfg.Analysis.Risk.MicrocapThreshold)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Незатронутые значения остаются по умолчанию
	assert.Equal(t, 14, cfg.Analysis.Technical.RSIPeriod)
	assert.Equal(t, 4.0, cfg.Analysis.Ranking.AvoidScoreThreshold)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
