package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalystType(t *testing.T) {
	tests := []struct {
		input   string
		want    CatalystType
		wantErr bool
	}{
		{"FDA", CatalystFDA, false},
		{"fda", CatalystFDA, false},
		{" MERGER_ACQUISITION ", CatalystMA, false},
		{"MA", CatalystMA, false},
		{"M&A", CatalystMA, false},
		{"MEME_SOCIAL", CatalystMemeSocial, false},
		{"GIBBERISH", CatalystUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCatalystType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSentimentLevel(t *testing.T) {
	got, err := ParseSentimentLevel("Strongly_Positive")
	require.NoError(t, err)
	assert.Equal(t, SentimentStronglyPositive, got)

	_, err = ParseSentimentLevel("euphoric")
	assert.Error(t, err)
}

func TestFlagSetDeduplicatesAndSorts(t *testing.T) {
	set := NewFlagSet(FlagHighSqueeze, FlagMicrocap, FlagHighSqueeze)

	assert.Len(t, set, 2)
	// Детерминированный порядок независимо от порядка добавления
	assert.Equal(t, []RiskFlag{FlagHighSqueeze, FlagMicrocap}, set.Values())
	assert.Equal(t, "HIGH_SQUEEZE,MICROCAP", set.String())
}

func TestFlagSetEmptyIsNone(t *testing.T) {
	set := NewFlagSet()

	assert.Equal(t, []RiskFlag{FlagNone}, set.Values())
	assert.Equal(t, "NONE", set.String())

	// NONE не добавляется как обычный флаг
	set.Add(FlagNone)
	assert.Len(t, set, 0)
}

func TestOutputLineFormat(t *testing.T) {
	pb := 0.9
	rsi := 85.0
	resistance := decimal.NewFromFloat(17.5)

	candidate := &ShortCandidate{
		Ticker:       "PUMP",
		CurrentPrice: decimal.NewFromFloat(15.0),
		FinalScore:   6.5,
		State: &TechnicalState{
			RSIDaily:          &rsi,
			BollingerPosition: &pb,
			VolumeConfirms:    true,
		},
		Assessment: &CatalystAssessment{
			Type:      CatalystSpeculative,
			Sentiment: SentimentMixed,
			Summary:   "Vague PR detected",
		},
		Flags:      NewFlagSet(FlagMicrocap),
		Expression: ExpressionPutSpreads,
		Levels:     KeyLevels{Resistance: &resistance},
	}

	line := candidate.OutputLine()

	assert.Equal(t,
		"PUMP | 6.5 | RSI 85, near upper BB | SPECULATIVE: Vague PR detected [mixed] [LOW_QUALITY_CATALYST] | MICROCAP | PUT_SPREADS | resistance=17.50",
		line)
}

func TestHeadlinesLimit(t *testing.T) {
	feed := &NewsFeed{
		Ticker: "TEST",
		Items: []NewsItem{
			{Title: "first"},
			{Title: "second"},
			{Title: "third"},
		},
	}

	assert.Equal(t, []string{"first", "second"}, feed.Headlines(2))
	assert.Len(t, feed.Headlines(0), 3)

	var empty *NewsFeed
	assert.True(t, empty.IsEmpty())
	assert.Nil(t, empty.Headlines(5))
}
