package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

func telegramBotSignals(lastUsed time.Time) (*entities.TagUsageStats, *entities.TagConversionMetrics) {
	usage := &entities.TagUsageStats{
		Tag:         "telegram-bot",
		SearchCount: 100,
		MatchCount:  80,
		LastUsed:    &lastUsed,
	}
	conversion := &entities.TagConversionMetrics{
		Tag:          "telegram-bot",
		ViewCount:    500,
		ClickCount:   150,
		ContactCount: 60,
		OrderCount:   20,
		LastUsed:     &lastUsed,
	}
	return usage, conversion
}

func TestComputeQuality_FullSignals(t *testing.T) {
	now := time.Now()
	usage, conversion := telegramBotSignals(now.AddDate(0, 0, -2))

	result := computeQuality("telegram-bot", usage, conversion, now)

	// matchRate=0.8, conversionRate=0.3*0.3+0.4*0.4+0.3*0.333=0.35,
	// freshness=exp(-2/30)=0.936
	assert.InDelta(t, 0.8, result.MatchRate, 0.001)
	assert.InDelta(t, 0.35, result.ConversionRate, 0.001)
	assert.InDelta(t, 0.936, result.Freshness, 0.001)
	assert.InDelta(t, 0.261, result.Quality, 0.005)
}

func TestComputeQuality_NoDataIsNeutral(t *testing.T) {
	result := computeQuality("ghost-tag", nil, nil, time.Now())

	assert.InDelta(t, 0.5, result.MatchRate, 0.001)
	assert.InDelta(t, 0.5, result.ConversionRate, 0.001)
	assert.InDelta(t, 0.5, result.Freshness, 0.001)
	assert.InDelta(t, 0.125, result.Quality, 0.001)
}

func TestComputeQuality_MonotonicInOrders(t *testing.T) {
	now := time.Now()
	lastUsed := now.AddDate(0, 0, -2)

	previous := 0.0
	for _, orders := range []int{0, 10, 20, 40, 60} {
		usage, conversion := telegramBotSignals(lastUsed)
		conversion.OrderCount = orders

		quality := computeQuality("telegram-bot", usage, conversion, now).Quality
		assert.GreaterOrEqual(t, quality, previous, "orders=%d", orders)
		previous = quality
	}
}

func TestComputeQuality_ClampsDegenerateRates(t *testing.T) {
	now := time.Now()
	lastUsed := now

	// More clicks than views pushes the raw CTR far above 1
	conversion := &entities.TagConversionMetrics{
		Tag:          "weird-tag",
		ViewCount:    1,
		ClickCount:   1000,
		ContactCount: 1000,
		OrderCount:   1000,
		LastUsed:     &lastUsed,
	}

	result := computeQuality("weird-tag", nil, conversion, now)

	assert.LessOrEqual(t, result.ConversionRate, 1.0)
	assert.LessOrEqual(t, result.Quality, 1.0)
	assert.GreaterOrEqual(t, result.Quality, 0.0)
}

func TestComputeQuality_PartialConversionDataUsesNeutralSubRates(t *testing.T) {
	now := time.Now()

	// Views exist but nothing downstream: CTR is real, contact and
	// order sub-rates default to neutral
	conversion := &entities.TagConversionMetrics{
		Tag:       "quiet-tag",
		ViewCount: 100,
	}

	result := computeQuality("quiet-tag", nil, conversion, now)

	// 0.3*0 + 0.4*0.5 + 0.3*0.5 = 0.35
	assert.InDelta(t, 0.35, result.ConversionRate, 0.001)
}

func TestComputeQuality_Reasons(t *testing.T) {
	now := time.Now()
	lastUsed := now.AddDate(0, 0, -1)

	usage := &entities.TagUsageStats{Tag: "good", SearchCount: 100, MatchCount: 90, LastUsed: &lastUsed}

	result := computeQuality("good", usage, nil, now)

	assert.Contains(t, result.Reasons, "high match rate")
	assert.Contains(t, result.Reasons, "recently used")
}

func TestQualityScores_EveryRequestedTagPresent(t *testing.T) {
	now := time.Now().AddDate(0, 0, -2)
	usage, conversion := telegramBotSignals(now)

	repo := &fakeTagSignalRepo{
		usage:      map[string]*entities.TagUsageStats{"telegram-bot": usage},
		conversion: map[string]*entities.TagConversionMetrics{"telegram-bot": conversion},
	}
	svc := NewTagQualityService(repo, nil, 0, 0)

	results, err := svc.QualityScores(context.Background(), []string{"telegram-bot", "unknown-tag"})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 0.261, results["telegram-bot"].Quality, 0.005)
	assert.InDelta(t, 0.125, results["unknown-tag"].Quality, 0.001)
}

func TestQualityScores_StoreFailureDegradesToNeutral(t *testing.T) {
	repo := &fakeTagSignalRepo{err: errors.New("connection refused")}
	svc := NewTagQualityService(repo, nil, 0, 0)

	results, err := svc.QualityScores(context.Background(), []string{"telegram-bot"})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.5, results["telegram-bot"].MatchRate, 0.001)
}

func TestQualityScore_SingleTag(t *testing.T) {
	now := time.Now().AddDate(0, 0, -2)
	usage, conversion := telegramBotSignals(now)

	repo := &fakeTagSignalRepo{
		usage:      map[string]*entities.TagUsageStats{"telegram-bot": usage},
		conversion: map[string]*entities.TagConversionMetrics{"telegram-bot": conversion},
	}
	svc := NewTagQualityService(repo, nil, 0, 0)

	result, err := svc.QualityScore(context.Background(), "telegram-bot")

	require.NoError(t, err)
	assert.Equal(t, "telegram-bot", result.Tag)
	assert.InDelta(t, 0.261, result.Quality, 0.005)
}

func TestFilterLowQuality(t *testing.T) {
	svc := NewTagQualityService(&fakeTagSignalRepo{}, nil, 0, 0)

	scores := map[string]*QualityResult{
		"good": {Tag: "good", Quality: 0.8},
		"bad":  {Tag: "bad", Quality: 0.1},
	}

	kept := svc.FilterLowQuality([]string{"good", "bad", "unknown"}, scores, 0.3)

	// Low quality goes, unknown history is not penalized
	assert.Equal(t, []string{"good", "unknown"}, kept)
}
