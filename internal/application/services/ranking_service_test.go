package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

func newTestRankingService(signals *fakeTagSignalRepo, interactions *fakeInteractionRepo) *RankingService {
	if signals == nil {
		signals = &fakeTagSignalRepo{}
	}
	if interactions == nil {
		interactions = &fakeInteractionRepo{}
	}
	return NewRankingService(
		NewTextRelevanceService(),
		NewTagQualityService(signals, nil, 0, 0),
		NewPersonalizationService(interactions, 30, 0),
		4,
	)
}

func TestRank_OrdersByRelevance(t *testing.T) {
	svc := newTestRankingService(nil, nil)
	old := time.Now().AddDate(0, 0, -60)

	match := &entities.Listing{ID: "l1", Title: "Nike krosovka", Tags: []string{"krossovka"}, CreatedAt: old}
	miss := &entities.Listing{ID: "l2", Title: "Samsung televizor", Tags: []string{"televizor"}, CreatedAt: old}

	ranked := svc.Rank(context.Background(), "krossovka", []*entities.Listing{miss, match}, "", FormulaStandard)

	require.Len(t, ranked, 2)
	assert.Equal(t, "l1", ranked[0].Listing.ID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestRank_ZeroMatchCandidatesStay(t *testing.T) {
	svc := newTestRankingService(nil, nil)
	old := time.Now().AddDate(0, 0, -60)

	listings := []*entities.Listing{
		{ID: "l1", Title: "sumka", Tags: []string{"sumka"}, CreatedAt: old},
		{ID: "l2", Title: "kitob", Tags: []string{"kitob"}, CreatedAt: old},
	}

	ranked := svc.Rank(context.Background(), "krossovka", listings, "", FormulaStandard)

	// Nothing matches, nothing is dropped
	assert.Len(t, ranked, 2)
}

func TestRank_IdenticalRerunsAreStable(t *testing.T) {
	svc := newTestRankingService(nil, nil)
	now := time.Now()

	var listings []*entities.Listing
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		listings = append(listings, &entities.Listing{
			ID: id, Title: "telefon", Tags: []string{"telefon"},
			CreatedAt: now.AddDate(0, 0, -30),
		})
	}

	first := svc.Rank(context.Background(), "telefon", listings, "", FormulaStandard)

	for run := 0; run < 10; run++ {
		again := svc.Rank(context.Background(), "telefon", listings, "", FormulaStandard)
		require.Len(t, again, len(first))
		for i := range first {
			assert.Equal(t, first[i].Listing.ID, again[i].Listing.ID, "run %d position %d", run, i)
		}
	}
}

func TestRank_TieBreaks(t *testing.T) {
	svc := newTestRankingService(nil, nil)
	old := time.Now().AddDate(0, 0, -60)
	newer := time.Now().AddDate(0, 0, -40)

	// All score zero for an unmatched query, so only tie-breaks order them
	listings := []*entities.Listing{
		{ID: "plain-old", CreatedAt: old},
		{ID: "boosted", IsBoosted: true, CreatedAt: old},
		{ID: "plain-new", CreatedAt: newer},
	}

	ranked := svc.Rank(context.Background(), "zzz-no-match", listings, "", FormulaStandard)

	require.Len(t, ranked, 3)
	assert.Equal(t, "boosted", ranked[0].Listing.ID)
	assert.Equal(t, "plain-new", ranked[1].Listing.ID)
	assert.Equal(t, "plain-old", ranked[2].Listing.ID)
}

func TestRank_IDTieBreakIsTotal(t *testing.T) {
	svc := newTestRankingService(nil, nil)
	created := time.Now().AddDate(0, 0, -60)

	// Identical twins except for id
	listings := []*entities.Listing{
		{ID: "aaa", CreatedAt: created},
		{ID: "zzz", CreatedAt: created},
	}

	ranked := svc.Rank(context.Background(), "no-match", listings, "", FormulaStandard)

	assert.Equal(t, "zzz", ranked[0].Listing.ID)
}

func TestRank_QualityBoostRaisesScore(t *testing.T) {
	lastUsed := time.Now().AddDate(0, 0, -1)
	signals := &fakeTagSignalRepo{
		usage: map[string]*entities.TagUsageStats{
			"telefon": {Tag: "telefon", SearchCount: 100, MatchCount: 95, LastUsed: &lastUsed},
		},
		conversion: map[string]*entities.TagConversionMetrics{
			"telefon": {Tag: "telefon", ViewCount: 100, ClickCount: 90, ContactCount: 80, OrderCount: 70, LastUsed: &lastUsed},
		},
	}
	svc := newTestRankingService(signals, nil)
	old := time.Now().AddDate(0, 0, -60)

	strong := &entities.Listing{ID: "l1", Title: "arzon telefon", Tags: []string{"telefon"}, CreatedAt: old}
	weak := &entities.Listing{ID: "l2", Title: "arzon telefon", Tags: []string{"notanish"}, CreatedAt: old}

	ranked := svc.Rank(context.Background(), "telefon", []*entities.Listing{weak, strong}, "", FormulaStandard)

	assert.Equal(t, "l1", ranked[0].Listing.ID)
	assert.Greater(t, ranked[0].Breakdown["quality"], 0.0)
}

func TestRank_PersonalizedFormulaUsesPreferences(t *testing.T) {
	now := time.Now()
	interactions := &fakeInteractionRepo{
		interactions: []*entities.Interaction{
			{UserID: "u1", Type: entities.InteractionClick, MatchedTags: []string{"sumka"}, CreatedAt: now},
			{UserID: "u1", Type: entities.InteractionClick, MatchedTags: []string{"sumka"}, CreatedAt: now},
		},
	}
	svc := newTestRankingService(nil, interactions)
	old := now.AddDate(0, 0, -60)

	preferred := &entities.Listing{ID: "l1", Title: "bozor", Tags: []string{"sumka"}, CreatedAt: old}
	other := &entities.Listing{ID: "l2", Title: "bozor", Tags: []string{"kitob"}, CreatedAt: old.AddDate(0, 0, 1)}

	// Empty query: every tag participates, so only the boosts differ
	standard := svc.Rank(context.Background(), "", []*entities.Listing{preferred, other}, "u1", FormulaStandard)
	personalized := svc.Rank(context.Background(), "", []*entities.Listing{preferred, other}, "u1", FormulaPersonalized)

	// Standard formula never reads preferences
	for _, result := range standard {
		assert.NotContains(t, result.Breakdown, "personalization")
	}

	byID := map[string]ScoredListing{}
	for _, result := range personalized {
		byID[result.Listing.ID] = result
	}
	assert.Greater(t, byID["l1"].Breakdown["personalization"], 0.0)
	assert.Equal(t, 0.0, byID["l2"].Breakdown["personalization"])
}

func TestRank_EmptyCandidates(t *testing.T) {
	svc := newTestRankingService(nil, nil)
	assert.Nil(t, svc.Rank(context.Background(), "telefon", nil, "", FormulaStandard))
}

func TestFormulaForVariant(t *testing.T) {
	assert.Equal(t, FormulaStandard, FormulaForVariant(entities.VariantA))
	assert.Equal(t, FormulaPersonalized, FormulaForVariant(entities.VariantB))
	assert.Equal(t, FormulaStandard, FormulaForVariant(entities.VariantC))
}
