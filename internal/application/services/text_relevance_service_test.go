package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

func TestScore_VariationInTitle(t *testing.T) {
	svc := NewTextRelevanceService()
	now := time.Now()

	// "krossovka" has no exact substring in the title, but its
	// transliteration variant "krosovka" does
	listing := &entities.Listing{
		Title:     "Nike krosovka erkaklar uchun",
		CreatedAt: now.AddDate(0, 0, -30),
	}

	score := svc.ScoreAt("krossovka", listing, now)

	assert.Equal(t, 30.0, score)
}

func TestScore_ExactTitleBeatsDescription(t *testing.T) {
	svc := NewTextRelevanceService()
	now := time.Now()

	inTitle := &entities.Listing{
		Title:     "Samsung telefon sotiladi",
		CreatedAt: now.AddDate(0, 0, -30),
	}
	inDescription := &entities.Listing{
		Title:       "Samsung Galaxy",
		Description: "zo'r telefon, holati yaxshi",
		CreatedAt:   now.AddDate(0, 0, -30),
	}

	titleScore := svc.ScoreAt("telefon sotiladi", inTitle, now)
	descScore := svc.ScoreAt("zo'r telefon", inDescription, now)

	assert.Equal(t, 50.0, titleScore)
	assert.Equal(t, 20.0, descScore)
}

func TestScore_ConditionKeywordBonus(t *testing.T) {
	svc := NewTextRelevanceService()
	now := time.Now()

	listing := &entities.Listing{
		Title:     "yangi kurtka sotiladi",
		CreatedAt: now.AddDate(0, 0, -30),
	}

	// Exact title match (+50) plus shared condition keyword (+5)
	score := svc.ScoreAt("yangi kurtka", listing, now)

	assert.Equal(t, 55.0, score)
}

func TestScore_FreshListingBonus(t *testing.T) {
	svc := NewTextRelevanceService()
	now := time.Now()

	fresh := &entities.Listing{Title: "sumka", CreatedAt: now.AddDate(0, 0, -3)}
	old := &entities.Listing{Title: "sumka", CreatedAt: now.AddDate(0, 0, -30)}

	assert.Equal(t, 55.0, svc.ScoreAt("sumka", fresh, now))
	assert.Equal(t, 50.0, svc.ScoreAt("sumka", old, now))
}

func TestScore_EmptyAndPunctuationQueries(t *testing.T) {
	svc := NewTextRelevanceService()
	listing := &entities.Listing{Title: "anything", CreatedAt: time.Now()}

	assert.Equal(t, 0.0, svc.Score("", listing))
	assert.Equal(t, 0.0, svc.Score("   ", listing))
	assert.Equal(t, 0.0, svc.Score("!!! ---", listing))
}

func TestScore_NilListing(t *testing.T) {
	svc := NewTextRelevanceService()
	assert.Equal(t, 0.0, svc.Score("telefon", nil))
}

func TestVariations_ExcludesQueryItself(t *testing.T) {
	svc := NewTextRelevanceService()

	variations := svc.Variations("krossovka")

	assert.NotContains(t, variations, "krossovka")
	assert.Contains(t, variations, "krosovka")
	assert.Contains(t, variations, "кроссовки")
}

func TestVariations_ExpandsTokens(t *testing.T) {
	svc := NewTextRelevanceService()

	// No whole-query entry, but the "nike" token expands
	variations := svc.Variations("nike krossovka")

	assert.Contains(t, variations, "найк")
	assert.Contains(t, variations, "krosovka")
}

func TestVariations_UnknownQuery(t *testing.T) {
	svc := NewTextRelevanceService()
	assert.Empty(t, svc.Variations("nonexistent term"))
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "telefon", NormalizeQuery("  TeLeFoN  "))
	assert.Equal(t, "", NormalizeQuery("?!,."))
	assert.Equal(t, "b52", NormalizeQuery("B52"))
}

func TestScore_DeterministicAcrossRuns(t *testing.T) {
	svc := NewTextRelevanceService()
	now := time.Now()
	listing := &entities.Listing{
		Title:       "Nike krosovka",
		Description: "original sneaker",
		CreatedAt:   now.AddDate(0, 0, -2),
	}

	first := svc.ScoreAt("krossovka", listing, now)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, svc.ScoreAt("krossovka", listing, now))
	}
}
