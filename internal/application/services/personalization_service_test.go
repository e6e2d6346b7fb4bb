package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

func TestBuildPreferences_ActivityAndRecency(t *testing.T) {
	now := time.Now()
	seen := now.AddDate(0, 0, -7)

	interactions := []*entities.Interaction{
		{UserID: "u1", Type: entities.InteractionView, MatchedTags: []string{"telefon"}, CreatedAt: seen},
		{UserID: "u1", Type: entities.InteractionView, MatchedTags: []string{"telefon"}, CreatedAt: seen},
		{UserID: "u1", Type: entities.InteractionClick, MatchedTags: []string{"telefon"}, CreatedAt: seen},
	}

	prefs := buildPreferences("u1", interactions, now)

	require.Contains(t, prefs, "telefon")
	pref := prefs["telefon"]
	assert.Equal(t, 2, pref.ViewCount)
	assert.Equal(t, 1, pref.ClickCount)

	// activity = (2*0.1 + 1*0.5)/10 = 0.07, recency = exp(-7/7)
	expected := 0.07 * math.Exp(-1)
	assert.InDelta(t, expected, pref.PreferenceScore, 0.001)
}

func TestBuildPreferences_ActivitySaturates(t *testing.T) {
	now := time.Now()

	var interactions []*entities.Interaction
	for i := 0; i < 100; i++ {
		interactions = append(interactions, &entities.Interaction{
			UserID: "u1", Type: entities.InteractionClick,
			MatchedTags: []string{"sumka"}, CreatedAt: now,
		})
	}

	prefs := buildPreferences("u1", interactions, now)

	// 100 clicks saturate activity at 1; same-moment recency is 1
	assert.InDelta(t, 1.0, prefs["sumka"].PreferenceScore, 0.001)
}

func TestBuildPreferences_ContactsAndOrdersDoNotCount(t *testing.T) {
	now := time.Now()

	interactions := []*entities.Interaction{
		{UserID: "u1", Type: entities.InteractionContact, MatchedTags: []string{"soat"}, CreatedAt: now},
		{UserID: "u1", Type: entities.InteractionOrder, MatchedTags: []string{"soat"}, CreatedAt: now},
	}

	prefs := buildPreferences("u1", interactions, now)

	require.Contains(t, prefs, "soat")
	assert.Equal(t, 0, prefs["soat"].ViewCount)
	assert.Equal(t, 0, prefs["soat"].ClickCount)
	assert.InDelta(t, 0.0, prefs["soat"].PreferenceScore, 0.001)
}

func TestPreferences_ReadFailureYieldsEmptyProfile(t *testing.T) {
	repo := &fakeInteractionRepo{err: errors.New("timeout")}
	svc := NewPersonalizationService(repo, 30, 0)

	prefs := svc.Preferences(context.Background(), "u1")

	assert.Empty(t, prefs)
}

func TestPreferences_EmptyUserID(t *testing.T) {
	svc := NewPersonalizationService(&fakeInteractionRepo{}, 30, 0)
	assert.Empty(t, svc.Preferences(context.Background(), ""))
}

func TestBoost_ScalesPreference(t *testing.T) {
	svc := NewPersonalizationService(&fakeInteractionRepo{}, 30, 0)

	prefs := map[string]*entities.UserTagPreference{
		"telefon": {Tag: "telefon", PreferenceScore: 0.8},
	}

	assert.InDelta(t, 0.4, svc.Boost("telefon", prefs), 0.001)
	assert.Equal(t, 0.0, svc.Boost("sumka", prefs))
}

func TestRelatedBoost_TransfersAcrossPrefix(t *testing.T) {
	svc := NewPersonalizationService(&fakeInteractionRepo{}, 30, 0)

	prefs := map[string]*entities.UserTagPreference{
		"telegram-bot":   {Tag: "telegram-bot", PreferenceScore: 0.6},
		"telegram-kanal": {Tag: "telegram-kanal", PreferenceScore: 0.9},
	}

	// Best sibling is telegram-kanal: 0.9 * 0.3 * 0.5 = 0.135
	boost := svc.RelatedBoost("telegram-shop", prefs)
	assert.InDelta(t, 0.135, boost, 0.001)
}

func TestRelatedBoost_ExcludesSelf(t *testing.T) {
	svc := NewPersonalizationService(&fakeInteractionRepo{}, 30, 0)

	prefs := map[string]*entities.UserTagPreference{
		"telegram-bot": {Tag: "telegram-bot", PreferenceScore: 1.0},
	}

	assert.Equal(t, 0.0, svc.RelatedBoost("telegram-bot", prefs))
}

func TestRelatedBoost_NoSeparatorTransfersNothing(t *testing.T) {
	svc := NewPersonalizationService(&fakeInteractionRepo{}, 30, 0)

	prefs := map[string]*entities.UserTagPreference{
		"telegram-bot": {Tag: "telegram-bot", PreferenceScore: 1.0},
	}

	assert.Equal(t, 0.0, svc.RelatedBoost("telegram", prefs))
}
