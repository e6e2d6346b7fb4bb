package services

import (
	"context"
	"math"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/repositories"
)

const (
	// Activity weighting: a click is worth five views, and ten clicks
	// saturate the score.
	activityViewWeight  = 0.1
	activityClickWeight = 0.5
	activityNormalizer  = 10.0

	// recencyDecayDays is the e-folding time of per-user affinity
	recencyDecayDays = 7.0

	// directBoostScale caps the direct personalization boost at 0.5
	directBoostScale = 0.5

	// relatedBoostScale discounts affinity transferred across tags
	// sharing a prefix (telegram-bot -> telegram-shop)
	relatedBoostScale = 0.3

	// DefaultPreferenceWindowDays is the interaction lookback window
	DefaultPreferenceWindowDays = 30

	tagPrefixSeparator = "-"
)

// PersonalizationService builds per-user tag affinity from interaction
// history with exponential recency decay. Preferences are a derived
// view recomputed per request, never persisted.
type PersonalizationService struct {
	interactions repositories.InteractionRepository
	windowDays   int
	readTimeout  time.Duration
}

// NewPersonalizationService creates a new personalization service
func NewPersonalizationService(interactions repositories.InteractionRepository, windowDays int, readTimeout time.Duration) *PersonalizationService {
	if windowDays <= 0 {
		windowDays = DefaultPreferenceWindowDays
	}
	return &PersonalizationService{
		interactions: interactions,
		windowDays:   windowDays,
		readTimeout:  readTimeout,
	}
}

// Preferences returns the user's tag preferences over the lookback
// window. A read failure yields empty preferences, not an error; a
// user who cannot be personalized still gets ranked results.
func (s *PersonalizationService) Preferences(ctx context.Context, userID string) map[string]*entities.UserTagPreference {
	if userID == "" {
		return map[string]*entities.UserTagPreference{}
	}

	readCtx := ctx
	if s.readTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, s.readTimeout)
		defer cancel()
	}

	now := time.Now()
	since := now.AddDate(0, 0, -s.windowDays)

	interactions, err := s.interactions.ListByUser(readCtx, userID, since)
	if err != nil {
		zlog.Warn().Err(err).Str("user_id", userID).Msg("preference read degraded to empty profile")
		return map[string]*entities.UserTagPreference{}
	}

	return buildPreferences(userID, interactions, now)
}

// buildPreferences is the pure aggregation core
func buildPreferences(userID string, interactions []*entities.Interaction, now time.Time) map[string]*entities.UserTagPreference {
	prefs := make(map[string]*entities.UserTagPreference)

	for _, interaction := range interactions {
		for _, tag := range interaction.MatchedTags {
			pref, ok := prefs[tag]
			if !ok {
				pref = &entities.UserTagPreference{UserID: userID, Tag: tag}
				prefs[tag] = pref
			}

			switch interaction.Type {
			case entities.InteractionView:
				pref.ViewCount++
			case entities.InteractionClick:
				pref.ClickCount++
			}

			if interaction.CreatedAt.After(pref.LastViewed) {
				pref.LastViewed = interaction.CreatedAt
			}
		}
	}

	for _, pref := range prefs {
		activity := (float64(pref.ViewCount)*activityViewWeight + float64(pref.ClickCount)*activityClickWeight) / activityNormalizer
		if activity > 1 {
			activity = 1
		}

		days := now.Sub(pref.LastViewed).Hours() / 24
		if days < 0 {
			days = 0
		}
		recency := math.Exp(-days / recencyDecayDays)

		pref.PreferenceScore = clamp01(activity * recency)
	}

	return prefs
}

// Boost returns the additive boost for a tag the user has direct
// affinity for, in [0, 0.5]
func (s *PersonalizationService) Boost(tag string, prefs map[string]*entities.UserTagPreference) float64 {
	pref, ok := prefs[tag]
	if !ok {
		return 0
	}
	return pref.PreferenceScore * directBoostScale
}

// RelatedBoost transfers part of the user's affinity for sibling tags
// sharing the tag's prefix (the segment before the first separator).
// Tags without a separator transfer nothing. Result is in [0, 0.15].
func (s *PersonalizationService) RelatedBoost(tag string, prefs map[string]*entities.UserTagPreference) float64 {
	prefix, ok := tagPrefix(tag)
	if !ok {
		return 0
	}

	best := 0.0
	for other, pref := range prefs {
		if other == tag {
			continue
		}
		if otherPrefix, ok := tagPrefix(other); !ok || otherPrefix != prefix {
			continue
		}
		if score := pref.PreferenceScore * relatedBoostScale; score > best {
			best = score
		}
	}

	return best * directBoostScale
}

func tagPrefix(tag string) (string, bool) {
	idx := strings.Index(tag, tagPrefixSeparator)
	if idx <= 0 {
		return "", false
	}
	return tag[:idx], true
}
