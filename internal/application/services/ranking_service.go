package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/infrastructure/observability"
	"golang.org/x/sync/errgroup"
)

// FormulaVariant names a ranking formula under experiment
type FormulaVariant string

const (
	// FormulaStandard applies the quality boost only
	FormulaStandard FormulaVariant = "standard"

	// FormulaPersonalized adds the per-user preference boosts on top
	FormulaPersonalized FormulaVariant = "personalized"
)

// FormulaForVariant maps a ranking_formula experiment arm to a formula
func FormulaForVariant(v entities.Variant) FormulaVariant {
	if v == entities.VariantB {
		return FormulaPersonalized
	}
	return FormulaStandard
}

// RankWeights are the per-formula tuning parameters
type RankWeights struct {
	// BaseTagScore is a flat bonus per matched tag
	BaseTagScore float64

	// QualityScale converts a 0-1 quality into a boost of at most 1.0
	QualityScale float64

	// QualityWeight scales the quality boost into score points
	QualityWeight float64

	// PersonalizationWeight scales the preference boosts into score
	// points; zero disables personalization reads entirely
	PersonalizationWeight float64
}

// DefaultRankWeights returns the shipped formula parameters
func DefaultRankWeights() map[FormulaVariant]RankWeights {
	return map[FormulaVariant]RankWeights{
		FormulaStandard: {
			BaseTagScore:  5,
			QualityScale:  1.0,
			QualityWeight: 10,
		},
		FormulaPersonalized: {
			BaseTagScore:          5,
			QualityScale:          1.0,
			QualityWeight:         10,
			PersonalizationWeight: 10,
		},
	}
}

// ScoredListing is one ranked candidate with its score breakdown
type ScoredListing struct {
	Listing   *entities.Listing  `json:"listing"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// RankingService merges text relevance, tag quality boosts and
// personalization boosts into one ordered ranking. All scoring is
// pure per candidate; candidates are scored in parallel with a
// bounded fan-out and recombined by sorting.
type RankingService struct {
	relevance       *TextRelevanceService
	quality         *TagQualityService
	personalization *PersonalizationService
	weights         map[FormulaVariant]RankWeights
	maxConcurrency  int
	metrics         *observability.Metrics
}

// NewRankingService creates a new ranking service
func NewRankingService(relevance *TextRelevanceService, quality *TagQualityService, personalization *PersonalizationService, maxConcurrency int) *RankingService {
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	return &RankingService{
		relevance:       relevance,
		quality:         quality,
		personalization: personalization,
		weights:         DefaultRankWeights(),
		maxConcurrency:  maxConcurrency,
	}
}

// SetMetrics enables ranking instrumentation
func (s *RankingService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Rank scores and orders candidates for a query. No candidate is ever
// hard-filtered by score: zero-match listings stay in the result and
// fall back to the recency tie-break. Re-running with unchanged inputs
// yields an identical order.
func (s *RankingService) Rank(ctx context.Context, query string, candidates []*entities.Listing, userID string, formula FormulaVariant) []ScoredListing {
	if len(candidates) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordRankingMetric(ctx, s.metrics, string(formula), len(candidates), time.Since(start))
	}()

	weights, ok := s.weights[formula]
	if !ok {
		weights = s.weights[FormulaStandard]
	}

	query = NormalizeQuery(query)

	matched := make([][]string, len(candidates))
	tagSet := make(map[string]struct{})
	for i, listing := range candidates {
		matched[i] = s.matchedTags(query, listing)
		for _, tag := range matched[i] {
			tagSet[tag] = struct{}{}
		}
	}

	qualities := s.qualityForTags(ctx, tagSet)

	var prefs map[string]*entities.UserTagPreference
	if weights.PersonalizationWeight > 0 && userID != "" {
		prefs = s.personalization.Preferences(ctx, userID)
	}

	now := time.Now()
	scored := make([]ScoredListing, len(candidates))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, listing := range candidates {
		g.Go(func() error {
			scored[i] = s.scoreCandidate(query, listing, matched[i], qualities, prefs, weights, now)
			return nil
		})
	}
	// Scoring goroutines never return errors; degraded signals are
	// already folded into defaults upstream.
	_ = g.Wait()

	sortScored(scored)
	return scored
}

// scoreCandidate computes one candidate's composite score
func (s *RankingService) scoreCandidate(query string, listing *entities.Listing, matchedTags []string, qualities map[string]*QualityResult, prefs map[string]*entities.UserTagPreference, weights RankWeights, now time.Time) ScoredListing {
	breakdown := make(map[string]float64)

	relevance := 0.0
	if query != "" {
		relevance = s.relevance.ScoreAt(query, listing, now)
	}
	breakdown["relevance"] = relevance

	tagScore := 0.0
	qualityScore := 0.0
	personalScore := 0.0

	for _, tag := range matchedTags {
		tagScore += weights.BaseTagScore

		if q, ok := qualities[tag]; ok && q != nil {
			boost := clamp01(q.Quality * weights.QualityScale)
			qualityScore += boost * weights.QualityWeight
		}

		if prefs != nil {
			boost := s.personalization.Boost(tag, prefs) + s.personalization.RelatedBoost(tag, prefs)
			personalScore += boost * weights.PersonalizationWeight
		}
	}

	breakdown["tags"] = tagScore
	breakdown["quality"] = qualityScore
	if prefs != nil {
		breakdown["personalization"] = personalScore
	}

	return ScoredListing{
		Listing:   listing,
		Score:     relevance + tagScore + qualityScore + personalScore,
		Breakdown: breakdown,
	}
}

// matchedTags returns the listing tags the query touches. With no
// query every tag participates, so boosts still order browse feeds.
func (s *RankingService) matchedTags(query string, listing *entities.Listing) []string {
	if query == "" {
		return listing.Tags
	}

	terms := append(strings.Fields(query), s.relevance.Variations(query)...)

	var matched []string
	for _, tag := range listing.Tags {
		lowered := strings.ToLower(tag)
		for _, term := range terms {
			if strings.Contains(lowered, term) || strings.Contains(term, lowered) {
				matched = append(matched, tag)
				break
			}
		}
	}
	return matched
}

func (s *RankingService) qualityForTags(ctx context.Context, tagSet map[string]struct{}) map[string]*QualityResult {
	if len(tagSet) == 0 {
		return nil
	}

	tags := make([]string, 0, len(tagSet))
	for tag := range tagSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	qualities, err := s.quality.QualityScores(ctx, tags)
	if err != nil {
		// QualityScores degrades internally; this is belt and braces
		return nil
	}
	return qualities
}

// sortScored orders by score, then boosted flag, then newest first.
// The trailing id comparison keeps the order total so that reruns and
// cursor pagination (a created_at/id boundary, never an offset) see a
// stable sequence even between equally scored twins.
func sortScored(scored []ScoredListing) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Listing.IsBoosted != b.Listing.IsBoosted {
			return a.Listing.IsBoosted
		}
		if !a.Listing.CreatedAt.Equal(b.Listing.CreatedAt) {
			return a.Listing.CreatedAt.After(b.Listing.CreatedAt)
		}
		return a.Listing.ID > b.Listing.ID
	})
}
