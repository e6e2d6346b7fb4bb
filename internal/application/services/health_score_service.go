package services

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/providers"
	"github.com/savdohub/ranking-engine/internal/domain/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	// healthWindow is the interaction lookback for the health score
	healthWindow = 90 * 24 * time.Hour

	// maxProbeQueries bounds the representative queries used to sample
	// the listing's search rank
	maxProbeQueries = 3

	// probeCandidateLimit is the candidate pool per probe query
	probeCandidateLimit = 50

	// rankCap caps a sampled rank; anything deeper counts as 50
	rankCap = 50.0

	// defaultRankingPoints is used when no rank data is available
	defaultRankingPoints = 10

	criticalScoreThreshold = 40
	healthyScoreThreshold  = 70

	// urgentRecommendationThreshold prepends the general warning
	urgentRecommendationThreshold = 50
)

// HealthScoreService combines conversion, engagement, completeness and
// search-rank standing into a single 0-100 health score for seller
// dashboards. Computed fresh on every request.
type HealthScoreService struct {
	listings     repositories.ListingRepository
	interactions repositories.InteractionRepository
	ranking      *RankingService
	candidates   providers.CandidateSource
}

// NewHealthScoreService creates a new health score service. candidates
// may be nil; the rank band then samples against the recency feed.
func NewHealthScoreService(listings repositories.ListingRepository, interactions repositories.InteractionRepository, ranking *RankingService, candidates providers.CandidateSource) *HealthScoreService {
	return &HealthScoreService{
		listings:     listings,
		interactions: interactions,
		ranking:      ranking,
		candidates:   candidates,
	}
}

// Health computes the health score for one listing. Only an unknown
// listing is an error; every degraded signal falls back to its band
// default.
func (s *HealthScoreService) Health(ctx context.Context, listingID string) (*entities.HealthScore, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	var funnel *entities.ListingFunnel
	var avgRank float64
	var hasRank bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := s.interactions.GetListingFunnel(gctx, listingID, time.Now().Add(-healthWindow))
		if err != nil {
			zlog.Warn().Err(err).Str("listing_id", listingID).Msg("funnel read degraded to zero counts")
			f = &entities.ListingFunnel{ListingID: listingID}
		}
		funnel = f
		return nil
	})
	g.Go(func() error {
		avgRank, hasRank = s.averageRank(gctx, listing)
		return nil
	})
	_ = g.Wait()

	return composeHealth(listing, funnel, avgRank, hasRank), nil
}

// averageRank samples the listing's position over representative
// probe queries built from its own tags
func (s *HealthScoreService) averageRank(ctx context.Context, listing *entities.Listing) (float64, bool) {
	probes := listing.Tags
	if len(probes) > maxProbeQueries {
		probes = probes[:maxProbeQueries]
	}
	if len(probes) == 0 {
		return 0, false
	}

	total := 0.0
	sampled := 0

	for _, probe := range probes {
		pool, err := s.candidatePool(ctx, probe)
		if err != nil || len(pool) == 0 {
			continue
		}

		pool = ensureListing(pool, listing)
		ranked := s.ranking.Rank(ctx, probe, pool, "", FormulaStandard)

		for position, result := range ranked {
			if result.Listing.ID == listing.ID {
				rank := float64(position + 1)
				if rank > rankCap {
					rank = rankCap
				}
				total += rank
				sampled++
				break
			}
		}
	}

	if sampled == 0 {
		return 0, false
	}
	return total / float64(sampled), true
}

func (s *HealthScoreService) candidatePool(ctx context.Context, query string) ([]*entities.Listing, error) {
	if s.candidates != nil {
		pool, err := s.candidates.Search(ctx, query, probeCandidateLimit)
		if err == nil {
			return pool, nil
		}
		zlog.Warn().Err(err).Str("query", query).Msg("candidate search degraded to recency feed")
	}
	return s.listings.ListRecent(ctx, probeCandidateLimit)
}

func ensureListing(pool []*entities.Listing, listing *entities.Listing) []*entities.Listing {
	for _, candidate := range pool {
		if candidate.ID == listing.ID {
			return pool
		}
	}
	return append(pool, listing)
}

// composeHealth is the pure scoring core
func composeHealth(listing *entities.Listing, funnel *entities.ListingFunnel, avgRank float64, hasRank bool) *entities.HealthScore {
	factors := entities.HealthFactors{
		Conversion:   conversionPoints(funnel.ConversionRate()),
		Engagement:   engagementPoints(funnel.TotalEngagement()),
		Completeness: completenessPoints(listing),
		Ranking:      rankingPoints(avgRank, hasRank),
	}

	score := factors.Conversion + factors.Engagement + factors.Completeness + factors.Ranking

	health := &entities.HealthScore{
		ListingID:  listing.ID,
		Score:      score,
		Status:     healthStatus(score),
		Factors:    factors,
		ComputedAt: time.Now(),
	}
	health.Recommendations = recommendations(score, factors)
	return health
}

func conversionPoints(rate float64) int {
	switch {
	case rate >= 0.10:
		return 30
	case rate >= 0.05:
		return 20
	case rate >= 0.02:
		return 15
	case rate >= 0.01:
		return 10
	default:
		return 5
	}
}

func engagementPoints(total int) int {
	switch {
	case total >= 100:
		return 30
	case total >= 50:
		return 25
	case total >= 20:
		return 20
	case total >= 10:
		return 15
	case total >= 5:
		return 10
	default:
		return 5
	}
}

func completenessPoints(listing *entities.Listing) int {
	points := 20
	if len(listing.Tags) < 3 {
		points -= 5
	}
	if listing.Description == "" {
		points -= 5
	}
	if listing.ImageCount == 0 {
		points -= 5
	}
	if points < 0 {
		points = 0
	}
	return points
}

func rankingPoints(avgRank float64, hasRank bool) int {
	if !hasRank {
		return defaultRankingPoints
	}
	switch {
	case avgRank <= 5:
		return 20
	case avgRank <= 10:
		return 15
	case avgRank <= 20:
		return 10
	case avgRank <= 30:
		return 5
	default:
		return 0
	}
}

func healthStatus(score int) entities.HealthStatus {
	switch {
	case score < criticalScoreThreshold:
		return entities.HealthStatusCritical
	case score < healthyScoreThreshold:
		return entities.HealthStatusNeedsImprovement
	default:
		return entities.HealthStatusHealthy
	}
}

func recommendations(score int, factors entities.HealthFactors) []string {
	var recs []string

	if factors.Conversion < 30 {
		recs = append(recs, "Improve photos and description so more views turn into orders")
	}
	if factors.Engagement < 30 {
		recs = append(recs, "Promote the listing to bring in more views")
	}
	if factors.Completeness < 20 {
		recs = append(recs, "Add more tags, photos and details to complete the listing")
	}
	if factors.Ranking < 20 {
		recs = append(recs, "Use stronger tags to rank higher in search results")
	}

	if score < urgentRecommendationThreshold {
		recs = append([]string{"Listing needs urgent attention: review pricing, photos and tags"}, recs...)
	}

	return recs
}
