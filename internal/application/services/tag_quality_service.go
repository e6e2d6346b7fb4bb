package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	zlog "github.com/rs/zerolog/log"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/providers"
	"github.com/savdohub/ranking-engine/internal/domain/repositories"
	"github.com/savdohub/ranking-engine/internal/infrastructure/observability"
	"golang.org/x/sync/errgroup"
)

const (
	// neutralRate substitutes for any sub-factor with no data. A tag
	// nobody has searched yet is neither penalized nor promoted.
	neutralRate = 0.5

	// freshnessDecayDays is the e-folding time of the freshness factor
	freshnessDecayDays = 30.0

	highSignalThreshold = 0.7
	lowSignalThreshold  = 0.3

	// DefaultLowQualityThreshold suppresses suggesting degenerate tags
	DefaultLowQualityThreshold = 0.3
)

// QualityResult is the explained quality of one tag
type QualityResult struct {
	Tag            string   `json:"tag"`
	Quality        float64  `json:"quality"`
	MatchRate      float64  `json:"match_rate"`
	ConversionRate float64  `json:"conversion_rate"`
	Freshness      float64  `json:"freshness"`
	Reasons        []string `json:"reasons"`
}

// TagQualityService derives a 0-1 quality score per tag from
// match-rate, conversion-rate and freshness. Reads against the
// aggregate store are batched through a dataloader and bounded by a
// timeout; any failure or gap degrades to neutral defaults instead of
// erroring.
type TagQualityService struct {
	signals     repositories.TagSignalRepository
	cache       providers.CacheProvider
	loader      *dataloader.Loader[string, *QualityResult]
	readTimeout time.Duration
	cacheTTL    int
	metrics     *observability.Metrics
}

// NewTagQualityService creates a new tag quality service. cache may be
// nil; quality is then recomputed on every request.
func NewTagQualityService(signals repositories.TagSignalRepository, cache providers.CacheProvider, readTimeout time.Duration, cacheTTLSeconds int) *TagQualityService {
	s := &TagQualityService{
		signals:     signals,
		cache:       cache,
		readTimeout: readTimeout,
		cacheTTL:    cacheTTLSeconds,
	}

	// Freshness makes results time-dependent, so the loader only
	// coalesces concurrent lookups; the Redis snapshot is the cache.
	s.loader = dataloader.NewBatchedLoader(
		s.batchCompute,
		dataloader.WithCache[string, *QualityResult](&dataloader.NoCache[string, *QualityResult]{}),
	)

	return s
}

// SetMetrics enables signal degradation instrumentation
func (s *TagQualityService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// QualityScore returns the quality of one tag
func (s *TagQualityService) QualityScore(ctx context.Context, tag string) (*QualityResult, error) {
	if cached := s.fromCache(ctx, tag); cached != nil {
		return cached, nil
	}

	result, err := s.loader.Load(ctx, tag)()
	if err != nil {
		// The batch function degrades internally; an error here means
		// the loader itself failed. Fall back to neutral anyway.
		zlog.Warn().Err(err).Str("tag", tag).Msg("quality load failed, using neutral defaults")
		return neutralQuality(tag), nil
	}

	s.toCache(ctx, result)
	return result, nil
}

// QualityScores returns quality keyed by tag for a batch of tags.
// Every requested tag is present in the result.
func (s *TagQualityService) QualityScores(ctx context.Context, tags []string) (map[string]*QualityResult, error) {
	results := make(map[string]*QualityResult, len(tags))

	var missing []string
	for _, tag := range tags {
		if _, ok := results[tag]; ok {
			continue
		}
		if cached := s.fromCache(ctx, tag); cached != nil {
			results[tag] = cached
		} else {
			missing = append(missing, tag)
		}
	}

	if len(missing) > 0 {
		loaded, _ := s.loader.LoadMany(ctx, missing)()
		for i, tag := range missing {
			if i < len(loaded) && loaded[i] != nil {
				results[tag] = loaded[i]
				s.toCache(ctx, loaded[i])
			} else {
				results[tag] = neutralQuality(tag)
			}
		}
	}

	return results, nil
}

// FilterLowQuality keeps tags whose quality is at or above the
// threshold, or unknown. Missing history is not penalized.
func (s *TagQualityService) FilterLowQuality(tags []string, scores map[string]*QualityResult, threshold float64) []string {
	if threshold <= 0 {
		threshold = DefaultLowQualityThreshold
	}

	kept := make([]string, 0, len(tags))
	for _, tag := range tags {
		result, ok := scores[tag]
		if !ok || result == nil || result.Quality >= threshold {
			kept = append(kept, tag)
		}
	}
	return kept
}

// batchCompute resolves one dataloader batch: two bounded reads against
// the aggregate store, then pure arithmetic per tag. Store failures
// degrade the whole batch to neutral defaults.
func (s *TagQualityService) batchCompute(ctx context.Context, tags []string) []*dataloader.Result[*QualityResult] {
	readCtx := ctx
	if s.readTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, s.readTimeout)
		defer cancel()
	}

	var usage map[string]*entities.TagUsageStats
	var conversion map[string]*entities.TagConversionMetrics

	g, gctx := errgroup.WithContext(readCtx)
	g.Go(func() error {
		var err error
		usage, err = s.signals.GetUsageStatsBatch(gctx, tags)
		return err
	})
	g.Go(func() error {
		var err error
		conversion, err = s.signals.GetConversionMetricsBatch(gctx, tags)
		return err
	})

	if err := g.Wait(); err != nil {
		zlog.Warn().Err(err).Int("tags", len(tags)).Msg("tag signal read degraded to neutral defaults")
		observability.RecordSignalFallback(ctx, s.metrics, "tag_quality")
		usage = nil
		conversion = nil
	}

	now := time.Now()
	results := make([]*dataloader.Result[*QualityResult], len(tags))
	for i, tag := range tags {
		results[i] = &dataloader.Result[*QualityResult]{
			Data: computeQuality(tag, usage[tag], conversion[tag], now),
		}
	}
	return results
}

// computeQuality is the pure core: quality = matchRate × conversionRate × freshness
func computeQuality(tag string, usage *entities.TagUsageStats, conversion *entities.TagConversionMetrics, now time.Time) *QualityResult {
	matchRate := neutralRate
	if rate, ok := usage.MatchRate(); ok {
		matchRate = clamp01(rate)
	}

	ctr, ctrOK := conversion.ClickThroughRate()
	contactRate, contactOK := conversion.ContactRate()
	orderRate, orderOK := conversion.OrderConversionRate()

	conversionRate := neutralRate
	if ctrOK || contactOK || orderOK {
		if !ctrOK {
			ctr = neutralRate
		}
		if !contactOK {
			contactRate = neutralRate
		}
		if !orderOK {
			orderRate = neutralRate
		}
		conversionRate = 0.3*clamp01(ctr) + 0.4*clamp01(contactRate) + 0.3*clamp01(orderRate)
	}

	freshness := neutralRate
	if lastUsed := latestUse(usage, conversion); lastUsed != nil {
		days := now.Sub(*lastUsed).Hours() / 24
		if days < 0 {
			days = 0
		}
		freshness = math.Exp(-days / freshnessDecayDays)
	}

	result := &QualityResult{
		Tag:            tag,
		Quality:        clamp01(matchRate * conversionRate * freshness),
		MatchRate:      matchRate,
		ConversionRate: clamp01(conversionRate),
		Freshness:      clamp01(freshness),
	}
	result.Reasons = qualityReasons(result)
	return result
}

func qualityReasons(r *QualityResult) []string {
	var reasons []string

	switch {
	case r.MatchRate > highSignalThreshold:
		reasons = append(reasons, "high match rate")
	case r.MatchRate < lowSignalThreshold:
		reasons = append(reasons, "low match rate")
	}

	switch {
	case r.ConversionRate > highSignalThreshold:
		reasons = append(reasons, "high conversion rate")
	case r.ConversionRate < lowSignalThreshold:
		reasons = append(reasons, "low conversion rate")
	}

	switch {
	case r.Freshness > highSignalThreshold:
		reasons = append(reasons, "recently used")
	case r.Freshness < lowSignalThreshold:
		reasons = append(reasons, "stale tag")
	}

	return reasons
}

func latestUse(usage *entities.TagUsageStats, conversion *entities.TagConversionMetrics) *time.Time {
	var latest *time.Time
	if usage != nil && usage.LastUsed != nil {
		latest = usage.LastUsed
	}
	if conversion != nil && conversion.LastUsed != nil {
		if latest == nil || conversion.LastUsed.After(*latest) {
			latest = conversion.LastUsed
		}
	}
	return latest
}

func neutralQuality(tag string) *QualityResult {
	return &QualityResult{
		Tag:            tag,
		Quality:        neutralRate * neutralRate * neutralRate,
		MatchRate:      neutralRate,
		ConversionRate: neutralRate,
		Freshness:      neutralRate,
	}
}

func (s *TagQualityService) fromCache(ctx context.Context, tag string) *QualityResult {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, qualityCacheKey(tag))
	if err != nil {
		return nil
	}

	result := &QualityResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil
	}
	return result
}

func (s *TagQualityService) toCache(ctx context.Context, result *QualityResult) {
	if s.cache == nil || result == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, qualityCacheKey(result.Tag), data, s.cacheTTL); err != nil {
		zlog.Warn().Err(err).Str("tag", result.Tag).Msg("failed to cache quality snapshot")
	}
}

func qualityCacheKey(tag string) string {
	return fmt.Sprintf("tag:quality:%s", tag)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
