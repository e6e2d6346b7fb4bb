package services

import (
	"context"
	"time"

	"github.com/savdohub/ranking-engine/internal/domain/entities"
	apperrors "github.com/savdohub/ranking-engine/pkg/errors"
)

// fakeTagSignalRepo serves canned aggregates keyed by tag
type fakeTagSignalRepo struct {
	usage      map[string]*entities.TagUsageStats
	conversion map[string]*entities.TagConversionMetrics
	err        error
}

func (f *fakeTagSignalRepo) GetUsageStats(ctx context.Context, tag string) (*entities.TagUsageStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.usage[tag], nil
}

func (f *fakeTagSignalRepo) GetUsageStatsBatch(ctx context.Context, tags []string) (map[string]*entities.TagUsageStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*entities.TagUsageStats)
	for _, tag := range tags {
		if stats, ok := f.usage[tag]; ok {
			out[tag] = stats
		}
	}
	return out, nil
}

func (f *fakeTagSignalRepo) GetConversionMetrics(ctx context.Context, tag string) (*entities.TagConversionMetrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conversion[tag], nil
}

func (f *fakeTagSignalRepo) GetConversionMetricsBatch(ctx context.Context, tags []string) (map[string]*entities.TagConversionMetrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*entities.TagConversionMetrics)
	for _, tag := range tags {
		if metrics, ok := f.conversion[tag]; ok {
			out[tag] = metrics
		}
	}
	return out, nil
}

// fakeInteractionRepo returns a fixed interaction history and funnel
type fakeInteractionRepo struct {
	interactions []*entities.Interaction
	funnel       *entities.ListingFunnel
	recorded     []*entities.Interaction
	err          error
}

func (f *fakeInteractionRepo) Record(ctx context.Context, interaction *entities.Interaction) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, interaction)
	return nil
}

func (f *fakeInteractionRepo) ListByUser(ctx context.Context, userID string, since time.Time) ([]*entities.Interaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.interactions, nil
}

func (f *fakeInteractionRepo) GetListingFunnel(ctx context.Context, listingID string, since time.Time) (*entities.ListingFunnel, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.funnel != nil {
		return f.funnel, nil
	}
	return &entities.ListingFunnel{ListingID: listingID}, nil
}

// fakeListingRepo serves listings from a slice
type fakeListingRepo struct {
	listings []*entities.Listing
}

func (f *fakeListingRepo) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	for _, listing := range f.listings {
		if listing.ID == id {
			return listing, nil
		}
	}
	return nil, apperrors.NewNotFoundError("listing not found")
}

func (f *fakeListingRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error) {
	var out []*entities.Listing
	for _, id := range ids {
		for _, listing := range f.listings {
			if listing.ID == id {
				out = append(out, listing)
			}
		}
	}
	return out, nil
}

func (f *fakeListingRepo) ListRecent(ctx context.Context, limit int) ([]*entities.Listing, error) {
	if limit > len(f.listings) {
		limit = len(f.listings)
	}
	return f.listings[:limit], nil
}

// fakeExperimentRepo tallies exposures in memory
type fakeExperimentRepo struct {
	counts map[entities.Variant]*entities.VariantCounts
}

func (f *fakeExperimentRepo) RecordExposure(ctx context.Context, exposure *entities.Experiment) error {
	return nil
}

func (f *fakeExperimentRepo) MarkConverted(ctx context.Context, experimentID, subjectID string, experimentType entities.ExperimentType) error {
	return nil
}

func (f *fakeExperimentRepo) CountByVariant(ctx context.Context, experimentID string, experimentType entities.ExperimentType) (map[entities.Variant]*entities.VariantCounts, error) {
	return f.counts, nil
}
