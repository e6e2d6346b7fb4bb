package services

import (
	"context"
	"fmt"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/repositories"
)

// trackingTimeout bounds the detached exposure/conversion writes
const trackingTimeout = 5 * time.Second

// AssignVariant deterministically buckets a (experiment, subject) pair
// into a variant with a 32-bit rolling hash over
// "{experiment_id}:{subject_id}:{experiment_type}".
//
// This function is FROZEN. Its arithmetic (h = h*31 + code, wrapped to
// 32 bits, abs, mod variant count) is version 1 of the bucketing
// contract; changing any constant silently reassigns every existing
// experiment subject. Assignment needs no storage read, so the same
// subject gets the same variant across processes and restarts.
func AssignVariant(experimentID, subjectID string, experimentType entities.ExperimentType) entities.Variant {
	key := fmt.Sprintf("%s:%s:%s", experimentID, subjectID, experimentType)

	var h int32
	for _, r := range key {
		h = h*31 + int32(r)
	}

	idx := int64(h)
	if idx < 0 {
		idx = -idx
	}

	switch idx % int64(experimentType.VariantCount()) {
	case 0:
		return entities.VariantA
	case 1:
		return entities.VariantB
	default:
		return entities.VariantC
	}
}

// ExperimentService assigns variants and records exposure/conversion
// events for analytics. Assignment is pure; recording is asynchronous
// and best-effort, and never fails the caller's primary flow.
type ExperimentService struct {
	repo repositories.ExperimentRepository
}

// NewExperimentService creates a new experiment service
func NewExperimentService(repo repositories.ExperimentRepository) *ExperimentService {
	return &ExperimentService{repo: repo}
}

// Assign returns the variant for a subject. Pure, safe for unlimited
// concurrency.
func (s *ExperimentService) Assign(experimentID, subjectID string, experimentType entities.ExperimentType) entities.Variant {
	return AssignVariant(experimentID, subjectID, experimentType)
}

// RecordExposure appends an exposure row in the background. Failures
// are logged and swallowed; duplicate rows on retry are deduplicated
// later in analytics, not here.
func (s *ExperimentService) RecordExposure(experimentID, subjectID string, experimentType entities.ExperimentType, listingID string, metadata map[string]string) {
	if s.repo == nil {
		return
	}

	exposure := &entities.Experiment{
		ExperimentID: experimentID,
		Type:         experimentType,
		Variant:      AssignVariant(experimentID, subjectID, experimentType),
		SubjectID:    subjectID,
		ListingID:    listingID,
		Metadata:     metadata,
	}

	// Detached from the request context, which may already be done
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), trackingTimeout)
		defer cancel()

		if err := s.repo.RecordExposure(ctx, exposure); err != nil {
			zlog.Warn().Err(err).
				Str("experiment_id", experimentID).
				Str("subject_id", subjectID).
				Msg("failed to record exposure")
		}
	}()
}

// RecordConversion marks the subject's most recent exposure converted,
// in the background, best-effort
func (s *ExperimentService) RecordConversion(experimentID, subjectID string, experimentType entities.ExperimentType) {
	if s.repo == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), trackingTimeout)
		defer cancel()

		if err := s.repo.MarkConverted(ctx, experimentID, subjectID, experimentType); err != nil {
			zlog.Warn().Err(err).
				Str("experiment_id", experimentID).
				Str("subject_id", subjectID).
				Msg("failed to record conversion")
		}
	}()
}

// Results aggregates exposures per arm. Every arm of the experiment
// type is present, winners flagged when any arm converted at all.
func (s *ExperimentService) Results(ctx context.Context, experimentID string, experimentType entities.ExperimentType) ([]*entities.VariantResult, error) {
	counts, err := s.repo.CountByVariant(ctx, experimentID, experimentType)
	if err != nil {
		return nil, err
	}

	variants := []entities.Variant{entities.VariantA, entities.VariantB, entities.VariantC}
	variants = variants[:experimentType.VariantCount()]

	results := make([]*entities.VariantResult, 0, len(variants))
	maxRate := 0.0

	for _, variant := range variants {
		result := &entities.VariantResult{Variant: variant}
		if c, ok := counts[variant]; ok {
			result.Views = c.Views
			result.Orders = c.Orders
			if c.Views > 0 {
				result.ConversionRate = float64(c.Orders) / float64(c.Views)
			}
		}
		if result.ConversionRate > maxRate {
			maxRate = result.ConversionRate
		}
		results = append(results, result)
	}

	if maxRate > 0 {
		for _, result := range results {
			if result.ConversionRate == maxRate {
				result.IsWinner = true
			}
		}
	}

	return results, nil
}
