package entities

import (
	"time"
)

// ExperimentType identifies what kind of surface an experiment varies
type ExperimentType string

const (
	ExperimentRankingFormula ExperimentType = "ranking_formula"
	ExperimentAITagVariants  ExperimentType = "ai_tag_variants"
	ExperimentUIVariant      ExperimentType = "ui_variant"
)

// Valid reports whether t is a known experiment type
func (t ExperimentType) Valid() bool {
	switch t {
	case ExperimentRankingFormula, ExperimentAITagVariants, ExperimentUIVariant:
		return true
	}
	return false
}

// VariantCount returns how many arms the experiment type runs.
// ui_variant experiments run three arms, everything else two.
func (t ExperimentType) VariantCount() int {
	if t == ExperimentUIVariant {
		return 3
	}
	return 2
}

// Variant is one arm of a controlled experiment
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
	VariantC Variant = "C"
)

// Experiment is one recorded exposure of a subject to an experiment
// arm. Assignment itself is a pure hash; these rows exist only for
// analytics.
type Experiment struct {
	ID           string            `json:"id" db:"id"`
	ExperimentID string            `json:"experiment_id" db:"experiment_id"`
	Type         ExperimentType    `json:"experiment_type" db:"experiment_type"`
	Variant      Variant           `json:"variant" db:"variant"`
	SubjectID    string            `json:"subject_id" db:"subject_id"`
	ListingID    string            `json:"listing_id,omitempty" db:"listing_id"`
	Metadata     map[string]string `json:"metadata,omitempty" db:"-"`
	Converted    bool              `json:"converted" db:"converted"`
	ConvertedAt  *time.Time        `json:"converted_at,omitempty" db:"converted_at"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

// VariantCounts holds raw exposure/conversion tallies for one arm
type VariantCounts struct {
	Views  int `json:"views" db:"views"`
	Orders int `json:"orders" db:"orders"`
}

// VariantResult is the per-arm outcome of an experiment
type VariantResult struct {
	Variant        Variant `json:"variant"`
	Views          int     `json:"views"`
	Orders         int     `json:"orders"`
	ConversionRate float64 `json:"conversion_rate"`
	IsWinner       bool    `json:"is_winner"`
}
