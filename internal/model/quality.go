package model

import (
	"math"
	"time"
)

// scoreTolerance is the allowed drift between the overall score and the
// mean of the component scores.
const scoreTolerance = 0.01

// ClaimQualityMetrics summarizes data-quality scoring for one claim.
// Scores are percentages in [0, 100]; OverallScore must equal the mean
// of the three component scores within scoreTolerance.
type ClaimQualityMetrics struct {
	ClaimID           string  `json:"claim_id"`
	CompletenessScore float64 `json:"completeness_score"`
	AccuracyScore     float64 `json:"accuracy_score"`
	ValidityScore     float64 `json:"validity_score"`
	OverallScore      float64 `json:"overall_score"`

	MissingFields    []string `json:"missing_fields"`
	ValidationErrors []string `json:"validation_errors"`
	DataAnomalies    []string `json:"data_anomalies"`

	CreatedAt time.Time `json:"created_at"`
}

// NewClaimQualityMetrics fills the creation timestamp and validates the
// score invariants.
func NewClaimQualityMetrics(m ClaimQualityMetrics) (*ClaimQualityMetrics, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *ClaimQualityMetrics) Validate() error {
	if m.ClaimID == "" {
		return invalidf("claim_id", "claim id is required")
	}
	for _, s := range []struct {
		field string
		v     float64
	}{
		{"completeness_score", m.CompletenessScore},
		{"accuracy_score", m.AccuracyScore},
		{"validity_score", m.ValidityScore},
		{"overall_score", m.OverallScore},
	} {
		if s.v < 0 || s.v > 100 {
			return invalidf(s.field, "score must be in [0, 100], got %g", s.v)
		}
	}
	mean := (m.CompletenessScore + m.AccuracyScore + m.ValidityScore) / 3
	if math.Abs(m.OverallScore-mean) > scoreTolerance {
		return invalidf("overall_score",
			"overall %g must equal mean of component scores %g", m.OverallScore, mean)
	}
	return nil
}
