package model

import "testing"

func TestNewClaimQualityMetrics(t *testing.T) {
	base := ClaimQualityMetrics{
		ClaimID:           "CLAIM001",
		CompletenessScore: 90,
		AccuracyScore:     80,
		ValidityScore:     70,
		OverallScore:      80,
	}

	t.Run("valid_metrics_construct", func(t *testing.T) {
		m, err := NewClaimQualityMetrics(base)
		if err != nil {
			t.Fatalf("NewClaimQualityMetrics: %v", err)
		}
		if m.CreatedAt.IsZero() {
			t.Error("expected created timestamp to default to now")
		}
	})

	t.Run("overall_must_equal_mean", func(t *testing.T) {
		m := base
		m.OverallScore = 85
		_, err := NewClaimQualityMetrics(m)
		var verr *ValidationError
		if !asValidationError(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Field != "overall_score" {
			t.Errorf("expected overall_score field, got %q", verr.Field)
		}
	})

	t.Run("overall_within_tolerance", func(t *testing.T) {
		m := base
		m.OverallScore = 80.009
		if _, err := NewClaimQualityMetrics(m); err != nil {
			t.Fatalf("0.009 drift should be within tolerance: %v", err)
		}
	})

	t.Run("score_out_of_range_rejected", func(t *testing.T) {
		for _, mutate := range []func(*ClaimQualityMetrics){
			func(m *ClaimQualityMetrics) { m.CompletenessScore = -1 },
			func(m *ClaimQualityMetrics) { m.AccuracyScore = 101 },
			func(m *ClaimQualityMetrics) { m.ValidityScore = 200 },
		} {
			m := base
			mutate(&m)
			if _, err := NewClaimQualityMetrics(m); err == nil {
				t.Error("expected error for out-of-range score")
			}
		}
	})

	t.Run("missing_claim_id_rejected", func(t *testing.T) {
		m := base
		m.ClaimID = ""
		if _, err := NewClaimQualityMetrics(m); err == nil {
			t.Fatal("expected error for missing claim id")
		}
	})
}
