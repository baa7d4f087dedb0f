package quality

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyeh/claimstream/internal/model"
)

// AlertThreshold is the overall score below which a claim warrants a
// data-quality alert.
const AlertThreshold = 70.0

// Deductions per finding. Accuracy findings are money reconciliation
// problems; validity findings are chronology and coding problems.
const (
	accuracyPenalty = 25.0
	validityPenalty = 25.0
)

// Scorer computes data-quality metrics for claims. Scoring is
// deterministic: the same claim always yields the same metrics apart
// from the creation timestamp.
type Scorer struct {
	now func() time.Time
}

func NewScorer() *Scorer {
	return &Scorer{now: func() time.Time { return time.Now().UTC() }}
}

// Score produces quality metrics for one claim. Completeness measures
// how many expected-but-optional fields are populated, accuracy checks
// the money amounts against each other, and validity checks
// chronology and coding. The overall score is the mean of the three.
func (s *Scorer) Score(claim *model.MedicalClaim) (*model.ClaimQualityMetrics, error) {
	completeness, missing := s.completeness(claim)
	accuracy, anomalies := s.accuracy(claim)
	validity, verrs := s.validity(claim)

	m := model.ClaimQualityMetrics{
		ClaimID:           claim.ClaimID,
		CompletenessScore: completeness,
		AccuracyScore:     accuracy,
		ValidityScore:     validity,
		OverallScore:      (completeness + accuracy + validity) / 3,
		MissingFields:     missing,
		ValidationErrors:  verrs,
		DataAnomalies:     anomalies,
		CreatedAt:         s.now(),
	}
	out, err := model.NewClaimQualityMetrics(m)
	if err != nil {
		return nil, fmt.Errorf("score claim %s: %w", claim.ClaimID, err)
	}
	return out, nil
}

// ShouldAlert reports whether the metrics fall below the alert threshold.
func ShouldAlert(m *model.ClaimQualityMetrics) bool {
	return m.OverallScore < AlertThreshold
}

// completeness scores the optional fields a well-populated claim
// carries. Each absent field costs an equal share.
func (s *Scorer) completeness(claim *model.MedicalClaim) (float64, []string) {
	checks := []struct {
		field   string
		present bool
	}{
		{"patient.phone", claim.Patient.Phone != ""},
		{"patient.address", len(claim.Patient.Address) > 0},
		{"provider.tax_id", claim.Provider.TaxID != ""},
		{"provider.phone", claim.Provider.Phone != ""},
		{"provider.specialty", claim.Provider.Specialty != ""},
		{"insurance.coverage_end_date", claim.Insurance.CoverageEndDate != nil},
		{"total_allowed_amount", claim.TotalAllowedAmount != nil},
		{"total_paid_amount", claim.TotalPaidAmount != nil},
		{"claim_processed_date", claim.ClaimProcessedDate != nil},
		{"notes", claim.Notes != ""},
	}

	var missing []string
	for _, c := range checks {
		if !c.present {
			missing = append(missing, c.field)
		}
	}
	score := float64(len(checks)-len(missing)) / float64(len(checks)) * 100
	return score, missing
}

// accuracy checks the claim's money amounts against each other.
func (s *Scorer) accuracy(claim *model.MedicalClaim) (float64, []string) {
	var anomalies []string

	lineSum := decimal.Zero
	for i := range claim.ClaimLines {
		lineSum = lineSum.Add(claim.ClaimLines[i].BilledAmount)
	}
	if !claim.TotalBilledAmount.Sub(lineSum).Abs().LessThanOrEqual(decimal.New(1, -2)) {
		anomalies = append(anomalies, fmt.Sprintf(
			"total billed %s does not match line sum %s", claim.TotalBilledAmount, lineSum))
	}
	if claim.TotalAllowedAmount != nil && claim.TotalAllowedAmount.GreaterThan(claim.TotalBilledAmount) {
		anomalies = append(anomalies, fmt.Sprintf(
			"allowed %s exceeds billed %s", claim.TotalAllowedAmount, claim.TotalBilledAmount))
	}
	if claim.TotalPaidAmount != nil && claim.TotalAllowedAmount != nil &&
		claim.TotalPaidAmount.GreaterThan(*claim.TotalAllowedAmount) {
		anomalies = append(anomalies, fmt.Sprintf(
			"paid %s exceeds allowed %s", claim.TotalPaidAmount, claim.TotalAllowedAmount))
	}

	return clampScore(100 - float64(len(anomalies))*accuracyPenalty), anomalies
}

// validity checks chronology and diagnosis coding.
func (s *Scorer) validity(claim *model.MedicalClaim) (float64, []string) {
	var errs []string
	now := s.now()

	if claim.DateOfService.After(now) {
		errs = append(errs, "date of service is in the future")
	}
	if claim.DateOfService.Before(claim.Patient.DateOfBirth) {
		errs = append(errs, "date of service precedes patient date of birth")
	}
	if !claim.ClaimReceivedDate.IsZero() && claim.ClaimReceivedDate.Before(claim.DateOfService) {
		errs = append(errs, "claim received before date of service")
	}
	for i := range claim.ClaimLines {
		if !hasPrimaryDiagnosis(&claim.ClaimLines[i]) {
			errs = append(errs, fmt.Sprintf("line %s has no primary diagnosis", claim.ClaimLines[i].LineID))
		}
	}

	return clampScore(100 - float64(len(errs))*validityPenalty), errs
}

func hasPrimaryDiagnosis(line *model.ClaimLine) bool {
	for i := range line.DiagnosisCodes {
		if line.DiagnosisCodes[i].Primary {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
