package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClaimBatch is a fixed collection of claims processed together. Its
// aggregate totals must reconcile against the member claims.
type ClaimBatch struct {
	BatchID           string          `json:"batch_id"`
	BatchNumber       string          `json:"batch_number"`
	Claims            []MedicalClaim  `json:"claims"`
	BatchDate         time.Time       `json:"batch_date"`
	SourceSystem      string          `json:"source_system"`
	TotalClaims       int             `json:"total_claims"`
	TotalBilledAmount decimal.Decimal `json:"total_billed_amount"`
}

// NewClaimBatch fills generated defaults (batch id, batch date) and
// validates the batch invariants.
func NewClaimBatch(b ClaimBatch) (*ClaimBatch, error) {
	if b.BatchID == "" {
		b.BatchID = uuid.NewString()
	}
	if b.BatchDate.IsZero() {
		b.BatchDate = time.Now().UTC()
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks that the batch is non-empty, the claim count matches,
// and the billed total reconciles against the member claims within
// moneyTolerance.
func (b *ClaimBatch) Validate() error {
	if b.BatchNumber == "" {
		return invalidf("batch_number", "batch number is required")
	}
	if b.SourceSystem == "" {
		return invalidf("source_system", "source system is required")
	}
	if len(b.Claims) == 0 {
		return invalidf("claims", "batch must contain at least one claim")
	}
	if b.TotalClaims != len(b.Claims) {
		return invalidf("total_claims",
			"count %d does not match actual claims %d", b.TotalClaims, len(b.Claims))
	}
	sum := decimal.Zero
	for i := range b.Claims {
		if err := b.Claims[i].Validate(); err != nil {
			return err
		}
		sum = sum.Add(b.Claims[i].TotalBilledAmount)
	}
	if b.TotalBilledAmount.Sub(sum).Abs().GreaterThan(moneyTolerance) {
		return invalidf("total_billed_amount",
			"total %s does not match sum of claim totals %s", b.TotalBilledAmount, sum)
	}
	return nil
}
