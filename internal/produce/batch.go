package produce

import (
	"context"
	"fmt"

	"github.com/gyeh/claimstream/internal/model"
)

// BatchResult tallies one batch publish. Total always equals
// Successful + Failed, which always equals the batch's claim count.
type BatchResult struct {
	Total      int
	Successful int
	Failed     int
}

// PublishBatch publishes every claim in batch order (the audit order),
// counting each outcome. Per-claim failures — including panics — never
// abort the batch; they are reflected only in the returned tally. After
// all claims are attempted, a flush barrier guarantees no sends remain
// in flight. A barrier failure is the one aggregate-level error that
// surfaces, since no further progress is possible.
func (p *Publisher) PublishBatch(ctx context.Context, batch *model.ClaimBatch) (BatchResult, error) {
	result := BatchResult{Total: len(batch.Claims)}

	p.log.Info().
		Str("batch_id", batch.BatchID).
		Int("claims", len(batch.Claims)).
		Msg("publishing batch")

	for i := range batch.Claims {
		outcome := p.publishGuarded(ctx, &batch.Claims[i])
		if outcome.Delivered() {
			result.Successful++
		} else {
			result.Failed++
		}
	}

	if err := p.sender.Flush(ctx); err != nil {
		return result, fmt.Errorf("flush barrier: %w", err)
	}

	p.log.Info().
		Str("batch_id", batch.BatchID).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("batch complete")

	return result, nil
}

// publishGuarded wraps Publish so a per-claim panic is converted into a
// failed outcome instead of aborting the batch.
func (p *Publisher) publishGuarded(ctx context.Context, claim *model.MedicalClaim) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Str("claim_id", claim.ClaimID).
				Interface("panic", r).
				Msg("claim publish panicked")
			out = Outcome{Status: StatusSendFailed, Err: fmt.Errorf("publish panic: %v", r)}
		}
	}()
	return p.Publish(ctx, claim)
}
