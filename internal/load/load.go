// Package load decodes claim batch documents at the process boundary.
// All enum, decimal, and cross-field validation happens here, so code
// past this point only ever sees fully constructed aggregates.
package load

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/gyeh/claimstream/internal/model"
)

// BatchFromFile reads and validates a claim batch JSON document.
func BatchFromFile(path string) (*model.ClaimBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	batch, err := Batch(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return batch, nil
}

// Batch decodes one claim batch document. Every claim is run through
// its validating constructor, so generated defaults (claim ids, line
// ids, procedure units) are filled in and invariant violations are
// rejected before the batch itself is validated.
func Batch(r io.Reader) (*model.ClaimBatch, error) {
	var raw model.ClaimBatch
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}

	for i := range raw.Claims {
		claim, err := model.NewMedicalClaim(raw.Claims[i])
		if err != nil {
			return nil, fmt.Errorf("claim %d (%s): %w", i+1, raw.Claims[i].ClaimNumber, err)
		}
		raw.Claims[i] = *claim
	}

	return model.NewClaimBatch(raw)
}
