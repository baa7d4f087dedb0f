package produce

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/gyeh/claimstream/internal/model"
)

const (
	// ProducerVersion identifies this producer in the provenance envelope.
	ProducerVersion = "1.0.0"
	// SchemaVersion identifies the claim wire schema.
	SchemaVersion = "1.0.0"
)

// provenance is the _metadata block attached to every published claim,
// identifying when and how the message was produced. It is distinct from
// the claim's own business metadata.
type provenance struct {
	ProducedAt      string `json:"produced_at"`
	ProducerVersion string `json:"producer_version"`
	SchemaVersion   string `json:"schema_version"`
}

// claimEnvelope flattens the full claim record and adds the provenance
// block. Monetary fields serialize as fixed-precision strings via the
// decimal type; binary floats never appear on the wire.
type claimEnvelope struct {
	model.MedicalClaim
	Provenance provenance `json:"_metadata"`
}

func encodeClaim(claim *model.MedicalClaim, producedAt time.Time) ([]byte, error) {
	return json.Marshal(claimEnvelope{
		MedicalClaim: *claim,
		Provenance: provenance{
			ProducedAt:      producedAt.UTC().Format(time.RFC3339Nano),
			ProducerVersion: ProducerVersion,
			SchemaVersion:   SchemaVersion,
		},
	})
}

// Alert is the caller-supplied part of an alert message.
type Alert struct {
	Type     string
	Severity string
	Message  string
	Metadata map[string]any
}

type alertEnvelope struct {
	AlertID   string         `json:"alert_id"`
	ClaimID   string         `json:"claim_id"`
	AlertType string         `json:"alert_type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

func encodeAlert(alert Alert, claimID string, at time.Time) ([]byte, error) {
	alertType := alert.Type
	if alertType == "" {
		alertType = "unknown"
	}
	severity := alert.Severity
	if severity == "" {
		severity = "medium"
	}
	metadata := alert.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return json.Marshal(alertEnvelope{
		AlertID:   fmt.Sprintf("alert_%d_%s", at.Unix(), claimID),
		ClaimID:   claimID,
		AlertType: alertType,
		Severity:  severity,
		Message:   alert.Message,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		Metadata:  metadata,
	})
}
