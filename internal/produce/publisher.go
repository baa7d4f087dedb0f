package produce

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gyeh/claimstream/internal/model"
	"github.com/gyeh/claimstream/internal/stream"
)

const (
	// DefaultClaimTimeout bounds how long a claim send waits for the
	// backend acknowledgement.
	DefaultClaimTimeout = 30 * time.Second
	// DefaultAlertTimeout is the shorter window for alert sends.
	DefaultAlertTimeout = 10 * time.Second
)

// Topics names the three claim streams.
type Topics struct {
	Raw       string
	Validated string
	Alerts    string
}

// Names returns the stream names in canonical order.
func (t Topics) Names() []string {
	return []string{t.Raw, t.Validated, t.Alerts}
}

// Config carries Publisher tuning; zero-value timeouts get the defaults.
type Config struct {
	Topics       Topics
	ClaimTimeout time.Duration
	AlertTimeout time.Duration
}

// Publisher validates claims, serializes them with a provenance envelope,
// sends them keyed by claim id, and records every resolved send outcome
// in its statistics aggregator.
type Publisher struct {
	sender       stream.Sender
	topics       Topics
	claimTimeout time.Duration
	alertTimeout time.Duration
	log          zerolog.Logger
	stats        *Stats

	// Injectable clock for deterministic tests.
	now func() time.Time
}

// NewPublisher wires a publisher to its backend sender.
func NewPublisher(sender stream.Sender, cfg Config, log zerolog.Logger) *Publisher {
	if cfg.ClaimTimeout <= 0 {
		cfg.ClaimTimeout = DefaultClaimTimeout
	}
	if cfg.AlertTimeout <= 0 {
		cfg.AlertTimeout = DefaultAlertTimeout
	}
	return &Publisher{
		sender:       sender,
		topics:       cfg.Topics,
		claimTimeout: cfg.ClaimTimeout,
		alertTimeout: cfg.AlertTimeout,
		log:          log,
		stats:        NewStats(cfg.Topics.Names()),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Publish sends one claim to the raw-claims stream.
func (p *Publisher) Publish(ctx context.Context, claim *model.MedicalClaim) Outcome {
	return p.PublishTo(ctx, claim, p.topics.Raw)
}

// PublishTo sends one claim to the named stream. The claim must pass the
// pre-publish gates; a rejected claim never reaches the backend and does
// not count as a delivery failure. Otherwise PublishTo blocks until the
// send resolves as delivered, timed out, or failed, and records that
// resolution in the statistics exactly once.
func (p *Publisher) PublishTo(ctx context.Context, claim *model.MedicalClaim, topic string) Outcome {
	if reason := p.gate(claim); reason != "" {
		p.log.Warn().
			Str("claim_id", claim.ClaimID).
			Str("reason", reason).
			Msg("claim rejected by pre-publish validation")
		return Outcome{Status: StatusRejected, Reason: reason}
	}

	producedAt := p.now()
	payload, err := encodeClaim(claim, producedAt)
	if err != nil {
		p.stats.OnError(err, p.now())
		return Outcome{Status: StatusSendFailed, Err: fmt.Errorf("encode claim: %w", err)}
	}

	headers := []stream.Header{
		{Key: "claim_type", Value: string(claim.ClaimType)},
		{Key: "provider_id", Value: claim.Provider.ProviderID},
		{Key: "timestamp", Value: strconv.FormatInt(producedAt.Unix(), 10)},
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.claimTimeout)
	defer cancel()

	ack, err := p.sender.Send(sendCtx, topic, []byte(claim.ClaimID), payload, headers)
	if err != nil {
		return p.resolveFailure(claim.ClaimID, topic, err)
	}

	p.stats.OnSuccess(len(payload), p.now())
	p.log.Info().
		Str("claim_id", claim.ClaimID).
		Str("topic", topic).
		Int("partition", ack.Partition).
		Int64("offset", ack.Offset).
		Msg("claim sent")
	return Outcome{Status: StatusDelivered, Partition: ack.Partition, Offset: ack.Offset}
}

// PublishAlert sends an alert envelope to the alerts stream, keyed by the
// originating claim id, with the shorter alert timeout.
func (p *Publisher) PublishAlert(ctx context.Context, alert Alert, claimID string) Outcome {
	at := p.now()
	payload, err := encodeAlert(alert, claimID, at)
	if err != nil {
		p.stats.OnError(err, p.now())
		return Outcome{Status: StatusSendFailed, Err: fmt.Errorf("encode alert: %w", err)}
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.alertTimeout)
	defer cancel()

	ack, err := p.sender.Send(sendCtx, p.topics.Alerts, []byte(claimID), payload, nil)
	if err != nil {
		return p.resolveFailure(claimID, p.topics.Alerts, err)
	}

	p.stats.OnSuccess(len(payload), p.now())
	p.log.Info().Str("claim_id", claimID).Str("alert_type", alert.Type).Msg("alert sent")
	return Outcome{Status: StatusDelivered, Partition: ack.Partition, Offset: ack.Offset}
}

// HealthCheck verifies the backend's partition metadata for the raw
// stream is retrievable without producing data.
func (p *Publisher) HealthCheck(ctx context.Context) bool {
	if _, err := p.sender.Partitions(ctx, p.topics.Raw); err != nil {
		p.log.Error().Err(err).Msg("health check failed")
		return false
	}
	return true
}

// Stats returns a read-only snapshot of the delivery statistics.
func (p *Publisher) Stats() Snapshot {
	return p.stats.Snapshot()
}

// Close releases the backend sender.
func (p *Publisher) Close() error {
	return p.sender.Close()
}

// gate runs the pre-publish business checks. It returns an empty string
// when the claim may be sent, otherwise the rejection reason.
func (p *Publisher) gate(claim *model.MedicalClaim) string {
	if claim.ClaimID == "" || claim.ClaimNumber == "" {
		return "claim id and claim number are required"
	}
	if claim.Patient.PatientID == "" {
		return "patient is missing"
	}
	if claim.Provider.ProviderID == "" {
		return "provider is missing"
	}
	if claim.Insurance.InsuranceID == "" {
		return "insurance is missing"
	}
	if len(claim.ClaimLines) == 0 {
		return "claim has no line items"
	}
	if !claim.TotalBilledAmount.GreaterThan(decimal.Zero) {
		return "total billed amount must be positive"
	}
	if claim.DateOfService.After(p.now()) {
		return "date of service is in the future"
	}
	return ""
}

// resolveFailure classifies a send error, records it, and builds the
// outcome. Timeouts are not retried here; retry policy belongs to the
// messaging client.
func (p *Publisher) resolveFailure(claimID, topic string, err error) Outcome {
	p.stats.OnError(err, p.now())
	if errors.Is(err, context.DeadlineExceeded) {
		p.log.Error().Str("claim_id", claimID).Str("topic", topic).Msg("send timed out")
		return Outcome{Status: StatusTimedOut, Err: err}
	}
	p.log.Error().Err(err).Str("claim_id", claimID).Str("topic", topic).Msg("send failed")
	return Outcome{Status: StatusSendFailed, Err: err}
}
