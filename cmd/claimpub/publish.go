package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/claimstream/internal/audit"
	"github.com/gyeh/claimstream/internal/exitcode"
	"github.com/gyeh/claimstream/internal/load"
	"github.com/gyeh/claimstream/internal/logging"
	"github.com/gyeh/claimstream/internal/model"
	"github.com/gyeh/claimstream/internal/produce"
	"github.com/gyeh/claimstream/internal/quality"
	"github.com/gyeh/claimstream/internal/stream"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a claim batch file to the claim streams",
	RunE:  runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to claim batch JSON file (required)")
	f.StringVar(&cfg.AuditDSN, "audit-dsn", os.Getenv("AUDIT_DB_URL"), "Postgres DSN for the publish audit registry (or set AUDIT_DB_URL)")
	f.BoolVar(&cfg.ScoreQuality, "score-quality", false, "Score claim data quality and publish alerts for low scores")
	f.DurationVar(&cfg.ClaimTimeout, "claim-timeout", 0, "Per-claim send timeout (default 30s)")
	_ = publishCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			log.Error().Err(err).Msg("config file failed")
			os.Exit(exitcode.UsageError)
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.ValidateWithFile(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	batch, err := load.BatchFromFile(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("batch file rejected")
		os.Exit(exitcode.ValidationError)
	}

	sender, err := stream.NewKafka(cfg.Brokers)
	if err != nil {
		log.Error().Err(err).Msg("broker connection failed")
		os.Exit(exitcode.BrokerConnError)
	}

	publisher := produce.NewPublisher(sender, produce.Config{
		Topics: produce.Topics{
			Raw:       cfg.RawTopic,
			Validated: cfg.ValidatedTopic,
			Alerts:    cfg.AlertsTopic,
		},
		ClaimTimeout: cfg.ClaimTimeout,
		AlertTimeout: cfg.AlertTimeout,
	}, log)
	defer publisher.Close()

	if !publisher.HealthCheck(ctx) {
		log.Error().Msg("claim streams are not reachable")
		os.Exit(exitcode.BrokerConnError)
	}

	if cfg.ScoreQuality {
		publishQualityAlerts(ctx, log, publisher, batch)
	}

	started := time.Now().UTC()
	result, err := publisher.PublishBatch(ctx, batch)
	finished := time.Now().UTC()
	if err != nil {
		log.Error().Err(err).Msg("batch publish failed")
		os.Exit(exitcode.SendError)
	}

	if cfg.AuditDSN != "" {
		recordAudit(ctx, log, batch, result, started, finished)
	}

	fmt.Printf("Publish complete: %d/%d claims delivered, %d failed (%.1fs)\n",
		result.Successful, result.Total, result.Failed, finished.Sub(started).Seconds())

	switch {
	case result.Successful == 0:
		os.Exit(exitcode.SendError)
	case result.Failed > 0:
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}

// publishQualityAlerts scores every claim and raises an alert for the
// ones below the quality threshold. Scoring problems are logged and
// skipped; they never block the publish itself.
func publishQualityAlerts(ctx context.Context, log zerolog.Logger, publisher *produce.Publisher, batch *model.ClaimBatch) {
	scorer := quality.NewScorer()
	for i := range batch.Claims {
		claim := &batch.Claims[i]
		metrics, err := scorer.Score(claim)
		if err != nil {
			log.Warn().Err(err).Str("claim_id", claim.ClaimID).Msg("quality scoring failed")
			continue
		}
		if !quality.ShouldAlert(metrics) {
			continue
		}
		outcome := publisher.PublishAlert(ctx, produce.Alert{
			Type:     "data_quality",
			Severity: "medium",
			Message:  fmt.Sprintf("claim quality score %.1f below threshold %.1f", metrics.OverallScore, quality.AlertThreshold),
			Metadata: map[string]any{
				"completeness_score": metrics.CompletenessScore,
				"accuracy_score":     metrics.AccuracyScore,
				"validity_score":     metrics.ValidityScore,
				"overall_score":      metrics.OverallScore,
				"missing_fields":     metrics.MissingFields,
			},
		}, claim.ClaimID)
		if !outcome.Delivered() {
			log.Warn().
				Str("claim_id", claim.ClaimID).
				Str("status", string(outcome.Status)).
				Msg("quality alert not delivered")
		}
	}
}

// recordAudit stores the publish run; audit problems abort with their
// own exit code since the tally was already printed to the operator.
func recordAudit(ctx context.Context, log zerolog.Logger, batch *model.ClaimBatch, result produce.BatchResult, started, finished time.Time) {
	registry, err := audit.Open(ctx, cfg.AuditDSN, log)
	if err != nil {
		log.Error().Err(err).Msg("audit registry unavailable")
		os.Exit(exitcode.AuditError)
	}
	defer registry.Close()

	_, err = registry.RecordRun(ctx, audit.PublishRun{
		BatchID:           batch.BatchID,
		BatchNumber:       batch.BatchNumber,
		SourceSystem:      batch.SourceSystem,
		TotalClaims:       result.Total,
		Successful:        result.Successful,
		Failed:            result.Failed,
		TotalBilledAmount: batch.TotalBilledAmount,
		StartedAt:         started,
		FinishedAt:        finished,
	})
	if err != nil {
		log.Error().Err(err).Msg("audit record failed")
		os.Exit(exitcode.AuditError)
	}
}
