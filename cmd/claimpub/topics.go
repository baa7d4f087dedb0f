package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimstream/internal/exitcode"
	"github.com/gyeh/claimstream/internal/logging"
	"github.com/gyeh/claimstream/internal/stream"
)

var replicationFactor int

var topicsCmd = &cobra.Command{
	Use:   "ensure-topics",
	Short: "Provision the claim stream topics (idempotent)",
	RunE:  runEnsureTopics,
}

func init() {
	topicsCmd.Flags().IntVar(&replicationFactor, "replication-factor", 1, "Replication factor for created topics")
	rootCmd.AddCommand(topicsCmd)
}

func runEnsureTopics(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			log.Error().Err(err).Msg("config file failed")
			os.Exit(exitcode.UsageError)
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	specs := stream.DefaultTopicSpecs(cfg.RawTopic, cfg.ValidatedTopic, cfg.AlertsTopic, replicationFactor)
	if err := stream.EnsureTopics(ctx, cfg.Brokers, log, specs); err != nil {
		log.Error().Err(err).Msg("topic provisioning failed")
		os.Exit(exitcode.BrokerConnError)
	}

	log.Info().Int("topics", len(specs)).Msg("claim streams provisioned")
	return nil
}
