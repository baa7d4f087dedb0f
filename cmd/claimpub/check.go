package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimstream/internal/exitcode"
	"github.com/gyeh/claimstream/internal/logging"
	"github.com/gyeh/claimstream/internal/stream"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the claim streams are reachable",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
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

	sender, err := stream.NewKafka(cfg.Brokers)
	if err != nil {
		log.Error().Err(err).Msg("broker connection failed")
		os.Exit(exitcode.BrokerConnError)
	}
	defer sender.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, topic := range []string{cfg.RawTopic, cfg.ValidatedTopic, cfg.AlertsTopic} {
		n, err := sender.Partitions(ctx, topic)
		if err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("stream unreachable")
			os.Exit(exitcode.BrokerConnError)
		}
		fmt.Printf("%s: %d partitions\n", topic, n)
	}
	return nil
}
