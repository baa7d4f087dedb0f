package main

import (
	"github.com/spf13/cobra"

	"github.com/gyeh/claimstream/internal/config"
)

var (
	cfg        config.Config
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "claimpub",
	Short: "Medical claims Kafka publisher",
	Long:  "Validates medical claim batches and publishes them to the claim streams with per-claim delivery tracking.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringSliceVar(&cfg.Brokers, "brokers", nil, "Kafka broker addresses (host:port, repeatable)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&configFile, "config", "", "Path to YAML config file")
}
