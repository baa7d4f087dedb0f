package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default stream names, matching the topics provisioned by ensure-topics.
const (
	DefaultRawTopic       = "medical-claims-raw"
	DefaultValidatedTopic = "medical-claims-validated"
	DefaultAlertsTopic    = "medical-claims-alerts"
)

// Config holds all runtime configuration for a claimpub run.
type Config struct {
	Brokers   []string `yaml:"brokers"`
	FilePath  string
	LogFormat string // "text" or "json"

	RawTopic       string `yaml:"raw_topic"`
	ValidatedTopic string `yaml:"validated_topic"`
	AlertsTopic    string `yaml:"alerts_topic"`

	ClaimTimeout time.Duration `yaml:"claim_timeout"`
	AlertTimeout time.Duration `yaml:"alert_timeout"`

	AuditDSN     string `yaml:"audit_dsn"`
	ScoreQuality bool   `yaml:"score_quality"`
}

// yamlConfig is the on-disk YAML structure. Only fields that make sense
// in a file appear here; file paths and log format stay flag-only.
type yamlConfig struct {
	Brokers        []string `yaml:"brokers"`
	RawTopic       string   `yaml:"raw_topic"`
	ValidatedTopic string   `yaml:"validated_topic"`
	AlertsTopic    string   `yaml:"alerts_topic"`
	ClaimTimeout   string   `yaml:"claim_timeout"`
	AlertTimeout   string   `yaml:"alert_timeout"`
	AuditDSN       string   `yaml:"audit_dsn"`
	ScoreQuality   *bool    `yaml:"score_quality"`
}

// LoadFromFile reads a YAML config file and merges its values into
// Config. File values fill only fields the flags left empty, so flags
// always win.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if len(c.Brokers) == 0 {
		c.Brokers = yc.Brokers
	}
	if c.RawTopic == "" {
		c.RawTopic = yc.RawTopic
	}
	if c.ValidatedTopic == "" {
		c.ValidatedTopic = yc.ValidatedTopic
	}
	if c.AlertsTopic == "" {
		c.AlertsTopic = yc.AlertsTopic
	}
	if c.ClaimTimeout == 0 && yc.ClaimTimeout != "" {
		d, err := time.ParseDuration(yc.ClaimTimeout)
		if err != nil {
			return fmt.Errorf("parse claim_timeout: %w", err)
		}
		c.ClaimTimeout = d
	}
	if c.AlertTimeout == 0 && yc.AlertTimeout != "" {
		d, err := time.ParseDuration(yc.AlertTimeout)
		if err != nil {
			return fmt.Errorf("parse alert_timeout: %w", err)
		}
		c.AlertTimeout = d
	}
	if c.AuditDSN == "" {
		c.AuditDSN = yc.AuditDSN
	}
	if yc.ScoreQuality != nil && !c.ScoreQuality {
		c.ScoreQuality = *yc.ScoreQuality
	}
	return nil
}

// ApplyDefaults fills empty topic names with the standard stream names.
func (c *Config) ApplyDefaults() {
	if c.RawTopic == "" {
		c.RawTopic = DefaultRawTopic
	}
	if c.ValidatedTopic == "" {
		c.ValidatedTopic = DefaultValidatedTopic
	}
	if c.AlertsTopic == "" {
		c.AlertsTopic = DefaultAlertsTopic
	}
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("--brokers or a config file brokers list is required")
	}
	return nil
}

// ValidateWithFile additionally checks the batch file argument.
func (c *Config) ValidateWithFile() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}
