package configuration

import (
	"coach/internal/diagnostic"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Logger: logger component configuration
	Logger LoggerConfig `mapstructure:"logger"`
	// Facts: fact dataset configuration
	Facts FactsConfig `mapstructure:"facts"`
	// Rules: declarative models configuration
	Rules RulesConfig `mapstructure:"rules"`
	// Engine: scoring and diagnostic configuration
	Engine EngineConfig `mapstructure:"engine"`
	// Audit: diagnostic trail configuration
	Audit AuditConfig `mapstructure:"audit"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level: log level: debug, info, warn, warning, error.
	// Value is case-insensitive but checked in lowercase.
	Level string `mapstructure:"level"`
	// File: log file path (optional, logs go to stderr when empty)
	File string `mapstructure:"file"`
	// Size: maximal log file size in MB (default 100)
	Size int `mapstructure:"size"`
	// Amount: number of rotated log files kept (default 5)
	Amount int `mapstructure:"amount"`
}

// FactsConfig defines where facts are read from.
type FactsConfig struct {
	// File: path to the YAML dataset (collection -> key -> document).
	File string `mapstructure:"file"`
	// CacheSize: number of documents kept in the process-wide lookup cache (default 4096).
	CacheSize int `mapstructure:"cache_size"`
}

// RulesConfig defines the declarative models.
type RulesConfig struct {
	// File: path to the file with CEL rules in YAML format (optional).
	File string `mapstructure:"file"`
}

// EngineConfig defines scoring and diagnostic parameters.
type EngineConfig struct {
	// Combine: rule deriving the overall diagnostic: minimum, average, sum, weighted-average.
	Combine string `mapstructure:"combine"`
	// SubmetricWeights: weights of the weighted-average rule, by submetric.
	SubmetricWeights map[string]float64 `mapstructure:"submetric_weights"`
	// FallbackScore: score returned for unknown models, within [0, 3].
	FallbackScore float64 `mapstructure:"fallback_score"`
	// ExampleCapacity: number of examples kept per category (default 3).
	ExampleCapacity int `mapstructure:"example_capacity"`
	// Seed: seed of the example sampling; 0 means random.
	Seed uint64 `mapstructure:"seed"`
	// Scorers: models contributing to the diagnostic submetrics.
	Scorers []diagnostic.SubmetricScorer `mapstructure:"scorers"`
}

// AuditConfig defines the diagnostic trail parameters.
type AuditConfig struct {
	// Audit file path (optional)
	File string `mapstructure:"file"`
	// Maximal audit file size (default 100M)
	Size int `mapstructure:"size"`
	// Number of audit files (default 20)
	Amount int `mapstructure:"amount"`
}

// Validate checks the correctness of the entire application configuration.
// Calls validation for each nested structure and returns the first detected error.
// Returns nil if the configuration is valid.
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if err := c.Facts.Validate(); err != nil {
		return err
	}

	if err := c.Engine.Validate(); err != nil {
		return err
	}

	if err := c.Audit.Validate(); err != nil {
		return err
	}

	return nil
}

// Validate checks the correctness of the logger configuration.
// Verifies that the log level is set and is one of the supported values.
// Supported values: debug, info, warn, warning, error (case-insensitive).
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	if l.Size == 0 {
		l.Size = 100
	}

	if l.Amount == 0 {
		l.Amount = 5
	}

	return nil
}

// Validate checks that a dataset is configured.
func (f *FactsConfig) Validate() error {
	if f.File == "" {
		return errors.New("facts.file: must be specified")
	}

	if f.CacheSize < 0 {
		return errors.New("facts.cache_size: must not be negative")
	}

	if f.CacheSize == 0 {
		f.CacheSize = 4096
	}

	return nil
}

// Validate checks the combination rule, the fallback score and every scorer.
func (e *EngineConfig) Validate() error {
	if _, err := diagnostic.CombineByName(e.Combine, e.SubmetricWeights); err != nil {
		return fmt.Errorf("engine.combine: %w", err)
	}

	for name, weight := range e.SubmetricWeights {
		if weight < 0 {
			return fmt.Errorf("engine.submetric_weights.%s: must not be negative", name)
		}
	}

	if e.FallbackScore < 0 || e.FallbackScore > 3 {
		return fmt.Errorf("engine.fallback_score: %v out of [0, 3]", e.FallbackScore)
	}

	if e.ExampleCapacity < 0 {
		return errors.New("engine.example_capacity: must not be negative")
	}

	if e.ExampleCapacity == 0 {
		e.ExampleCapacity = 3
	}

	for i := range e.Scorers {
		if e.Scorers[i].Weight == 0 {
			e.Scorers[i].Weight = 1
		}
		if err := e.Scorers[i].Validate(); err != nil {
			return fmt.Errorf("engine.scorers[%d]: %w", i, err)
		}
	}

	return nil
}

// Validate audit parameters
func (a *AuditConfig) Validate() error {
	if a.Amount == 0 {
		a.Amount = 20
	}

	if a.Size == 0 {
		a.Size = 100
	}

	return nil
}

// LoadConfig loads configuration from the specified file using Viper.
// Supports YAML format. Also includes environment variable loading (AutomaticEnv),
// which can override values from the file: LOGGER_LEVEL overrides logger.level.
//
// Parameter configPath: path to the configuration file.
//
// Returns a pointer to AppConfig or an error if:
// - the file is not found or inaccessible
// - the configuration has invalid format
// - one of the sections fails validation
func LoadConfig(configPath string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
