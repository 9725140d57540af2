package engine

import (
	"coach/internal/audit"
	"coach/internal/configuration"
	"coach/internal/facts"
	"coach/internal/models"
	"coach/internal/scoring"
	"coach/internal/scoring/rule"
	"fmt"
	"log/slog"
)

// Build wires an engine from the application configuration: the cached fact dataset, the
// built-in and declarative models, and the audit trail.
func Build(config *configuration.AppConfig, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dataset, err := facts.LoadMemoryStoreFromFile(config.Facts.File)
	if err != nil {
		return nil, fmt.Errorf("loading facts: %w", err)
	}
	store, err := facts.NewCachedStore(dataset, config.Facts.CacheSize)
	if err != nil {
		return nil, err
	}

	registry := scoring.NewRegistry(logger)
	if err := models.RegisterAll(registry); err != nil {
		return nil, fmt.Errorf("registering models: %w", err)
	}
	if config.Rules.File != "" {
		rules, err := rule.LoadFromFile(config.Rules.File)
		if err != nil {
			return nil, fmt.Errorf("loading rules: %w", err)
		}
		if err := rule.RegisterAll(registry, rules); err != nil {
			return nil, fmt.Errorf("registering rules: %w", err)
		}
		logger.Info("Rules loaded", "file", config.Rules.File, "count", len(rules))
	}

	var trail audit.Trail = audit.Discard{}
	if config.Audit.File != "" {
		trail = audit.NewJSONTrail(config.Audit.File, config.Audit.Size, config.Audit.Amount)
	}

	return New(config.Engine, registry, store, logger, trail)
}
