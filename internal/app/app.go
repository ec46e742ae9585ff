// Package app wires configuration into the services shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/upi-finance-tracker/internal/categorizer"
	"github.com/dvloznov/upi-finance-tracker/internal/config"
	"github.com/dvloznov/upi-finance-tracker/internal/gcs"
	"github.com/dvloznov/upi-finance-tracker/internal/logger"
	"github.com/dvloznov/upi-finance-tracker/internal/parsers"
	"github.com/dvloznov/upi-finance-tracker/internal/pipeline"
)

// Services holds the long-lived components built from configuration.
type Services struct {
	Config      *config.Config
	Taxonomy    *categorizer.Taxonomy
	Categorizer *categorizer.Categorizer
	Storage     *gcs.Client
	Processor   *pipeline.Processor
}

// New builds the statement services. A missing AI key disables the
// classifier rather than failing; rule-based categorization still runs.
func New(ctx context.Context, cfg *config.Config) (*Services, error) {
	log := logger.FromContext(ctx)

	tax, err := categorizer.DefaultTaxonomy()
	if err != nil {
		return nil, fmt.Errorf("app.New: loading taxonomy: %w", err)
	}

	opts := []categorizer.Option{
		categorizer.WithConcurrency(cfg.Categorizer.Concurrency),
		categorizer.WithTimeout(cfg.AI.Timeout),
		categorizer.WithRateLimit(cfg.AI.RequestsPerSecond, cfg.AI.Burst),
	}
	if cfg.AIConfigured() {
		classifier, err := categorizer.NewGeminiClassifier(ctx, categorizer.GeminiConfig{
			APIKey: cfg.AI.APIKey,
			Model:  cfg.AI.Model,
		})
		switch {
		case errors.Is(err, categorizer.ErrClassifierUnavailable):
			log.Warn().Err(err).Msg("AI categorization disabled")
		case err != nil:
			return nil, fmt.Errorf("app.New: creating classifier: %w", err)
		default:
			opts = append(opts, categorizer.WithClassifier(classifier))
			log.Info().Str("model", cfg.AI.Model).Msg("AI categorization enabled")
		}
	} else {
		log.Info().Msg("AI categorization not configured; using rules only")
	}
	cat := categorizer.New(tax, opts...)

	storage := gcs.NewClient(cfg.Storage.CredentialsFile, cfg.Upload.MaxBytes)
	chain := parsers.DefaultChain(cfg.ParserOptions())

	return &Services{
		Config:      cfg,
		Taxonomy:    tax,
		Categorizer: cat,
		Storage:     storage,
		Processor:   pipeline.NewProcessor(chain, cat, storage),
	}, nil
}
