package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/leadquery/internal/catalog"
	"github.com/sells-group/leadquery/internal/pipeline"
	anthropicpkg "github.com/sells-group/leadquery/pkg/anthropic"
	"github.com/sells-group/leadquery/pkg/supplement"
)

// initPipeline validates configuration, builds the extraction-backend
// client and the supplementary extractor registry, and wires the
// pipeline. Missing credentials fail here, at the boundary.
func initPipeline() (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !catalog.Has(cfg.Pipeline.DefaultDatabase) {
		zap.L().Warn("configured default database not in catalog, using built-in default",
			zap.String("configured", cfg.Pipeline.DefaultDatabase),
			zap.String("default", catalog.DefaultDatabaseID),
		)
		cfg.Pipeline.DefaultDatabase = catalog.DefaultDatabaseID
	}

	var aiOpts []anthropicpkg.Option
	if cfg.Anthropic.RateLimitRPS > 0 {
		aiOpts = append(aiOpts, anthropicpkg.WithRateLimit(cfg.Anthropic.RateLimitRPS, cfg.Anthropic.RateLimitBurst))
	}
	aiClient := anthropicpkg.NewClient(cfg.Anthropic.Key, aiOpts...)

	extractors := make(map[string]supplement.Extractor, len(cfg.Supplement.Endpoints))
	for ref, baseURL := range cfg.Supplement.Endpoints {
		if baseURL == "" {
			continue
		}
		opts := []supplement.Option{}
		if cfg.Supplement.APIKey != "" {
			opts = append(opts, supplement.WithAPIKey(cfg.Supplement.APIKey))
		}
		if cfg.Supplement.TimeoutSecs > 0 {
			opts = append(opts, supplement.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Supplement.TimeoutSecs) * time.Second,
			}))
		}
		extractors[ref] = supplement.NewClient(baseURL, opts...)
		zap.L().Info("supplementary extractor registered", zap.String("ref", ref))
	}

	return pipeline.New(cfg, aiClient, extractors), nil
}
