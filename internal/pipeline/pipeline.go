// Package pipeline turns a free-text description of desired contact or
// business records into a resolved target database and an executable set
// of filter clauses scoped to that target's columns.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadquery/internal/catalog"
	"github.com/sells-group/leadquery/internal/config"
	"github.com/sells-group/leadquery/internal/model"
	"github.com/sells-group/leadquery/internal/resilience"
	"github.com/sells-group/leadquery/pkg/anthropic"
	"github.com/sells-group/leadquery/pkg/supplement"
)

// Pipeline orchestrates selection, field extraction, location synthesis,
// and supplementary dispatch for one request at a time. It holds no
// per-request state, so a single instance serves all requests.
type Pipeline struct {
	selector    *Selector
	extractor   *Extractor
	supplements map[string]supplement.Extractor
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, ai anthropic.Client, supplements map[string]supplement.Extractor) *Pipeline {
	policy := resilience.DefaultCallPolicy()
	if cfg.Anthropic.TimeoutSecs > 0 {
		policy.Timeout = time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second
	}
	if cfg.Anthropic.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Anthropic.MaxAttempts
	}

	defaultID := cfg.Pipeline.DefaultDatabase
	if defaultID == "" {
		defaultID = catalog.DefaultDatabaseID
	}

	return &Pipeline{
		selector:    NewSelector(ai, cfg.Anthropic, defaultID, policy),
		extractor:   NewExtractor(ai, cfg.Anthropic, policy),
		supplements: supplements,
	}
}

// Run executes the full parse pipeline for one request: selection stage,
// then the four field extractors fanned out concurrently, then the
// conditional supplementary dispatch, aggregated into one result.
//
// Only validation errors escape as hard failures; every extraction-stage
// error has already been absorbed into a documented default by the time
// Run aggregates.
func (p *Pipeline) Run(ctx context.Context, req model.ParseRequest) (*model.ParseResult, error) {
	query := strings.TrimSpace(req.Description)
	if query == "" {
		return nil, ErrMissingQuery
	}

	log := zap.L().With(zap.String("stage", "pipeline"))
	start := time.Now()

	outcome := p.selector.Select(ctx, query, strings.TrimSpace(req.FollowUpResponse))

	if !outcome.Decision.Resolved() {
		log.Info("pipeline: query needs follow-up",
			zap.Int("options", len(outcome.Decision.Options)),
		)
		return &model.ParseResult{
			RequiresFollowUp: true,
			Message:          outcome.Decision.Message,
			Options:          outcome.Decision.Options,
		}, nil
	}

	db, err := catalog.Get(outcome.Decision.DatabaseID)
	if err != nil {
		// The selector only resolves ids it validated, so this is a
		// routing error in the catalog wiring itself.
		return nil, eris.Wrap(err, "pipeline: resolve database")
	}

	recommended := outcome.RecommendedID
	if recommended == "" {
		recommended = db.ID
	}

	log = log.With(zap.String("database_id", db.ID))

	// Fan out the four field extractors. Each soft-fails internally and
	// writes to its own variable, so no lock and no error handling here.
	var (
		jobTitles        []string
		industryKeywords []string
		components       model.LocationComponents
		needsSupplement  bool
		screenReasoning  string
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jobTitles = p.extractor.JobTitles(gCtx, query, db)
		return nil
	})
	g.Go(func() error {
		industryKeywords = p.extractor.IndustryKeywords(gCtx, query, db)
		return nil
	})
	g.Go(func() error {
		components = p.extractor.Location(gCtx, query)
		return nil
	})
	g.Go(func() error {
		needsSupplement, screenReasoning = p.extractor.ScreenAdditionalFilters(gCtx, query)
		return nil
	})
	_ = g.Wait()

	bundle := &model.ExtractionBundle{
		JobTitles:        jobTitles,
		IndustryKeywords: industryKeywords,
		Location: model.LocationFilters{
			Components: components,
			Filters:    SynthesizeLocationFilters(components, db.Columns),
		},
		AdditionalFilters: []model.FilterClause{},
	}

	// Supplementary dispatch depends on the screener's verdict, so it
	// runs after the join, never alongside the four extractors.
	if needsSupplement {
		log.Debug("pipeline: dispatching supplementary extractor",
			zap.String("reasoning", screenReasoning),
		)
		sup := DispatchSupplement(ctx, query, db, p.supplements)
		bundle.HasAdditionalFilters = sup.HasAdditionalFilters
		if sup.HasAdditionalFilters {
			bundle.AdditionalFilters = sup.AdditionalFilters
		}
		bundle.AdditionalFiltersError = sup.Error
	}

	log.Info("pipeline: parse complete",
		zap.String("recommended_database_id", recommended),
		zap.Int("job_titles", len(bundle.JobTitles)),
		zap.Int("industry_keywords", len(bundle.IndustryKeywords)),
		zap.Bool("has_location", bundle.Location.Components.HasLocation),
		zap.Int("location_filters", len(bundle.Location.Filters)),
		zap.Bool("has_additional_filters", bundle.HasAdditionalFilters),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &model.ParseResult{
		RecommendedDatabaseID: recommended,
		DatabaseID:            db.ID,
		Extraction:            bundle,
	}, nil
}
