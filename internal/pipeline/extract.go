package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadquery/internal/catalog"
	"github.com/sells-group/leadquery/internal/config"
	"github.com/sells-group/leadquery/internal/model"
	"github.com/sells-group/leadquery/internal/resilience"
	"github.com/sells-group/leadquery/pkg/anthropic"
)

const jobTitlesSystemPrompt = `You extract job titles from a free-text request for contact records.

Rules:
- Return up to %d distinct, properly cased job titles that match the request.
- Include common close variants of an asked-for title (e.g. "Software Engineer" and "Software Developer"), but favor precision over filling the list.
- Never append an industry, organization, or company qualifier to a title: "Director of Marketing", not "Director of Marketing at a bank".
- If the request names no role or title, return an empty list.%s

Respond with a valid JSON object: {"job_titles": ["<title>", ...]}`

const industrySystemPrompt = `You extract industry keywords from a free-text request for contact or business records.

Rules:
- Return 0 to 3 keywords suitable for matching against the target's %q column.
- Return keywords ONLY when the request explicitly names an industry or business category. Never infer an industry from job titles, locations, or anything else. When in doubt, return an empty list.

Respond with a valid JSON object: {"industry_keywords": ["<keyword>", ...]}`

const locationSystemPrompt = `You extract the location mentioned in a free-text request for contact or business records.

Rules:
- If no location is mentioned, set has_location to false and omit every other field.
- Expand US state abbreviations to full names ("CA" becomes "California").
- Fill only the components the request actually states; do not infer a country from a city.

Respond with a valid JSON object: {"has_location": <bool>, "city": "<city>", "state": "<state>", "zip": "<zip>", "country": "<country>", "region": "<region>"}`

const screenerSystemPrompt = `You decide whether a free-text request for contact or business records needs filters beyond job title, industry, and location.

Such filters include gender, company size or revenue, named companies, skills, seniority or experience level, education, technologies used, and similar attributes.

Respond with a valid JSON object: {"needs_additional_filters": <bool>, "reasoning": "<one sentence>"}`

// Extractor runs the four schema-constrained field extraction calls. Each
// call fails soft to its documented empty default: extraction degrades,
// it never aborts a sibling.
type Extractor struct {
	ai     anthropic.Client
	aiCfg  config.AnthropicConfig
	policy resilience.CallPolicy
}

// NewExtractor builds an Extractor.
func NewExtractor(ai anthropic.Client, aiCfg config.AnthropicConfig, policy resilience.CallPolicy) *Extractor {
	return &Extractor{ai: ai, aiCfg: aiCfg, policy: policy}
}

// JobTitles extracts up to model.MaxJobTitles deduplicated titles.
func (e *Extractor) JobTitles(ctx context.Context, query string, db catalog.Database) []string {
	var hint string
	if db.Columns.JobTitleColumnHint != "" {
		hint = fmt.Sprintf("\n- Titles are matched against the target's %q column.", db.Columns.JobTitleColumnHint)
	}
	prompt := fmt.Sprintf(jobTitlesSystemPrompt, model.MaxJobTitles, hint)

	text, err := e.call(ctx, "extract_job_titles", prompt, query)
	if err != nil {
		zap.L().Warn("extract: job title call failed", zap.Error(err))
		return nil
	}

	var raw struct {
		JobTitles []string `json:"job_titles"`
	}
	if err := json.Unmarshal([]byte(anthropic.CleanJSON(text)), &raw); err != nil {
		zap.L().Warn("extract: job title response malformed", zap.Error(err))
		return nil
	}

	return dedupeTitles(raw.JobTitles)
}

// IndustryKeywords extracts 0-3 explicitly named industry keywords. An
// empty result for queries without an explicit industry term is a hard
// contract, enforced by the prompt and trusted downstream.
func (e *Extractor) IndustryKeywords(ctx context.Context, query string, db catalog.Database) []string {
	prompt := fmt.Sprintf(industrySystemPrompt, db.Columns.IndustryColumn)

	text, err := e.call(ctx, "extract_industry", prompt, query)
	if err != nil {
		zap.L().Warn("extract: industry call failed", zap.Error(err))
		return nil
	}

	var raw struct {
		IndustryKeywords []string `json:"industry_keywords"`
	}
	if err := json.Unmarshal([]byte(anthropic.CleanJSON(text)), &raw); err != nil {
		zap.L().Warn("extract: industry response malformed", zap.Error(err))
		return nil
	}

	keywords := make([]string, 0, len(raw.IndustryKeywords))
	for _, k := range raw.IndustryKeywords {
		k = strings.TrimSpace(k)
		if k != "" {
			keywords = append(keywords, k)
		}
		if len(keywords) == 3 {
			break
		}
	}
	return keywords
}

// Location extracts the location components mentioned in the query.
func (e *Extractor) Location(ctx context.Context, query string) model.LocationComponents {
	text, err := e.call(ctx, "extract_location", locationSystemPrompt, query)
	if err != nil {
		zap.L().Warn("extract: location call failed", zap.Error(err))
		return model.LocationComponents{}
	}

	var components model.LocationComponents
	if err := json.Unmarshal([]byte(anthropic.CleanJSON(text)), &components); err != nil {
		zap.L().Warn("extract: location response malformed", zap.Error(err))
		return model.LocationComponents{}
	}

	if !components.HasLocation {
		// All component fields are absent when no location is mentioned.
		return model.LocationComponents{}
	}
	return components
}

// ScreenAdditionalFilters decides whether the query needs filters beyond
// title, industry, and location.
func (e *Extractor) ScreenAdditionalFilters(ctx context.Context, query string) (bool, string) {
	text, err := e.call(ctx, "screen_additional", screenerSystemPrompt, query)
	if err != nil {
		zap.L().Warn("extract: screener call failed", zap.Error(err))
		return false, ""
	}

	var raw struct {
		NeedsAdditionalFilters bool   `json:"needs_additional_filters"`
		Reasoning              string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(anthropic.CleanJSON(text)), &raw); err != nil {
		zap.L().Warn("extract: screener response malformed", zap.Error(err))
		return false, ""
	}

	return raw.NeedsAdditionalFilters, raw.Reasoning
}

// call issues one deterministic extraction call under the retry policy.
func (e *Extractor) call(ctx context.Context, operation, systemPrompt, query string) (string, error) {
	temperature := 0.0
	req := anthropic.MessageRequest{
		Model:       e.aiCfg.Model,
		MaxTokens:   512,
		System:      anthropic.BuildCachedSystemBlocks(systemPrompt),
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: "user", Content: query},
		},
	}

	resp, err := resilience.Call(ctx, e.policy, operation, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.ai.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return anthropic.Text(resp), nil
}

// dedupeTitles trims, removes case-insensitive duplicates, and caps the
// list at model.MaxJobTitles, preserving first-seen order.
func dedupeTitles(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	var out []string
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
		if len(out) == model.MaxJobTitles {
			break
		}
	}
	return out
}
