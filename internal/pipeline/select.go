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

const selectSystemPromptHeader = `You route a free-text request for contact or business records to exactly one target database, or ask one clarifying question when no target is a safe fit.

Target databases:
%s
Selection rules:
- Queries about individual professionals (people, job titles, roles) go to a professionals database; queries about businesses as entities (shops, service companies, storefronts) go to the local business database.
- The local business database covers US businesses only. A query naming a local business outside the US must not be routed there.
- Queries that explicitly ask for email addresses go to a database whose focus includes emails.
- Queries with no stated geography that could be domestic or international are ambiguous.
- Consumer (B2C) audiences are not covered by any database.

Prefer a clarifying follow-up over a likely-wrong guess when any of these hold:
- the query names a local business outside the US
- it is unclear whether the user wants professionals or businesses
- geography is unstated and could be domestic or international
- the stated requirements conflict with each other
- the query requests attributes no database supports
- the query is clearly consumer-oriented

Respond with a valid JSON object, one of:
{"status": "resolved", "database_id": "<id>"}
{"status": "needs_follow_up", "message": "<one short question>", "options": [{"label": "<text>", "value": "<text>", "database_id": "<id if the option maps directly to a database>"}]}`

// Selector implements the selection stage: it classifies a query into a
// resolved target database or a clarifying follow-up, and reconciles
// follow-up answers. A query triggers at most two classifier calls before
// resolution is forced to the default database.
type Selector struct {
	ai           anthropic.Client
	aiCfg        config.AnthropicConfig
	defaultID    string
	policy       resilience.CallPolicy
	systemBlocks []anthropic.SystemBlock
}

// NewSelector builds a Selector over the full catalog.
func NewSelector(ai anthropic.Client, aiCfg config.AnthropicConfig, defaultID string, policy resilience.CallPolicy) *Selector {
	var sb strings.Builder
	for _, db := range catalog.All() {
		fmt.Fprintf(&sb, "- %s: %s\n", db.ID, db.FocusDescription)
	}
	prompt := fmt.Sprintf(selectSystemPromptHeader, sb.String())

	return &Selector{
		ai:           ai,
		aiCfg:        aiCfg,
		defaultID:    defaultID,
		policy:       policy,
		systemBlocks: anthropic.BuildCachedSystemBlocks(prompt),
	}
}

// Outcome pairs the decision actually used with the classifier's own
// recommendation, which can differ after follow-up reconciliation or
// fallback coercion.
type Outcome struct {
	Decision      model.SelectionDecision
	RecommendedID string
}

// Select runs the selection state machine. With no follow-up answer it
// classifies the query alone; the result may be a follow-up request. With
// a follow-up answer it reconciles: an answer naming a known database id
// resolves immediately with zero classifier calls, anything else is
// re-classified once as a combined query, and a second follow-up verdict
// is forced to the default database.
func (s *Selector) Select(ctx context.Context, query, followUpAnswer string) Outcome {
	if followUpAnswer != "" {
		if id, ok := s.matchDatabaseID(followUpAnswer); ok {
			zap.L().Debug("select: follow-up answer named a database",
				zap.String("database_id", id),
			)
			return Outcome{Decision: model.ResolvedDecision(id), RecommendedID: id}
		}

		combined := query + "\n\nClarification from the user: " + followUpAnswer
		decision := s.classify(ctx, combined)
		if !decision.Resolved() {
			// Second follow-up in a row: terminate at the default.
			zap.L().Info("select: still ambiguous after follow-up, forcing default",
				zap.String("database_id", s.defaultID),
			)
			return Outcome{Decision: model.ResolvedDecision(s.defaultID)}
		}
		return Outcome{Decision: decision, RecommendedID: decision.DatabaseID}
	}

	decision := s.classify(ctx, query)
	return Outcome{Decision: decision, RecommendedID: decision.DatabaseID}
}

// matchDatabaseID checks whether the answer names a known database id.
// Clients that pick a follow-up option carrying a database id send that
// id back verbatim, which is what short-circuits the second classifier
// call.
func (s *Selector) matchDatabaseID(answer string) (string, bool) {
	trimmed := strings.TrimSpace(answer)
	for _, db := range catalog.All() {
		if strings.EqualFold(trimmed, db.ID) {
			return db.ID, true
		}
	}
	return "", false
}

// classify issues one classifier call. Any error is coerced to a resolved
// decision on the default database so the pipeline always has a target.
func (s *Selector) classify(ctx context.Context, query string) model.SelectionDecision {
	temperature := 0.0
	req := anthropic.MessageRequest{
		Model:       s.aiCfg.Model,
		MaxTokens:   1024,
		System:      s.systemBlocks,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: "user", Content: query},
		},
	}

	resp, err := resilience.Call(ctx, s.policy, "select", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return s.ai.CreateMessage(ctx, req)
	})
	if err != nil {
		zap.L().Warn("select: classifier call failed, using default database",
			zap.String("database_id", s.defaultID),
			zap.Error(err),
		)
		return model.ResolvedDecision(s.defaultID)
	}

	return s.parseDecision(anthropic.Text(resp))
}

// parseDecision validates the classifier's tagged-union output. Malformed
// output or an unknown database id degrades to the default database.
func (s *Selector) parseDecision(text string) model.SelectionDecision {
	text = anthropic.CleanJSON(text)

	var raw struct {
		Status     string `json:"status"`
		DatabaseID string `json:"database_id"`
		Message    string `json:"message"`
		Options    []struct {
			Label      string `json:"label"`
			Value      string `json:"value"`
			DatabaseID string `json:"database_id"`
		} `json:"options"`
	}

	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		zap.L().Warn("select: classifier returned malformed JSON, using default database",
			zap.String("database_id", s.defaultID),
			zap.Error(err),
		)
		return model.ResolvedDecision(s.defaultID)
	}

	switch raw.Status {
	case string(model.DecisionResolved):
		if !catalog.Has(raw.DatabaseID) {
			zap.L().Warn("select: classifier resolved an unknown database, using default",
				zap.String("classifier_id", raw.DatabaseID),
				zap.String("database_id", s.defaultID),
			)
			return model.ResolvedDecision(s.defaultID)
		}
		return model.ResolvedDecision(raw.DatabaseID)

	case string(model.DecisionNeedsFollowUp):
		options := make([]model.FollowUpOption, 0, len(raw.Options))
		for _, o := range raw.Options {
			opt := model.FollowUpOption{Label: o.Label, Value: o.Value}
			if catalog.Has(o.DatabaseID) {
				opt.DatabaseID = o.DatabaseID
			}
			options = append(options, opt)
		}
		return model.FollowUpDecision(raw.Message, options)

	default:
		zap.L().Warn("select: classifier returned unknown status, using default database",
			zap.String("status", raw.Status),
			zap.String("database_id", s.defaultID),
		)
		return model.ResolvedDecision(s.defaultID)
	}
}
