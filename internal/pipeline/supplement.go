package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadquery/internal/catalog"
	"github.com/sells-group/leadquery/internal/model"
	"github.com/sells-group/leadquery/pkg/supplement"
)

// supplementFailureMessage is the explicit marker recorded when a
// supplementary extractor call fails. The request still succeeds.
const supplementFailureMessage = "supplementary filter extraction failed"

// SupplementResult is the merged outcome of a supplementary dispatch.
type SupplementResult struct {
	HasAdditionalFilters bool
	AdditionalFilters    []model.FilterClause
	Error                string
}

// DispatchSupplement invokes the target's registered supplementary
// extractor. Callers invoke it only when the screener said the query
// needs filters beyond title, industry, and location. A target with no
// registered extractor, a failing call, or a negative extractor verdict
// all yield the empty result; dispatch never fails the request.
func DispatchSupplement(ctx context.Context, query string, db catalog.Database, extractors map[string]supplement.Extractor) SupplementResult {
	if db.SupplementRef == "" {
		return SupplementResult{}
	}

	extractor, ok := extractors[db.SupplementRef]
	if !ok {
		zap.L().Debug("supplement: no extractor configured",
			zap.String("database_id", db.ID),
			zap.String("ref", db.SupplementRef),
		)
		return SupplementResult{}
	}

	result, err := extractor.Extract(ctx, query)
	if err != nil {
		zap.L().Warn("supplement: extractor call failed",
			zap.String("database_id", db.ID),
			zap.String("ref", db.SupplementRef),
			zap.Error(err),
		)
		return SupplementResult{Error: supplementFailureMessage}
	}

	if !result.HasAdditionalFilters {
		return SupplementResult{}
	}

	filters := make([]model.FilterClause, 0, len(result.AdditionalFilters))
	for _, f := range result.AdditionalFilters {
		filters = append(filters, model.FilterClause{
			Column:   f.Column,
			Operator: parseOperator(f.Operator),
			Values:   f.Values,
			Kind:     parseKind(f.Kind),
		})
	}

	return SupplementResult{
		HasAdditionalFilters: true,
		AdditionalFilters:    filters,
	}
}

func parseOperator(op string) model.FilterOperator {
	switch model.FilterOperator(op) {
	case model.OperatorContains, model.OperatorEquals, model.OperatorIsEmpty, model.OperatorIsNotEmpty:
		return model.FilterOperator(op)
	default:
		return model.OperatorContains
	}
}

func parseKind(kind string) model.ComponentKind {
	if kind == "" {
		return model.ComponentOther
	}
	return model.ComponentKind(kind)
}
