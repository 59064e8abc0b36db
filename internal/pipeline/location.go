package pipeline

import (
	"strings"

	"github.com/sells-group/leadquery/internal/catalog"
	"github.com/sells-group/leadquery/internal/model"
)

// componentOrder fixes the order in which location components are
// considered, so synthesized clauses are deterministic.
var componentOrder = []model.ComponentKind{
	model.ComponentCity,
	model.ComponentState,
	model.ComponentZip,
	model.ComponentCountry,
	model.ComponentRegion,
}

// SynthesizeLocationFilters maps extracted location components onto a
// target's location columns. For each present component, every column
// whose name contains one of the component's keywords gets a CONTAINS
// clause, in column declaration order. One component fanning out into
// several clauses is intentional: target schemas denormalize location
// across multiple columns.
func SynthesizeLocationFilters(components model.LocationComponents, profile catalog.ColumnProfile) []model.FilterClause {
	if !components.HasLocation {
		return nil
	}

	var filters []model.FilterClause
	for _, kind := range componentOrder {
		value := componentValue(components, kind)
		if value == "" {
			continue
		}
		keywords := catalog.LocationKeywords(kind)
		for _, column := range profile.LocationColumns {
			if columnMatches(column, keywords) {
				filters = append(filters, model.FilterClause{
					Column:   column,
					Operator: model.OperatorContains,
					Values:   []string{value},
					Kind:     kind,
				})
			}
		}
	}
	return filters
}

func componentValue(components model.LocationComponents, kind model.ComponentKind) string {
	switch kind {
	case model.ComponentCity:
		return components.City
	case model.ComponentState:
		return components.State
	case model.ComponentZip:
		return components.Zip
	case model.ComponentCountry:
		return components.Country
	case model.ComponentRegion:
		return components.Region
	}
	return ""
}

// columnMatches does the case-insensitive substring check against the
// component's keyword vocabulary.
func columnMatches(column string, keywords []string) bool {
	lower := strings.ToLower(column)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
