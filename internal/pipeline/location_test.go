package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadquery/internal/catalog"
	"github.com/sells-group/leadquery/internal/model"
)

func TestSynthesizeLocationFilters_NoLocation(t *testing.T) {
	db := mustGet(t, "usa_professionals")
	filters := SynthesizeLocationFilters(model.LocationComponents{}, db.Columns)
	assert.Nil(t, filters)
}

func TestSynthesizeLocationFilters_CityAndState(t *testing.T) {
	db := mustGet(t, "usa_professionals")
	components := model.LocationComponents{
		HasLocation: true,
		City:        "San Francisco",
		State:       "California",
	}

	filters := SynthesizeLocationFilters(components, db.Columns)

	var cityColumns, stateColumns []string
	for _, f := range filters {
		assert.Equal(t, model.OperatorContains, f.Operator)
		assert.Contains(t, db.Columns.LocationColumns, f.Column)
		switch f.Kind {
		case model.ComponentCity:
			cityColumns = append(cityColumns, f.Column)
			assert.Equal(t, []string{"San Francisco"}, f.Values)
		case model.ComponentState:
			stateColumns = append(stateColumns, f.Column)
			assert.Equal(t, []string{"California"}, f.Values)
		}
	}
	assert.NotEmpty(t, cityColumns)
	assert.NotEmpty(t, stateColumns)
}

func TestSynthesizeLocationFilters_CityFansOutAcrossColumns(t *testing.T) {
	// usa_local_businesses denormalizes city-ish data across Locality
	// and Location; one component yields one clause per matching column.
	db := mustGet(t, "usa_local_businesses")
	components := model.LocationComponents{HasLocation: true, City: "Austin"}

	filters := SynthesizeLocationFilters(components, db.Columns)

	assert.Equal(t, []model.FilterClause{
		{Column: "Locality", Operator: model.OperatorContains, Values: []string{"Austin"}, Kind: model.ComponentCity},
		{Column: "Location", Operator: model.OperatorContains, Values: []string{"Austin"}, Kind: model.ComponentCity},
	}, filters)
}

func TestSynthesizeLocationFilters_ColumnDeclarationOrderPreserved(t *testing.T) {
	profile := catalog.ColumnProfile{
		LocationColumns: []string{"Metro Region", "City", "Locality"},
	}
	components := model.LocationComponents{HasLocation: true, City: "Denver"}

	filters := SynthesizeLocationFilters(components, profile)

	columns := make([]string, len(filters))
	for i, f := range filters {
		columns[i] = f.Column
	}
	assert.Equal(t, []string{"Metro Region", "City", "Locality"}, columns)
}

func TestSynthesizeLocationFilters_ZipAndCountry(t *testing.T) {
	db := mustGet(t, "global_professionals")
	components := model.LocationComponents{
		HasLocation: true,
		Zip:         "94105",
		Country:     "Germany",
	}

	filters := SynthesizeLocationFilters(components, db.Columns)

	assert.Equal(t, []model.FilterClause{
		{Column: "Postal Code", Operator: model.OperatorContains, Values: []string{"94105"}, Kind: model.ComponentZip},
		{Column: "Country", Operator: model.OperatorContains, Values: []string{"Germany"}, Kind: model.ComponentCountry},
	}, filters)
}

func TestSynthesizeLocationFilters_StateMatchesProvinceColumn(t *testing.T) {
	db := mustGet(t, "global_professionals")
	components := model.LocationComponents{HasLocation: true, State: "Ontario"}

	filters := SynthesizeLocationFilters(components, db.Columns)

	columns := make([]string, len(filters))
	for i, f := range filters {
		columns[i] = f.Column
	}
	// "state" matches "State / Province", "region" matches "Region".
	assert.Equal(t, []string{"State / Province", "Region"}, columns)
}
