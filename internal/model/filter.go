package model

// FilterOperator is the comparison applied by a filter clause.
type FilterOperator string

// Filter operators supported by every target database.
const (
	OperatorContains   FilterOperator = "CONTAINS"
	OperatorEquals     FilterOperator = "EQUALS"
	OperatorIsEmpty    FilterOperator = "IS_EMPTY"
	OperatorIsNotEmpty FilterOperator = "IS_NOT_EMPTY"
)

// ComponentKind identifies which semantic part of the query a filter
// clause was derived from.
type ComponentKind string

// Component kinds emitted by the extraction stage.
const (
	ComponentCity     ComponentKind = "city"
	ComponentState    ComponentKind = "state"
	ComponentZip      ComponentKind = "zip"
	ComponentCountry  ComponentKind = "country"
	ComponentRegion   ComponentKind = "region"
	ComponentIndustry ComponentKind = "industry"
	ComponentJobTitle ComponentKind = "job_title"
	ComponentOther    ComponentKind = "other"
)

// FilterClause is a single executable filter against one column of the
// resolved target database.
type FilterClause struct {
	Column   string         `json:"column"`
	Operator FilterOperator `json:"operator"`
	Values   []string       `json:"values"`
	Kind     ComponentKind  `json:"kind"`
}

// LocationComponents holds the location parts extracted from a query.
// All component fields are empty when HasLocation is false.
type LocationComponents struct {
	HasLocation bool   `json:"has_location"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	Region      string `json:"region,omitempty"`
}

// LocationFilters pairs the extracted components with the clauses
// synthesized against the resolved target's location columns.
type LocationFilters struct {
	Components LocationComponents `json:"components"`
	Filters    []FilterClause     `json:"filters"`
}
