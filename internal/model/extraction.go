package model

// MaxJobTitles caps the number of titles the job-title extractor may
// return for a single query.
const MaxJobTitles = 10

// ExtractionBundle is the aggregated output of the extraction stage for
// one query. It is created and discarded within a single request.
type ExtractionBundle struct {
	JobTitles              []string        `json:"job_titles"`
	IndustryKeywords       []string        `json:"industry_keywords"`
	Location               LocationFilters `json:"location"`
	AdditionalFilters      []FilterClause  `json:"additional_filters"`
	HasAdditionalFilters   bool            `json:"has_additional_filters"`
	AdditionalFiltersError string          `json:"additional_filters_error,omitempty"`
}

// ParseRequest is the inbound request shape: a free-text description of
// the desired records, plus an optional answer to an earlier follow-up.
type ParseRequest struct {
	Description      string `json:"description"`
	FollowUpResponse string `json:"follow_up_response,omitempty"`
}

// ParseResult is the pipeline's sole externally visible output. Both the
// classifier's original recommendation and the database actually used
// are retained, since follow-up reconciliation or fallback coercion can
// change the target after the initial classification.
type ParseResult struct {
	RequiresFollowUp bool             `json:"requires_follow_up"`
	Message          string           `json:"message,omitempty"`
	Options          []FollowUpOption `json:"options,omitempty"`

	RecommendedDatabaseID string            `json:"recommended_database_id,omitempty"`
	DatabaseID            string            `json:"database_id,omitempty"`
	Extraction            *ExtractionBundle `json:"extraction,omitempty"`
}
