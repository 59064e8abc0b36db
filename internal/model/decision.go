package model

// DecisionStatus discriminates the two SelectionDecision variants.
type DecisionStatus string

// Selection decision variants.
const (
	DecisionResolved      DecisionStatus = "resolved"
	DecisionNeedsFollowUp DecisionStatus = "needs_follow_up"
)

// FollowUpOption is one selectable answer offered with a clarifying
// question. When DatabaseID is set, choosing the option resolves the
// target directly without another classifier call.
type FollowUpOption struct {
	Label      string `json:"label"`
	Value      string `json:"value"`
	DatabaseID string `json:"database_id,omitempty"`
}

// SelectionDecision is the outcome of the selection stage: either a
// resolved target database or a clarifying follow-up. Exactly one
// variant is active.
type SelectionDecision struct {
	Status     DecisionStatus   `json:"status"`
	DatabaseID string           `json:"database_id,omitempty"`
	Message    string           `json:"message,omitempty"`
	Options    []FollowUpOption `json:"options,omitempty"`
}

// Resolved reports whether the decision carries a target database.
func (d SelectionDecision) Resolved() bool {
	return d.Status == DecisionResolved
}

// ResolvedDecision builds the resolved variant.
func ResolvedDecision(databaseID string) SelectionDecision {
	return SelectionDecision{
		Status:     DecisionResolved,
		DatabaseID: databaseID,
	}
}

// FollowUpDecision builds the follow-up variant.
func FollowUpDecision(message string, options []FollowUpOption) SelectionDecision {
	return SelectionDecision{
		Status:  DecisionNeedsFollowUp,
		Message: message,
		Options: options,
	}
}
