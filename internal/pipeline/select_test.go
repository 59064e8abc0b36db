package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sells-group/leadquery/internal/catalog"
	"github.com/sells-group/leadquery/internal/config"
	"github.com/sells-group/leadquery/internal/model"
	"github.com/sells-group/leadquery/internal/resilience"
	"github.com/sells-group/leadquery/pkg/anthropic"
)

func testPolicy() resilience.CallPolicy {
	return resilience.CallPolicy{
		Timeout:        5 * time.Second,
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}
}

func newTestSelector(ai *mockAnthropicClient) *Selector {
	return NewSelector(ai, config.AnthropicConfig{Model: "claude-haiku-4-5-20251001"}, catalog.DefaultDatabaseID, testPolicy())
}

func TestSelect_Resolved(t *testing.T) {
	ctx := context.Background()
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse(`{"status": "resolved", "database_id": "global_professionals"}`), nil).Once()

	outcome := newTestSelector(ai).Select(ctx, "HR managers worldwide, email addresses", "")

	assert.True(t, outcome.Decision.Resolved())
	assert.Equal(t, "global_professionals", outcome.Decision.DatabaseID)
	assert.Equal(t, "global_professionals", outcome.RecommendedID)
	ai.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestSelect_NeedsFollowUp(t *testing.T) {
	ctx := context.Background()
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse(`{
			"status": "needs_follow_up",
			"message": "That business is outside the US. Which database should we search?",
			"options": [
				{"label": "US professionals", "value": "usa_professionals", "database_id": "usa_professionals"},
				{"label": "Global contacts", "value": "global_professionals", "database_id": "global_professionals"}
			]
		}`), nil).Once()

	outcome := newTestSelector(ai).Select(ctx, "plumbers in Taiwan", "")

	assert.False(t, outcome.Decision.Resolved())
	assert.Equal(t, model.DecisionNeedsFollowUp, outcome.Decision.Status)
	assert.NotEmpty(t, outcome.Decision.Message)
	assert.Len(t, outcome.Decision.Options, 2)
	assert.Equal(t, "global_professionals", outcome.Decision.Options[1].DatabaseID)
}

func TestSelect_FollowUpAnswerIsDatabaseID_NoClassifierCall(t *testing.T) {
	ctx := context.Background()
	ai := &mockAnthropicClient{}
	// No expectations: the answer names a database, so no call may happen.

	outcome := newTestSelector(ai).Select(ctx, "plumbers in Taiwan", "global_professionals")

	assert.True(t, outcome.Decision.Resolved())
	assert.Equal(t, "global_professionals", outcome.Decision.DatabaseID)
	ai.AssertNumberOfCalls(t, "CreateMessage", 0)
}

func TestSelect_FollowUpAnswerIsDatabaseID_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	ai := &mockAnthropicClient{}

	outcome := newTestSelector(ai).Select(ctx, "plumbers in Taiwan", "  USA_Professionals ")

	assert.True(t, outcome.Decision.Resolved())
	assert.Equal(t, "usa_professionals", outcome.Decision.DatabaseID)
	ai.AssertNumberOfCalls(t, "CreateMessage", 0)
}

func TestSelect_FollowUpFreeText_Reclassifies(t *testing.T) {
	ctx := context.Background()
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) == 1 &&
			strings.Contains(req.Messages[0].Content, "Clarification from the user: I want US businesses")
	})).Return(textResponse(`{"status": "resolved", "database_id": "usa_local_businesses"}`), nil).Once()

	outcome := newTestSelector(ai).Select(ctx, "plumbers", "I want US businesses")

	assert.True(t, outcome.Decision.Resolved())
	assert.Equal(t, "usa_local_businesses", outcome.Decision.DatabaseID)
	ai.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestSelect_SecondFollowUp_ForcesDefault(t *testing.T) {
	ctx := context.Background()
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse(`{"status": "needs_follow_up", "message": "Still unclear"}`), nil).Once()

	outcome := newTestSelector(ai).Select(ctx, "something vague", "still vague")

	assert.True(t, outcome.Decision.Resolved())
	assert.Equal(t, catalog.DefaultDatabaseID, outcome.Decision.DatabaseID)
	// Exactly one reconciliation call, never a third classification.
	ai.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestSelect_ClassifierError_CoercedToDefault(t *testing.T) {
	ctx := context.Background()
	ai := &mockAnthropicClient{}
	ai.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(nil, eris.New("backend unavailable")).Once()

	outcome := newTestSelector(ai).Select(ctx, "software engineers", "")

	assert.True(t, outcome.Decision.Resolved())
	assert.Equal(t, catalog.DefaultDatabaseID, outcome.Decision.DatabaseID)
}

func TestParseDecision_MalformedJSON(t *testing.T) {
	s := newTestSelector(&mockAnthropicClient{})
	decision := s.parseDecision("not json at all")
	assert.True(t, decision.Resolved())
	assert.Equal(t, catalog.DefaultDatabaseID, decision.DatabaseID)
}

func TestParseDecision_UnknownDatabase(t *testing.T) {
	s := newTestSelector(&mockAnthropicClient{})
	decision := s.parseDecision(`{"status": "resolved", "database_id": "made_up_db"}`)
	assert.True(t, decision.Resolved())
	assert.Equal(t, catalog.DefaultDatabaseID, decision.DatabaseID)
}

func TestParseDecision_WithMarkdownFence(t *testing.T) {
	s := newTestSelector(&mockAnthropicClient{})
	decision := s.parseDecision("```json\n{\"status\": \"resolved\", \"database_id\": \"usa_b2b_emails\"}\n```")
	assert.True(t, decision.Resolved())
	assert.Equal(t, "usa_b2b_emails", decision.DatabaseID)
}

func TestParseDecision_FollowUpOptionWithUnknownDatabase(t *testing.T) {
	s := newTestSelector(&mockAnthropicClient{})
	decision := s.parseDecision(`{"status": "needs_follow_up", "message": "Which?", "options": [{"label": "A", "value": "a", "database_id": "bogus"}]}`)
	assert.Equal(t, model.DecisionNeedsFollowUp, decision.Status)
	// An unknown id on an option is dropped rather than offered.
	assert.Empty(t, decision.Options[0].DatabaseID)
}
