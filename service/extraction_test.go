package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mkovaleva/ThoughtFlow/models"
)

// withCannedCompletion replaces the chat-completion call for the duration
// of a test.
func withCannedCompletion(t *testing.T, content string, err error) {
	t.Helper()
	original := callChatCompletion
	callChatCompletion = func(prompt string) (string, error) {
		return content, err
	}
	t.Cleanup(func() { callChatCompletion = original })
}

func TestStripJSONFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain JSON", `{"summary": "x"}`, `{"summary": "x"}`},
		{"json fence", "```json\n{\"summary\": \"x\"}\n```", `{"summary": "x"}`},
		{"bare fence", "```\n{\"summary\": \"x\"}\n```", `{"summary": "x"}`},
		{"surrounding whitespace", "  {\"summary\": \"x\"}  ", `{"summary": "x"}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripJSONFence(tt.in))
		})
	}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"low", models.PriorityLow},
		{"medium", models.PriorityMedium},
		{"high", models.PriorityHigh},
		{"urgent", models.PriorityUrgent},
		{"URGENT", models.PriorityUrgent},
		{" high ", models.PriorityHigh},
		{"", models.PriorityMedium},
		{"critical", models.PriorityMedium},
		{"p1", models.PriorityMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePriority(tt.in), "input %q", tt.in)
	}
}

func TestParseExtractionPayload(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		result, err := parseExtractionPayload(`{
			"summary": "Call John about the budget and set up a team meeting.",
			"cleaned_text": "Call John tomorrow about the budget. Schedule a team meeting for Friday with Alice and Bob.",
			"tasks": [{"title": "Call John about the budget", "priority": "medium", "due_date": "2026-01-19"}],
			"meetings": [{"title": "Team meeting", "participants": ["Alice", "Bob"], "agenda": ["Friday sync"], "goal": null}]
		}`)
		assert.NoError(t, err)
		assert.Len(t, result.Tasks, 1)
		assert.Len(t, result.Meetings, 1)
		assert.Equal(t, "2026-01-19", *result.Tasks[0].DueDate)
		assert.Equal(t, []string{"Alice", "Bob"}, result.Meetings[0].Participants)
	})

	t.Run("optional fields default", func(t *testing.T) {
		result, err := parseExtractionPayload(`{
			"summary": "A thought.",
			"cleaned_text": "A thought.",
			"tasks": [{"title": "Do the thing"}],
			"meetings": [{"title": "Standup"}]
		}`)
		assert.NoError(t, err)
		assert.Equal(t, models.PriorityMedium, result.Tasks[0].Priority)
		assert.Nil(t, result.Tasks[0].DueDate)
		assert.Empty(t, result.Meetings[0].Participants)
		assert.Empty(t, result.Meetings[0].Agenda)
		assert.Nil(t, result.Meetings[0].Goal)
	})

	t.Run("out-of-set priority becomes medium", func(t *testing.T) {
		result, err := parseExtractionPayload(`{"summary": "s", "cleaned_text": "s", "tasks": [{"title": "t", "priority": "blocker"}], "meetings": []}`)
		assert.NoError(t, err)
		assert.Equal(t, models.PriorityMedium, result.Tasks[0].Priority)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := parseExtractionPayload(`this is not JSON at all`)
		var extractionErr *ExtractionError
		assert.True(t, errors.As(err, &extractionErr))
		assert.Contains(t, extractionErr.Fragment, "this is not JSON")
	})

	t.Run("missing summary", func(t *testing.T) {
		_, err := parseExtractionPayload(`{"cleaned_text": "x", "tasks": [], "meetings": []}`)
		var extractionErr *ExtractionError
		assert.True(t, errors.As(err, &extractionErr))
	})

	t.Run("empty response", func(t *testing.T) {
		_, err := parseExtractionPayload("")
		var extractionErr *ExtractionError
		assert.True(t, errors.As(err, &extractionErr))
	})
}

func TestExtract(t *testing.T) {
	svc := &AssistantService{}
	today := time.Date(2026, time.January, 18, 0, 0, 0, 0, time.UTC)

	t.Run("fenced reply is unwrapped", func(t *testing.T) {
		withCannedCompletion(t, "```json\n{\"summary\": \"s\", \"cleaned_text\": \"c\", \"tasks\": [], \"meetings\": []}\n```", nil)
		result, err := svc.Extract("some thought", today)
		assert.NoError(t, err)
		assert.Equal(t, "s", result.Summary)
		assert.Equal(t, "c", result.CleanedText)
	})

	t.Run("missing cleaned_text falls back to input", func(t *testing.T) {
		withCannedCompletion(t, `{"summary": "s", "tasks": [], "meetings": []}`, nil)
		result, err := svc.Extract("the original text", today)
		assert.NoError(t, err)
		assert.Equal(t, "the original text", result.CleanedText)
	})

	t.Run("engine failure propagates", func(t *testing.T) {
		withCannedCompletion(t, "", errors.New("connection refused"))
		_, err := svc.Extract("text", today)
		assert.Error(t, err)
	})

	t.Run("scenario: task and meeting extracted together", func(t *testing.T) {
		withCannedCompletion(t, `{
			"summary": "Call John about the budget and schedule a Friday team meeting.",
			"cleaned_text": "Call John tomorrow about the budget and schedule a team meeting for Friday with Alice and Bob.",
			"tasks": [{"title": "Call John about the budget", "priority": "medium", "due_date": "2026-01-19"}],
			"meetings": [{"title": "Team meeting", "participants": ["Alice", "Bob"], "agenda": ["Friday 2026-01-23"], "goal": null}]
		}`, nil)
		result, err := svc.Extract("Need to call John tomorrow about the budget and schedule a team meeting for Friday with Alice and Bob", today)
		assert.NoError(t, err)
		assert.Len(t, result.Tasks, 1)
		assert.Contains(t, result.Tasks[0].Title, "John")
		assert.Equal(t, "2026-01-19", *result.Tasks[0].DueDate)
		assert.Len(t, result.Meetings, 1)
		assert.Contains(t, result.Meetings[0].Participants, "Alice")
		assert.Contains(t, result.Meetings[0].Participants, "Bob")
	})
}
