package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func sampleResult() *ExtractionResult {
	return &ExtractionResult{
		Summary:     "Call John about the budget and schedule a Friday team meeting.",
		CleanedText: "Call John tomorrow about the budget. Team meeting Friday with Alice and Bob.",
		Tasks: []ExtractedTask{
			{Title: "Call John about the budget", Priority: "medium", DueDate: strPtr("2026-01-19")},
		},
		Meetings: []ExtractedMeeting{
			{Title: "Team meeting", Participants: []string{"Alice", "Bob"}, Agenda: []string{"Budget review"}},
		},
	}
}

func TestFormatCompact(t *testing.T) {
	out := FormatExtractionResponse(sampleResult(), true)

	assert.Contains(t, out, "📝 Call John about the budget")
	assert.Contains(t, out, "✅ Call John about the budget (2026-01-19)")
	assert.Contains(t, out, "📅 Team meeting with Alice, Bob")
	assert.Equal(t, 1, strings.Count(out, "✅"))
	assert.Equal(t, 1, strings.Count(out, "📅"))
	assert.NotContains(t, out, "Tasks extracted")
}

func TestFormatDetailed(t *testing.T) {
	out := FormatExtractionResponse(sampleResult(), false)

	assert.Contains(t, out, "📝 *Summary saved*")
	assert.Contains(t, out, "*Tasks extracted:*")
	assert.Contains(t, out, "🟡 Call John about the budget — due 2026-01-19")
	assert.Contains(t, out, "*Meetings extracted:*")
	assert.Contains(t, out, "Participants: Alice, Bob")
	assert.Contains(t, out, "Agenda: Budget review")
}

func TestFormatNoExtractions(t *testing.T) {
	result := &ExtractionResult{Summary: "Just thinking out loud about my day."}

	for _, compact := range []bool{true, false} {
		out := FormatExtractionResponse(result, compact)
		assert.Contains(t, out, "Just thinking out loud about my day.")
		assert.NotContains(t, out, "✅")
		assert.NotContains(t, out, "📅")
		assert.NotContains(t, out, "Tasks extracted")
		assert.NotContains(t, out, "Meetings extracted")
	}
}

func TestFormatTaskWithoutDueDate(t *testing.T) {
	result := &ExtractionResult{
		Summary: "One task.",
		Tasks:   []ExtractedTask{{Title: "Buy milk", Priority: "low"}},
	}

	compact := FormatExtractionResponse(result, true)
	assert.Contains(t, compact, "✅ Buy milk")
	assert.NotContains(t, compact, "(")

	detailed := FormatExtractionResponse(result, false)
	assert.Contains(t, detailed, "🟢 Buy milk")
	assert.NotContains(t, detailed, "— due")
}

func TestFormatIsPure(t *testing.T) {
	result := sampleResult()
	for _, compact := range []bool{true, false} {
		first := FormatExtractionResponse(result, compact)
		second := FormatExtractionResponse(result, compact)
		assert.Equal(t, first, second)
	}
}

func TestFormatUnknownPriorityFallsBackToMedium(t *testing.T) {
	result := &ExtractionResult{
		Summary: "s",
		Tasks:   []ExtractedTask{{Title: "t", Priority: "weird"}},
	}
	out := FormatExtractionResponse(result, false)
	assert.Contains(t, out, "🟡 t")
}
