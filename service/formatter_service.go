package services

import "strings"

var priorityEmoji = map[string]string{
	"urgent": "🔴",
	"high":   "🟠",
	"medium": "🟡",
	"low":    "🟢",
}

// FormatExtractionResponse renders an extraction result for the transport,
// either compact or detailed. Pure function: same input, same output.
func FormatExtractionResponse(result *ExtractionResult, compact bool) string {
	if compact {
		return formatCompact(result)
	}
	return formatDetailed(result)
}

// formatCompact: summary plus one line per item. Sections with no items
// are omitted entirely.
func formatCompact(result *ExtractionResult) string {
	lines := []string{"📝 " + result.Summary}

	if len(result.Tasks) > 0 {
		lines = append(lines, "")
		for _, task := range result.Tasks {
			due := ""
			if task.DueDate != nil {
				due = " (" + *task.DueDate + ")"
			}
			lines = append(lines, "✅ "+task.Title+due)
		}
	}

	if len(result.Meetings) > 0 {
		lines = append(lines, "")
		for _, meeting := range result.Meetings {
			participants := ""
			if len(meeting.Participants) > 0 {
				participants = " with " + strings.Join(meeting.Participants, ", ")
			}
			lines = append(lines, "📅 "+meeting.Title+participants)
		}
	}

	return strings.Join(lines, "\n")
}

// formatDetailed: labeled sections with priority indicators.
func formatDetailed(result *ExtractionResult) string {
	lines := []string{"📝 *Summary saved*", "", result.Summary}

	if len(result.Tasks) > 0 {
		lines = append(lines, "", "*Tasks extracted:*")
		for _, task := range result.Tasks {
			emoji, ok := priorityEmoji[task.Priority]
			if !ok {
				emoji = priorityEmoji["medium"]
			}
			due := ""
			if task.DueDate != nil {
				due = " — due " + *task.DueDate
			}
			lines = append(lines, "• "+emoji+" "+task.Title+due)
		}
	}

	if len(result.Meetings) > 0 {
		lines = append(lines, "", "*Meetings extracted:*")
		for _, meeting := range result.Meetings {
			lines = append(lines, "• "+meeting.Title)
			if len(meeting.Participants) > 0 {
				lines = append(lines, "  Participants: "+strings.Join(meeting.Participants, ", "))
			}
			if len(meeting.Agenda) > 0 {
				lines = append(lines, "  Agenda: "+strings.Join(meeting.Agenda, "; "))
			}
		}
	}

	return strings.Join(lines, "\n")
}
