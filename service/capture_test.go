package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/mkovaleva/ThoughtFlow/models"
)

func testUser() models.User {
	return models.User{ID: "user-1", ChatID: 42}
}

func testProjects() []models.Project {
	// Stable listing order: default first, then by name.
	return []models.Project{
		{ID: "proj-general", UserID: "user-1", Name: "General", IsDefault: true},
		{ID: "proj-billing", UserID: "user-1", Name: "Billing", Keywords: "invoice,budget"},
	}
}

func TestDetectProject(t *testing.T) {
	projects := testProjects()

	tests := []struct {
		name string
		text string
		want *string
	}{
		{"keyword hit", "Call John about budget", strPtr("proj-billing")},
		{"case-insensitive hit", "Send the INVOICE", strPtr("proj-billing")},
		{"no hit", "Buy milk", nil},
		{"empty text", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectProject(tt.text, projects)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
				assert.Equal(t, *tt.want, got.ID)
			}
		})
	}
}

func TestDetectProjectFirstMatchWins(t *testing.T) {
	projects := []models.Project{
		{ID: "proj-a", Name: "Alpha", Keywords: "budget"},
		{ID: "proj-b", Name: "Beta", Keywords: "budget,invoice"},
	}
	got := DetectProject("about the budget", projects)
	assert.NotNil(t, got)
	assert.Equal(t, "proj-a", got.ID)
}

func TestDefaultProject(t *testing.T) {
	assert.Equal(t, "proj-general", DefaultProject(testProjects()).ID)
	assert.Nil(t, DefaultProject(nil))
	assert.Nil(t, DefaultProject([]models.Project{{ID: "p", Name: "NoDefault"}}))
}

func TestBuildNote(t *testing.T) {
	user := testUser()
	projects := testProjects()
	defaultProj := DefaultProject(projects)

	t.Run("carries raw transcript and voice metadata", func(t *testing.T) {
		voiceID := "clip-1"
		duration := 12
		result := &ExtractionResult{Summary: "A summary.", CleanedText: "cleaned"}
		note := buildNote(result, user, defaultProj, "raw original text", &voiceID, &duration)

		assert.Equal(t, "user-1", note.UserID)
		assert.Equal(t, "A summary.", note.Title)
		assert.Equal(t, "A summary.", note.Content)
		assert.Equal(t, "raw original text", note.RawTranscript)
		assert.Equal(t, "clip-1", *note.VoiceFileID)
		assert.Equal(t, 12, *note.VoiceDuration)
		assert.Equal(t, "proj-general", *note.ProjectID)
		assert.NotEmpty(t, note.ExtractionData)
	})

	t.Run("title truncated to limit", func(t *testing.T) {
		long := strings.Repeat("x", 300)
		result := &ExtractionResult{Summary: long}
		note := buildNote(result, user, nil, long, nil, nil)

		assert.Len(t, note.Title, noteTitleLimit)
		assert.Equal(t, long, note.Content)
		assert.Nil(t, note.ProjectID)
	})

	t.Run("multi-byte summary keeps a valid full-length title", func(t *testing.T) {
		long := strings.Repeat("я", 150)
		result := &ExtractionResult{Summary: long}
		note := buildNote(result, user, nil, long, nil, nil)

		assert.True(t, utf8.ValidString(note.Title))
		assert.Equal(t, noteTitleLimit, utf8.RuneCountInString(note.Title))
	})
}

func TestBuildTask(t *testing.T) {
	user := testUser()
	projects := testProjects()

	t.Run("keyword project resolution", func(t *testing.T) {
		task := buildTask(ExtractedTask{Title: "Call John about budget"}, user, projects, "note-1", "raw", nil)
		assert.Equal(t, "proj-billing", *task.ProjectID)
	})

	t.Run("falls back to default project", func(t *testing.T) {
		task := buildTask(ExtractedTask{Title: "Buy milk"}, user, projects, "note-1", "raw", nil)
		assert.Equal(t, "proj-general", *task.ProjectID)
	})

	t.Run("source note and defaults", func(t *testing.T) {
		task := buildTask(ExtractedTask{Title: "Do the thing"}, user, projects, "note-1", "raw", nil)
		assert.Equal(t, "note-1", *task.SourceNoteID)
		assert.Equal(t, models.PriorityMedium, task.Priority)
		assert.Nil(t, task.DueDate)
		assert.Equal(t, "raw", *task.RawText)
	})

	t.Run("due date parsed", func(t *testing.T) {
		task := buildTask(ExtractedTask{Title: "t", DueDate: strPtr("2026-01-19")}, user, projects, "note-1", "raw", nil)
		assert.NotNil(t, task.DueDate)
		assert.Equal(t, "2026-01-19", task.DueDate.Format("2006-01-02"))
	})

	t.Run("garbage due date ignored", func(t *testing.T) {
		task := buildTask(ExtractedTask{Title: "t", DueDate: strPtr("next Friday")}, user, projects, "note-1", "raw", nil)
		assert.Nil(t, task.DueDate)
	})
}

func TestBuildMeeting(t *testing.T) {
	user := testUser()
	goal := "Align on Q1"
	duration := 30
	voiceID := "clip-9"

	meeting := buildMeeting(ExtractedMeeting{
		Title:        "Team meeting",
		Participants: []string{"Alice", "Bob"},
		Agenda:       []string{"Budget", "Roadmap"},
		Goal:         &goal,
	}, user, "note-1", "raw text", &voiceID, &duration)

	assert.Equal(t, "user-1", meeting.UserID)
	assert.Equal(t, "note-1", *meeting.SourceNoteID)
	assert.Equal(t, "Alice, Bob", meeting.Participants)
	assert.Equal(t, "- Budget\n- Roadmap", meeting.Agenda)
	assert.Equal(t, "Align on Q1", *meeting.Goal)
	assert.Equal(t, "raw text", *meeting.RawTranscript)
	assert.Equal(t, 30, *meeting.VoiceDuration)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
	assert.Equal(t, "", truncate("", 5))

	// Counts characters, not bytes, and never cuts a rune in half.
	assert.Equal(t, strings.Repeat("日", 40), truncate(strings.Repeat("日", 40), noteTitleLimit))

	cut := truncate(strings.Repeat("я", 150), noteTitleLimit)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, noteTitleLimit, utf8.RuneCountInString(cut))

	cut = truncate(strings.Repeat("日", 150), noteTitleLimit)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, noteTitleLimit, utf8.RuneCountInString(cut))
}
