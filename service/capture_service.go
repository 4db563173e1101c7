package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	model "github.com/mkovaleva/ThoughtFlow/models"
)

// noteTitleLimit caps the note title derived from the summary.
const noteTitleLimit = 100

// GetUserProjects returns the user's projects in stable listing order:
// default project first, then by name. Keyword tie-breaks resolve to the
// first project in this order.
func (s *AssistantService) GetUserProjects(userID string) ([]model.Project, error) {
	var projects []model.Project
	if err := s.db.Where("user_id = ?", userID).
		Order("is_default DESC").Order("name").
		Find(&projects).Error; err != nil {
		log.Printf("[GetUserProjects] Error fetching projects for user %s: %v", userID, err)
		return nil, err
	}
	return projects, nil
}

// DetectProject matches the text against each project's comma-separated
// keyword list, case-insensitive substring match. The first project with a
// hit wins; nil when nothing matches.
func DetectProject(text string, projects []model.Project) *model.Project {
	textLower := strings.ToLower(text)
	for i := range projects {
		if projects[i].Keywords == "" {
			continue
		}
		for _, keyword := range strings.Split(projects[i].Keywords, ",") {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && strings.Contains(textLower, keyword) {
				return &projects[i]
			}
		}
	}
	return nil
}

// DefaultProject returns the project flagged default, if any.
func DefaultProject(projects []model.Project) *model.Project {
	for i := range projects {
		if projects[i].IsDefault {
			return &projects[i]
		}
	}
	return nil
}

// buildNote derives the note row from an extraction result. Title is the
// truncated summary, content the summary itself, and the raw transcript the
// original un-cleaned text.
func buildNote(result *ExtractionResult, user model.User, defaultProj *model.Project, rawText string, voiceFileID *string, voiceDuration *int) model.Note {
	note := model.Note{
		UserID:        user.ID,
		Title:         truncate(result.Summary, noteTitleLimit),
		Content:       result.Summary,
		RawTranscript: rawText,
		VoiceFileID:   voiceFileID,
		VoiceDuration: voiceDuration,
	}
	if defaultProj != nil {
		note.ProjectID = &defaultProj.ID
	}
	if payload, err := json.Marshal(result); err == nil {
		note.ExtractionData = datatypes.JSON(payload)
	}
	return note
}

// buildTask derives a task row from an extracted descriptor. The project is
// resolved by keyword match on the title with the default project as
// fallback; the source note reference ties the task to its utterance.
func buildTask(extracted ExtractedTask, user model.User, projects []model.Project, noteID string, rawText string, voiceFileID *string) model.Task {
	task := model.Task{
		UserID:       user.ID,
		SourceNoteID: &noteID,
		Title:        extracted.Title,
		Priority:     NormalizePriority(extracted.Priority),
		RawText:      &rawText,
		VoiceFileID:  voiceFileID,
	}
	project := DetectProject(extracted.Title, projects)
	if project == nil {
		project = DefaultProject(projects)
	}
	if project != nil {
		task.ProjectID = &project.ID
	}
	if extracted.DueDate != nil {
		if due, err := time.Parse("2006-01-02", *extracted.DueDate); err == nil {
			task.DueDate = &due
		} else {
			log.Printf("[buildTask] Ignoring unparseable due date %q", *extracted.DueDate)
		}
	}
	return task
}

// buildMeeting derives a meeting row, flattening participants to a
// ", "-joined string and the agenda to markdown bullet lines.
func buildMeeting(extracted ExtractedMeeting, user model.User, noteID string, rawText string, voiceFileID *string, voiceDuration *int) model.Meeting {
	agendaLines := make([]string, 0, len(extracted.Agenda))
	for _, item := range extracted.Agenda {
		agendaLines = append(agendaLines, "- "+item)
	}
	return model.Meeting{
		UserID:        user.ID,
		SourceNoteID:  &noteID,
		Title:         extracted.Title,
		Participants:  strings.Join(extracted.Participants, ", "),
		Agenda:        strings.Join(agendaLines, "\n"),
		Goal:          extracted.Goal,
		RawTranscript: &rawText,
		VoiceFileID:   voiceFileID,
		VoiceDuration: voiceDuration,
	}
}

// CaptureExtraction persists one extraction result as a note plus its
// linked tasks and meetings in a single transaction. Either the note and
// every dependent row commit together or nothing is written; dependents are
// only created after the note id is known, so a task or meeting can never
// reference a note that was not persisted.
func (s *AssistantService) CaptureExtraction(result *ExtractionResult, user model.User, projects []model.Project, rawText string, voiceFileID *string, voiceDuration *int) (string, error) {
	defaultProj := DefaultProject(projects)

	var noteID string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		note := buildNote(result, user, defaultProj, rawText, voiceFileID, voiceDuration)
		if err := tx.Create(&note).Error; err != nil {
			log.Printf("[CaptureExtraction] Error creating note: %v", err)
			return err
		}
		noteID = note.ID

		for _, extracted := range result.Tasks {
			task := buildTask(extracted, user, projects, note.ID, rawText, voiceFileID)
			if err := tx.Create(&task).Error; err != nil {
				log.Printf("[CaptureExtraction] Error creating task: %v", err)
				return err
			}
		}

		for _, extracted := range result.Meetings {
			meeting := buildMeeting(extracted, user, note.ID, rawText, voiceFileID, voiceDuration)
			if err := tx.Create(&meeting).Error; err != nil {
				log.Printf("[CaptureExtraction] Error creating meeting: %v", err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to persist extraction: %w", err)
	}
	log.Printf("[CaptureExtraction] Note %s saved with %d tasks, %d meetings", noteID, len(result.Tasks), len(result.Meetings))

	// Search indexing is best-effort; the transaction has already
	// committed and a missing index entry only degrades /search.
	var note model.Note
	if err := s.db.First(&note, "id = ?", noteID).Error; err == nil {
		if err := s.indexNote(note); err != nil {
			log.Printf("[CaptureExtraction] Elasticsearch indexing error: %v", err)
		}
	}

	return noteID, nil
}

// indexNote indexes the note in Elasticsearch
func (s *AssistantService) indexNote(note model.Note) error {
	// Skip indexing if Elasticsearch client is not initialized
	if s.esClient == nil {
		return nil
	}

	doc := map[string]interface{}{
		"note_id":        note.ID,
		"user_id":        note.UserID,
		"title":          note.Title,
		"content":        note.Content,
		"raw_transcript": note.RawTranscript,
		"created_at":     note.CreatedAt,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal note document: %w", err)
	}

	res, err := s.esClient.Index(
		"notes",
		bytes.NewReader(body),
		s.esClient.Index.WithDocumentID(note.ID),
		s.esClient.Index.WithContext(context.Background()),
	)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch indexing failed: %s", res.String())
	}
	return nil
}

// truncate shortens s to at most n characters, never cutting a rune in
// half. Byte slicing would produce invalid UTF-8 on multi-byte input,
// which Postgres rejects.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
