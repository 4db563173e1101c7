package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	model "github.com/mkovaleva/ThoughtFlow/models"
)

// ProcessTaskInput handles the /task continuation: structure the message
// into tasks, resolve projects, park the batch for confirmation, and render
// the numbered preview. Explicit-flow tasks carry no source note.
func (s *AssistantService) ProcessTaskInput(user model.User, text string, voiceFileID *string) (string, error) {
	extracted, err := s.StructureTasks(text, time.Now())
	if err != nil {
		return "", err
	}
	if len(extracted) == 0 {
		return "No tasks found in the message.", nil
	}

	projects, err := s.GetUserProjects(user.ID)
	if err != nil {
		return "", err
	}

	tasks := make([]model.Task, 0, len(extracted))
	projectNames := make([]string, 0, len(extracted))
	for _, e := range extracted {
		task := model.Task{
			UserID:      user.ID,
			Title:       e.Title,
			Priority:    NormalizePriority(e.Priority),
			RawText:     &text,
			VoiceFileID: voiceFileID,
		}
		project := DetectProject(e.Title, projects)
		if project == nil {
			project = DefaultProject(projects)
		}
		projectName := "Inbox"
		if project != nil {
			task.ProjectID = &project.ID
			projectName = project.Name
		}
		if e.DueDate != nil {
			if due, err := time.Parse("2006-01-02", *e.DueDate); err == nil {
				task.DueDate = &due
			}
		}
		tasks = append(tasks, task)
		projectNames = append(projectNames, projectName)
	}

	batchID := s.pending.Put(PendingTaskBatch{
		UserID:      user.ID,
		Tasks:       tasks,
		RawText:     text,
		VoiceFileID: voiceFileID,
	})

	lines := []string{fmt.Sprintf("✅ *Found %d tasks:*", len(tasks)), ""}
	for i, task := range tasks {
		emoji, ok := priorityEmoji[task.Priority]
		if !ok {
			emoji = priorityEmoji["medium"]
		}
		due := ""
		if task.DueDate != nil {
			due = " · 📅 " + task.DueDate.Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("%d. ☐ %s", i+1, task.Title))
		lines = append(lines, fmt.Sprintf("   📁 %s · %s%s", projectNames[i], emoji, due))
	}
	lines = append(lines, "", "Confirm with batch id "+batchID)

	return strings.Join(lines, "\n"), nil
}

// SaveTaskBatch persists a confirmed batch in one transaction and returns
// how many tasks were saved.
func (s *AssistantService) SaveTaskBatch(batchID string) (int, error) {
	batch, ok := s.pending.Take(batchID)
	if !ok {
		return 0, fmt.Errorf("no pending batch %s", batchID)
	}

	if err := s.db.Create(&batch.Tasks).Error; err != nil {
		log.Printf("[SaveTaskBatch] Error saving batch %s: %v", batchID, err)
		return 0, fmt.Errorf("failed to save tasks: %w", err)
	}
	log.Printf("[SaveTaskBatch] Saved %d tasks from batch %s", len(batch.Tasks), batchID)
	return len(batch.Tasks), nil
}

// CancelTaskBatch drops a pending batch.
func (s *AssistantService) CancelTaskBatch(batchID string) {
	s.pending.Drop(batchID)
}

// ProcessMeetingInput handles the /meet continuation: structure the message
// as one meeting and save it immediately.
func (s *AssistantService) ProcessMeetingInput(user model.User, text string, voiceFileID *string, voiceDuration *int) (string, error) {
	extracted, err := s.StructureMeeting(text, time.Now())
	if err != nil {
		return "", err
	}

	agendaLines := make([]string, 0, len(extracted.Agenda))
	for _, item := range extracted.Agenda {
		agendaLines = append(agendaLines, "- "+item)
	}
	meeting := model.Meeting{
		UserID:        user.ID,
		Title:         extracted.Title,
		Participants:  strings.Join(extracted.Participants, ", "),
		Agenda:        strings.Join(agendaLines, "\n"),
		Goal:          extracted.Goal,
		RawTranscript: &text,
		VoiceFileID:   voiceFileID,
		VoiceDuration: voiceDuration,
	}
	if err := s.db.Create(&meeting).Error; err != nil {
		log.Printf("[ProcessMeetingInput] Error saving meeting: %v", err)
		return "", fmt.Errorf("failed to save meeting: %w", err)
	}

	lines := []string{"📋 *Meeting saved*", "", meeting.Title}
	if meeting.Participants != "" {
		lines = append(lines, "Participants: "+meeting.Participants)
	}
	if meeting.Agenda != "" {
		lines = append(lines, "Agenda:", meeting.Agenda)
	}
	return strings.Join(lines, "\n"), nil
}

// ProcessNoteInput handles the /note continuation: clean the text, detect a
// project from the content, and save the note immediately.
func (s *AssistantService) ProcessNoteInput(user model.User, text string, voiceFileID *string, voiceDuration *int) (string, error) {
	structured, err := s.StructureNote(text)
	if err != nil {
		return "", err
	}

	projects, err := s.GetUserProjects(user.ID)
	if err != nil {
		return "", err
	}
	project := DetectProject(structured.Content, projects)
	if project == nil {
		project = DefaultProject(projects)
	}

	note := model.Note{
		UserID:        user.ID,
		Content:       structured.Content,
		Tags:          strings.Join(structured.Tags, ", "),
		RawTranscript: text,
		VoiceFileID:   voiceFileID,
		VoiceDuration: voiceDuration,
	}
	if structured.Title != nil {
		note.Title = truncate(*structured.Title, noteTitleLimit)
	}
	projectName := "Inbox"
	if project != nil {
		note.ProjectID = &project.ID
		projectName = project.Name
	}
	if err := s.db.Create(&note).Error; err != nil {
		log.Printf("[ProcessNoteInput] Error saving note: %v", err)
		return "", fmt.Errorf("failed to save note: %w", err)
	}

	if err := s.indexNote(note); err != nil {
		log.Printf("[ProcessNoteInput] Elasticsearch indexing error: %v", err)
	}

	tagsStr := "No tags"
	if len(structured.Tags) > 0 {
		hashed := make([]string, len(structured.Tags))
		for i, tag := range structured.Tags {
			hashed[i] = "#" + tag
		}
		tagsStr = strings.Join(hashed, " ")
	}
	return fmt.Sprintf("📝 *Note saved*\n\n%s\n\nTags: %s\nProject: %s", structured.Content, tagsStr, projectName), nil
}

// GetPendingTasks returns the user's open tasks, soonest due first.
func (s *AssistantService) GetPendingTasks(userID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := s.db.Where("user_id = ? AND is_done = ?", userID, false).
		Order("due_date ASC NULLS LAST").Order("created_at DESC").
		Limit(20).
		Find(&tasks).Error; err != nil {
		log.Printf("[GetPendingTasks] Error fetching tasks for user %s: %v", userID, err)
		return nil, err
	}
	return tasks, nil
}

// ToggleTask flips a task's completion status and returns the new value.
func (s *AssistantService) ToggleTask(taskID string) (bool, error) {
	var task model.Task
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		log.Printf("[ToggleTask] Error fetching task %s: %v", taskID, err)
		return false, err
	}

	task.IsDone = !task.IsDone
	if err := s.db.Model(&task).Update("is_done", task.IsDone).Error; err != nil {
		log.Printf("[ToggleTask] Error updating task %s: %v", taskID, err)
		return false, err
	}
	return task.IsDone, nil
}
