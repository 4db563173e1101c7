package services

import (
	"fmt"
	"log"

	model "github.com/mkovaleva/ThoughtFlow/models"
)

// GetRecentNotes returns the user's latest notes.
func (s *AssistantService) GetRecentNotes(userID string) ([]model.Note, error) {
	var notes []model.Note
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(20).
		Find(&notes).Error; err != nil {
		log.Printf("[GetRecentNotes] Error fetching notes for user %s: %v", userID, err)
		return nil, err
	}
	return notes, nil
}

// GetNote fetches one note with its full raw transcript. This backs the
// transport's "open note" callback.
func (s *AssistantService) GetNote(noteID string) (*model.Note, error) {
	var note model.Note
	if err := s.db.First(&note, "id = ?", noteID).Error; err != nil {
		log.Printf("[GetNote] Error fetching note %s: %v", noteID, err)
		return nil, err
	}
	return &note, nil
}

// DeleteNote removes a note. Linked tasks and meetings keep their data and
// simply lose the back-reference target; they are user-owned records in
// their own right.
func (s *AssistantService) DeleteNote(noteID string) error {
	result := s.db.Delete(&model.Note{}, "id = ?", noteID)
	if result.Error != nil {
		log.Printf("[DeleteNote] Error deleting note %s: %v", noteID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("note %s not found", noteID)
	}
	return nil
}

// GetRecentMeetings returns the user's latest meetings.
func (s *AssistantService) GetRecentMeetings(userID string) ([]model.Meeting, error) {
	var meetings []model.Meeting
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(20).
		Find(&meetings).Error; err != nil {
		log.Printf("[GetRecentMeetings] Error fetching meetings for user %s: %v", userID, err)
		return nil, err
	}
	return meetings, nil
}

// InitUser creates the user for a chat id if missing, along with the
// default "Inbox" project. Safe to call repeatedly.
func (s *AssistantService) InitUser(chatID int64, username string) (*model.User, error) {
	var user model.User
	err := s.db.Where("chat_id = ?", chatID).First(&user).Error
	if err == nil {
		return &user, nil
	}

	user = model.User{ChatID: chatID, Username: username}
	if err := s.db.Create(&user).Error; err != nil {
		log.Printf("[InitUser] Error creating user for chat %d: %v", chatID, err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	inbox := model.Project{
		UserID:    user.ID,
		Name:      "Inbox",
		IsDefault: true,
	}
	if err := s.db.Create(&inbox).Error; err != nil {
		log.Printf("[InitUser] Error creating default project for user %s: %v", user.ID, err)
		return nil, fmt.Errorf("failed to create default project: %w", err)
	}
	log.Printf("[InitUser] Created user %s with default project", user.ID)
	return &user, nil
}

// GetProjectsWithCounts lists the user's projects with open-task counts.
func (s *AssistantService) GetProjectsWithCounts(userID string) ([]map[string]interface{}, error) {
	projects, err := s.GetUserProjects(userID)
	if err != nil {
		return nil, err
	}

	result := make([]map[string]interface{}, 0, len(projects))
	for _, project := range projects {
		var count int64
		if err := s.db.Model(&model.Task{}).
			Where("project_id = ? AND is_done = ?", project.ID, false).
			Count(&count).Error; err != nil {
			log.Printf("[GetProjectsWithCounts] Error counting tasks for project %s: %v", project.ID, err)
			return nil, err
		}
		result = append(result, map[string]interface{}{
			"id":         project.ID,
			"name":       project.Name,
			"keywords":   project.Keywords,
			"is_default": project.IsDefault,
			"task_count": count,
		})
	}
	return result, nil
}

// CreateProject adds a non-default project with its keyword list.
func (s *AssistantService) CreateProject(userID, name, keywords string) (*model.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	project := model.Project{
		UserID:   userID,
		Name:     name,
		Keywords: keywords,
	}
	if err := s.db.Create(&project).Error; err != nil {
		log.Printf("[CreateProject] Error creating project %s: %v", name, err)
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &project, nil
}
