package models

import "time"

// Task priorities accepted by the pipeline. Anything else coming back from
// the extraction engine is normalized to PriorityMedium.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task is an action item, either extracted from a free-form message (with
// SourceNoteID pointing at the originating note) or created through the
// explicit /task flow (no source note).
type Task struct {
	ID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string  `gorm:"type:uuid;index;not null"`
	ProjectID *string `gorm:"type:uuid"`

	// SourceNoteID references a note owned by the same user.
	SourceNoteID *string `gorm:"type:uuid;index"`

	Title    string `gorm:"not null"`
	Priority string `gorm:"default:'medium'"`
	DueDate  *time.Time
	IsDone   bool `gorm:"default:false"`

	RawText     *string
	VoiceFileID *string

	CreatedAt time.Time
}
