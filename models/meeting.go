package models

import "time"

// Meeting is a scheduled event. Participants are stored as a ", "-joined
// string and agenda as markdown bullet lines, matching how the projector
// and listings render them.
type Meeting struct {
	ID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID string `gorm:"type:uuid;index;not null"`

	// SourceNoteID references a note owned by the same user.
	SourceNoteID *string `gorm:"type:uuid;index"`

	Title        string `gorm:"not null"`
	Participants string `gorm:"default:''"`
	Agenda       string
	Goal         *string

	RawTranscript *string
	VoiceFileID   *string
	VoiceDuration *int

	CreatedAt time.Time
}
