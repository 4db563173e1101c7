package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Note represents one captured utterance. Every processed message creates
// exactly one note; tasks and meetings extracted from the same message
// reference it through their SourceNoteID.
type Note struct {
	// ID is a unique identifier for the note, stored as a UUID in the database.
	// In Elasticsearch, it's indexed as a keyword for exact matching.
	ID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" elastic:"type:keyword"`
	UserID    string  `gorm:"type:uuid;index;not null" elastic:"type:keyword"`
	ProjectID *string `gorm:"type:uuid" elastic:"type:keyword"`

	// Title is derived from the summary (truncated), indexed as text for search.
	Title   string `elastic:"type:text,analyzer:standard"`
	Content string `gorm:"not null" elastic:"type:text,analyzer:standard"`
	Tags    string `gorm:"default:''" elastic:"type:keyword"`

	// RawTranscript is the original un-cleaned text and is immutable once
	// created. Summary and title are only ever regenerated by re-running
	// extraction, never edited in place.
	RawTranscript string `elastic:"type:text,analyzer:standard"`
	VoiceFileID   *string
	VoiceDuration *int

	// ExtractionData is the full extraction payload the note was created
	// from, kept as JSONB for later inspection.
	ExtractionData datatypes.JSON `elastic:"type:object"`

	CreatedAt time.Time `elastic:"type:date"`

	// SearchContent is a computed field for full-text search, combining
	// Title and Content. It's not stored in the database (gorm:"-") but is
	// indexed in Elasticsearch.
	SearchContent string `gorm:"-" elastic:"type:text,analyzer:standard"`
}

// BeforeSave is a GORM hook to populate SearchContent before saving to Elasticsearch.
func (n *Note) BeforeSave(tx *gorm.DB) error {
	n.SearchContent = n.Title + " " + n.Content
	return nil
}
