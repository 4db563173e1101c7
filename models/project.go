package models

import "time"

// Project groups tasks and notes. Keywords drive auto-association of
// extracted items; the single default project ("Inbox") is the fallback.
type Project struct {
	ID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID string `gorm:"type:uuid;index;not null"`

	Name string `gorm:"not null"`

	// Keywords is a comma-separated list matched case-insensitively
	// against extracted task titles.
	Keywords  string `gorm:"default:''"`
	IsDefault bool   `gorm:"default:false"`

	CreatedAt time.Time
}
