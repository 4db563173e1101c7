package models

import "time"

// User is a chat user of the assistant, keyed by the transport's chat id.
type User struct {
	ID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatID    int64  `gorm:"uniqueIndex;not null"`
	Username  string
	CreatedAt time.Time
}
