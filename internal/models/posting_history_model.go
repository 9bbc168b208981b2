package models

import "time"

type PostingHistory struct {
	ID           int64      `db:"id" json:"id"`
	PostID       string     `db:"post_id" json:"post_id"`
	Platform     Platform   `db:"platform" json:"platform"`
	Status       PostStatus `db:"status" json:"status"`
	PlatformID   string     `db:"platform_id" json:"platform_id,omitempty"`
	ErrorMessage string     `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
