package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification сообщение, адресованное одному пользователю.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Title     string          `db:"title" json:"title"`
	Message   string          `db:"message" json:"message"`
	Type      string          `db:"type" json:"type"`
	Data      json.RawMessage `db:"data" json:"data"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	ReadAt    *time.Time      `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Activity запись ленты активности пользователя.
type Activity struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	Type        string          `db:"type" json:"type"`
	Title       string          `db:"title" json:"title"`
	Description *string         `db:"description" json:"description,omitempty"`
	Icon        *string         `db:"icon" json:"icon,omitempty"`
	Color       *string         `db:"color" json:"color,omitempty"`
	IsUnread    bool            `db:"is_unread" json:"is_unread"`
	ReadAt      *time.Time      `db:"read_at" json:"read_at,omitempty"`
	ProjectID   *uuid.UUID      `db:"project_id" json:"project_id,omitempty"`
	Metadata    json.RawMessage `db:"metadata" json:"metadata"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
