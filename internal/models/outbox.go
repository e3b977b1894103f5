package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxMessage намерение отправки, записанное в одной транзакции с изменением состояния.
type OutboxMessage struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Kind          string          `db:"kind" json:"kind"`
	Payload       json.RawMessage `db:"payload" json:"payload"`
	Status        string          `db:"status" json:"status"`
	Attempts      int             `db:"attempts" json:"attempts"`
	LastError     *string         `db:"last_error" json:"last_error,omitempty"`
	NextAttemptAt time.Time       `db:"next_attempt_at" json:"next_attempt_at"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	SentAt        *time.Time      `db:"sent_at" json:"sent_at,omitempty"`
}

// VerificationEmail полезная нагрузка письма подтверждения email.
type VerificationEmail struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}
