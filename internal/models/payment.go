package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment оплата продвижения профиля.
type Payment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FreelanceID uuid.UUID  `db:"freelance_id" json:"freelance_id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Plan        string     `db:"plan" json:"plan"`
	Amount      int64      `db:"amount" json:"amount"`
	Currency    string     `db:"currency" json:"currency"`
	Method      string     `db:"method" json:"method"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Reference   string     `db:"reference" json:"reference"`
	Status      string     `db:"status" json:"status"`
	ValidatedAt *time.Time `db:"validated_at" json:"validated_at,omitempty"`
	FailedAt    *time.Time `db:"failed_at" json:"failed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IsPending сообщает, ожидает ли платёж подтверждения.
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}
