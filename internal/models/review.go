package models

import (
	"time"

	"github.com/google/uuid"
)

// Review отзыв клиента о фрилансере.
type Review struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ClientID    uuid.UUID  `db:"client_id" json:"client_id"`
	FreelanceID uuid.UUID  `db:"freelance_id" json:"freelance_id"`
	ProjectID   *uuid.UUID `db:"project_id" json:"project_id,omitempty"`
	Rating      int        `db:"rating" json:"rating"`
	Comment     *string    `db:"comment" json:"comment,omitempty"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// RatingSummary агрегат опубликованных отзывов.
type RatingSummary struct {
	Average float64 `db:"average" json:"average_rating"`
	Count   int     `db:"count" json:"review_count"`
}
