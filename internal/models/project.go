package models

import (
	"time"

	"github.com/google/uuid"
)

// Project заявка клиента.
type Project struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ClientID        uuid.UUID  `db:"client_id" json:"client_id"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	Category        string     `db:"category" json:"category"`
	BudgetMin       *int64     `db:"budget_min" json:"budget_min,omitempty"`
	BudgetMax       *int64     `db:"budget_max" json:"budget_max,omitempty"`
	City            *string    `db:"city" json:"city,omitempty"`
	DesiredDeadline *string    `db:"desired_deadline" json:"desired_deadline,omitempty"`
	Status          string     `db:"status" json:"status"`
	Views           int        `db:"views" json:"views"`
	ClosedAt        *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ProjectFilter фильтры публичного списка проектов.
type ProjectFilter struct {
	Category string
	City     string
	Search   string
}

var projectTransitions = map[string]map[string]struct{}{
	ProjectStatusOpen: {
		ProjectStatusInProgress: {},
		ProjectStatusCompleted:  {},
		ProjectStatusCancelled:  {},
	},
	ProjectStatusInProgress: {
		ProjectStatusCompleted: {},
		ProjectStatusCancelled: {},
	},
}

// CanTransitionProject сообщает, допустим ли переход статуса проекта.
func CanTransitionProject(from, to string) bool {
	_, ok := projectTransitions[from][to]
	return ok
}

// IsProjectFinal сообщает, что проект завершён или отменён.
func IsProjectFinal(status string) bool {
	return status == ProjectStatusCompleted || status == ProjectStatusCancelled
}
