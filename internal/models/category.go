package models

import (
	"time"

	"github.com/google/uuid"
)

// Category категория услуг каталога.
type Category struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	Icon         *string   `db:"icon" json:"icon,omitempty"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GlobalStats публичная статистика платформы.
type GlobalStats struct {
	Freelances         int `db:"freelances" json:"freelances"`
	Clients            int `db:"clients" json:"clients"`
	OpenProjects       int `db:"open_projects" json:"open_projects"`
	PublishedReviews   int `db:"published_reviews" json:"published_reviews"`
	FeaturedFreelances int `db:"featured_freelances" json:"featured_freelances"`
}

// CategoryStats число активных фрилансеров и открытых проектов категории.
type CategoryStats struct {
	Category     Category `json:"category"`
	Freelances   int      `json:"freelances"`
	OpenProjects int      `json:"open_projects"`
}

// DashboardStats показатели панели. Незаполненные для роли поля опускаются.
type DashboardStats struct {
	Projects     int    `json:"projects"`
	ProfileViews *int   `json:"profile_views,omitempty"`
	Revenue      *int64 `json:"revenue,omitempty"`
	Freelances   *int   `json:"freelances,omitempty"`
	Clients      *int   `json:"clients,omitempty"`
	Categories   *int   `json:"categories,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

// Dashboard панель пользователя: показатели и последние проекты.
type Dashboard struct {
	Role           string         `json:"role"`
	Stats          DashboardStats `json:"stats"`
	RecentProjects []Project      `json:"recent_projects"`
}
