package models

import (
	"time"

	"github.com/google/uuid"
)

// FreelanceProfile профиль исполнителя, 1:1 с пользователем роли freelance.
type FreelanceProfile struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	UserID            uuid.UUID  `db:"user_id" json:"user_id"`
	ProfessionalTitle string     `db:"professional_title" json:"professional_title"`
	Bio               *string    `db:"bio" json:"bio,omitempty"`
	Category          string     `db:"category" json:"category"`
	Subcategory       *string    `db:"subcategory" json:"subcategory,omitempty"`
	YearsExperience   int        `db:"years_experience" json:"years_experience"`
	RateMin           *int64     `db:"rate_min" json:"rate_min,omitempty"`
	RateMax           *int64     `db:"rate_max" json:"rate_max,omitempty"`
	Availability      string     `db:"availability" json:"availability"`
	AverageRating     float64    `db:"average_rating" json:"average_rating"`
	ReviewCount       int        `db:"review_count" json:"review_count"`
	ProfileViews      int        `db:"profile_views" json:"profile_views"`
	IsVerified        bool       `db:"is_verified" json:"is_verified"`
	IsFeatured        bool       `db:"is_featured" json:"is_featured"`
	FeaturedFrom      *time.Time `db:"featured_from" json:"featured_from,omitempty"`
	FeaturedUntil     *time.Time `db:"featured_until" json:"featured_until,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// IsFeaturedActive сообщает, действует ли продвижение в момент now.
// Флаг с истёкшим окном считается неактивным; окно без конца бессрочно.
func (p *FreelanceProfile) IsFeaturedActive(now time.Time) bool {
	if !p.IsFeatured {
		return false
	}
	return p.FeaturedUntil == nil || now.Before(*p.FeaturedUntil)
}

// FeatureWindow окно продвижения, записываемое при валидации платежа.
type FeatureWindow struct {
	From  time.Time
	Until time.Time
}

// FreelanceCard профиль вместе с публичными данными пользователя для выдачи.
type FreelanceCard struct {
	FreelanceProfile
	FirstName      string  `db:"first_name" json:"first_name"`
	LastName       string  `db:"last_name" json:"last_name"`
	City           *string `db:"city" json:"city,omitempty"`
	AvatarPath     *string `db:"avatar_path" json:"avatar_path,omitempty"`
	FeaturedActive bool    `db:"featured_active" json:"featured_active"`
}

// FreelanceDetails полная карточка фрилансера.
type FreelanceDetails struct {
	FreelanceCard
	Competences []Competence `json:"competences"`
	Portfolios  []Portfolio  `json:"portfolios"`
}

// FreelanceFilter фильтры публичного каталога.
type FreelanceFilter struct {
	Category     string
	City         string
	Availability string
	Search       string
}

// Competence навык фрилансера.
type Competence struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FreelanceID uuid.UUID `db:"freelance_id" json:"freelance_id"`
	Name        string    `db:"name" json:"name"`
	Level       string    `db:"level" json:"level"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Portfolio работа из портфолио.
type Portfolio struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FreelanceID uuid.UUID `db:"freelance_id" json:"freelance_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	ImagePath   *string   `db:"image_path" json:"image_path,omitempty"`
	ExternalURL *string   `db:"external_url" json:"external_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
