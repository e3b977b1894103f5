package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает учётную запись платформы.
type User struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	FirstName         string     `db:"first_name" json:"first_name"`
	LastName          string     `db:"last_name" json:"last_name"`
	Email             string     `db:"email" json:"email"`
	Phone             string     `db:"phone" json:"phone"`
	WhatsApp          *string    `db:"whatsapp" json:"whatsapp,omitempty"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	Role              string     `db:"role" json:"role"`
	City              *string    `db:"city" json:"city,omitempty"`
	Address           *string    `db:"address" json:"address,omitempty"`
	Status            string     `db:"status" json:"status"`
	AvatarPath        *string    `db:"avatar_path" json:"avatar_path,omitempty"`
	EmailVerifiedAt   *time.Time `db:"email_verified_at" json:"email_verified_at,omitempty"`
	VerificationToken *string    `db:"verification_token" json:"-"`
	LastLoginAt       *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// IsActive сообщает, может ли пользователь входить в систему.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsEmailVerified сообщает, подтверждён ли email.
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// FullName возвращает имя и фамилию.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Session хранит refresh токен пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserFilter задаёт фильтры административного списка пользователей.
type UserFilter struct {
	Role   string
	Status string
}
