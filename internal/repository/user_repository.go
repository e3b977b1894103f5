package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/repository/common"
)

var (
	// ErrUserNotFound возвращается, когда пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken возвращается при нарушении уникальности email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSessionNotFound возвращается, когда refresh сессия не найдена.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAlreadyVerified возвращается, если email уже подтверждён.
	ErrAlreadyVerified = errors.New("email already verified")
)

// UserRepository отвечает за пользователей и их сессии.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithOutbox в одной транзакции создаёт пользователя, профиль фрилансера
// (если передан) и сообщение outbox с письмом подтверждения.
func (r *UserRepository) CreateWithOutbox(ctx context.Context, user *models.User, profile *models.FreelanceProfile, msg *models.OutboxMessage) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO users (first_name, last_name, email, phone, whatsapp, password_hash, role, city, address, status, verification_token)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at, updated_at
		`
		if err := tx.QueryRowxContext(ctx, query,
			user.FirstName, user.LastName, user.Email, user.Phone, user.WhatsApp, user.PasswordHash,
			user.Role, user.City, user.Address, user.Status, user.VerificationToken,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			if common.IsUniqueViolation(err, "users_email_key") {
				return ErrEmailTaken
			}
			return fmt.Errorf("user repository: create %w", err)
		}

		if profile != nil {
			profile.UserID = user.ID
			if err := insertFreelanceProfile(ctx, tx, profile); err != nil {
				return err
			}
		}

		if msg != nil {
			return insertOutbox(ctx, tx, msg)
		}
		return nil
	})
	return err
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, r.db, "users", id, ErrUserNotFound)
}

// GetByEmail ищет пользователя по email без учёта регистра.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}
	return &user, nil
}

// MarkEmailVerified подтверждает email и сбрасывает токен.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email_verified_at = NOW(), verification_token = NULL, updated_at = NOW()
		WHERE id = $1 AND email_verified_at IS NULL
	`, userID)
	if err != nil {
		return fmt.Errorf("user repository: mark verified %w", err)
	}
	return expectOne(res, ErrAlreadyVerified)
}

// ReplaceVerificationToken записывает новый токен и ставит письмо в outbox.
func (r *UserRepository) ReplaceVerificationToken(ctx context.Context, userID uuid.UUID, token string, msg *models.OutboxMessage) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE users SET verification_token = $2, updated_at = NOW()
			WHERE id = $1 AND email_verified_at IS NULL
		`, userID, token)
		if err != nil {
			return fmt.Errorf("user repository: replace token %w", err)
		}
		if err := expectOne(res, ErrAlreadyVerified); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, msg)
	})
}

// UpdateLastLogin обновляет время последнего входа.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: update last login %w", err)
	}
	return nil
}

// UpdateContact сохраняет редактируемые поля профиля пользователя.
func (r *UserRepository) UpdateContact(ctx context.Context, user *models.User) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, whatsapp = $5, city = $6, address = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, user.ID, user.FirstName, user.LastName, user.Phone, user.WhatsApp, user.City, user.Address).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user repository: update contact %w", err)
	}
	return nil
}

// UpdatePassword меняет хеш пароля.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, hash)
	if err != nil {
		return fmt.Errorf("user repository: update password %w", err)
	}
	return expectOne(res, ErrUserNotFound)
}

// UpdateStatus меняет статус учётной записи.
func (r *UserRepository) UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, userID, status)
	if err != nil {
		return fmt.Errorf("user repository: update status %w", err)
	}
	return expectOne(res, ErrUserNotFound)
}

// List возвращает страницу пользователей и общее количество.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter, limit, offset int) ([]models.User, int, error) {
	var where common.Where
	if filter.Role != "" {
		where.Add("role = ?", filter.Role)
	}
	if filter.Status != "" {
		where.Add("status = ?", filter.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where.SQL(), where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("user repository: count %w", err)
	}

	page, args := where.Page(limit, offset)
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT * FROM users`+where.SQL()+` ORDER BY created_at DESC`+page, args...); err != nil {
		return nil, 0, fmt.Errorf("user repository: list %w", err)
	}
	return users, total, nil
}

// CreateSession сохраняет refresh сессию.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, session.UserID, session.RefreshToken, session.UserAgent, session.IPAddress, session.ExpiresAt).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}
	return nil
}

// GetSession ищет действующую сессию по refresh токену.
func (r *UserRepository) GetSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	var session models.Session
	if err := r.db.GetContext(ctx, &session, `
		SELECT * FROM user_sessions WHERE refresh_token = $1 AND expires_at > NOW()
	`, refreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("user repository: get session %w", err)
	}
	return &session, nil
}

// DeleteSession удаляет сессию по refresh токену.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}
	return expectOne(res, ErrSessionNotFound)
}

// expectOne возвращает notFound, если запрос не затронул ни одной строки.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
