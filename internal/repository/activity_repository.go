package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/repository/common"
)

// ErrActivityNotFound возвращается, когда запись ленты не найдена.
var ErrActivityNotFound = errors.New("activity not found")

// ActivityRepository хранит ленту активности.
type ActivityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create добавляет запись в ленту.
func (r *ActivityRepository) Create(ctx context.Context, a *models.Activity) error {
	metadata := "{}"
	if len(a.Metadata) > 0 {
		metadata = string(a.Metadata)
	}
	if err := r.db.QueryRowxContext(ctx, `
		INSERT INTO activities (user_id, type, title, description, icon, color, project_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_unread, created_at
	`, a.UserID, a.Type, a.Title, a.Description, a.Icon, a.Color, a.ProjectID, metadata).
		Scan(&a.ID, &a.IsUnread, &a.CreatedAt); err != nil {
		return fmt.Errorf("activity repository: create %w", err)
	}
	return nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	return common.GetByID[models.Activity](ctx, r.db, "activities", id, ErrActivityNotFound)
}

// List возвращает ленту пользователя, новые первыми.
func (r *ActivityRepository) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Activity, int, error) {
	var where common.Where
	where.Add("user_id = ?", userID)
	if unreadOnly {
		where.AddRaw("is_unread = TRUE")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM activities`+where.SQL(), where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("activity repository: count %w", err)
	}

	page, args := where.Page(limit, offset)
	items := []models.Activity{}
	if err := r.db.SelectContext(ctx, &items, `SELECT * FROM activities`+where.SQL()+` ORDER BY created_at DESC`+page, args...); err != nil {
		return nil, 0, fmt.Errorf("activity repository: list %w", err)
	}
	return items, total, nil
}

func (r *ActivityRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE activities SET is_unread = FALSE, read_at = COALESCE(read_at, NOW()) WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("activity repository: mark read %w", err)
	}
	return expectOne(res, ErrActivityNotFound)
}

func (r *ActivityRepository) MarkUnread(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE activities SET is_unread = TRUE, read_at = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("activity repository: mark unread %w", err)
	}
	return expectOne(res, ErrActivityNotFound)
}

// MarkAllRead отмечает всю ленту прочитанной.
func (r *ActivityRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE activities SET is_unread = FALSE, read_at = NOW() WHERE user_id = $1 AND is_unread = TRUE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("activity repository: mark all read %w", err)
	}
	return res.RowsAffected()
}
