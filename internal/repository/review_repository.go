package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/repository/common"
)

var (
	// ErrReviewNotFound возвращается, когда отзыв не найден.
	ErrReviewNotFound = errors.New("review not found")
	// ErrDuplicateReview возвращается, если клиент уже оценил фрилансера по этому проекту.
	ErrDuplicateReview = errors.New("review already exists")
)

// ReviewRepository отвечает за отзывы. Каждая мутация пересчитывает рейтинг
// фрилансера в той же транзакции.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository создаёт экземпляр репозитория.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// lockFreelance блокирует строку профиля до конца транзакции.
func lockFreelance(ctx context.Context, tx *sqlx.Tx, freelanceID uuid.UUID) error {
	var id uuid.UUID
	if err := tx.GetContext(ctx, &id, `SELECT id FROM freelance_profiles WHERE id = $1 FOR UPDATE`, freelanceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFreelanceNotFound
		}
		return fmt.Errorf("review repository: lock freelance %w", err)
	}
	return nil
}

// recomputeRating записывает среднее и количество опубликованных отзывов в профиль.
func recomputeRating(ctx context.Context, tx sqlx.ExtContext, freelanceID uuid.UUID) (*models.RatingSummary, error) {
	var summary models.RatingSummary
	if err := sqlx.GetContext(ctx, tx, &summary, `
		SELECT COALESCE(AVG(rating), 0)::float8 AS average, COUNT(*) AS count
		FROM reviews
		WHERE freelance_id = $1 AND status = 'published'
	`, freelanceID); err != nil {
		return nil, fmt.Errorf("review repository: aggregate %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE freelance_profiles SET average_rating = $2, review_count = $3, updated_at = NOW() WHERE id = $1
	`, freelanceID, summary.Average, summary.Count); err != nil {
		return nil, fmt.Errorf("review repository: write rating %w", err)
	}
	return &summary, nil
}

// Create проверяет уникальность (client, freelance, project), вставляет отзыв
// и пересчитывает рейтинг. Блокировка профиля сериализует параллельные отзывы.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockFreelance(ctx, tx, review.FreelanceID); err != nil {
			return err
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists, `
			SELECT EXISTS (
				SELECT 1 FROM reviews
				WHERE client_id = $1 AND freelance_id = $2 AND project_id IS NOT DISTINCT FROM $3
			)
		`, review.ClientID, review.FreelanceID, review.ProjectID); err != nil {
			return fmt.Errorf("review repository: duplicate check %w", err)
		}
		if exists {
			return ErrDuplicateReview
		}

		if review.Status == "" {
			review.Status = models.ReviewStatusPublished
		}
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO reviews (client_id, freelance_id, project_id, rating, comment, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`, review.ClientID, review.FreelanceID, review.ProjectID, review.Rating, review.Comment, review.Status).
			Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt); err != nil {
			return fmt.Errorf("review repository: create %w", err)
		}

		_, err := recomputeRating(ctx, tx, review.FreelanceID)
		return err
	})
}

// GetByID возвращает отзыв по идентификатору.
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	return common.GetByID[models.Review](ctx, r.db, "reviews", id, ErrReviewNotFound)
}

// Update меняет оценку и комментарий.
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockFreelance(ctx, tx, review.FreelanceID); err != nil {
			return err
		}
		if err := tx.QueryRowxContext(ctx, `
			UPDATE reviews SET rating = $2, comment = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`, review.ID, review.Rating, review.Comment).Scan(&review.UpdatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("review repository: update %w", err)
		}
		_, err := recomputeRating(ctx, tx, review.FreelanceID)
		return err
	})
}

// Delete удаляет отзыв.
func (r *ReviewRepository) Delete(ctx context.Context, review *models.Review) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockFreelance(ctx, tx, review.FreelanceID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, review.ID)
		if err != nil {
			return fmt.Errorf("review repository: delete %w", err)
		}
		if err := expectOne(res, ErrReviewNotFound); err != nil {
			return err
		}
		_, err = recomputeRating(ctx, tx, review.FreelanceID)
		return err
	})
}

// SetStatus меняет статус отзыва (например, жалоба снимает его с публикации).
func (r *ReviewRepository) SetStatus(ctx context.Context, review *models.Review, status string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockFreelance(ctx, tx, review.FreelanceID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE reviews SET status = $2, updated_at = NOW() WHERE id = $1`, review.ID, status)
		if err != nil {
			return fmt.Errorf("review repository: set status %w", err)
		}
		if err := expectOne(res, ErrReviewNotFound); err != nil {
			return err
		}
		review.Status = status
		_, err = recomputeRating(ctx, tx, review.FreelanceID)
		return err
	})
}

// RecomputeRating пересчитывает рейтинг вне мутации отзыва.
func (r *ReviewRepository) RecomputeRating(ctx context.Context, freelanceID uuid.UUID) (*models.RatingSummary, error) {
	var summary *models.RatingSummary
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockFreelance(ctx, tx, freelanceID); err != nil {
			return err
		}
		var err error
		summary, err = recomputeRating(ctx, tx, freelanceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ListByClient возвращает отзывы автора.
func (r *ReviewRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Review, int, error) {
	return r.list(ctx, `client_id = $1`, clientID, limit, offset)
}

// ListPublishedByFreelance возвращает опубликованные отзывы о фрилансере.
func (r *ReviewRepository) ListPublishedByFreelance(ctx context.Context, freelanceID uuid.UUID, limit, offset int) ([]models.Review, int, error) {
	return r.list(ctx, `freelance_id = $1 AND status = 'published'`, freelanceID, limit, offset)
}

func (r *ReviewRepository) list(ctx context.Context, cond string, arg any, limit, offset int) ([]models.Review, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews WHERE `+cond, arg); err != nil {
		return nil, 0, fmt.Errorf("review repository: count %w", err)
	}
	items := []models.Review{}
	if err := r.db.SelectContext(ctx, &items, `SELECT * FROM reviews WHERE `+cond+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`, arg, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("review repository: list %w", err)
	}
	return items, total, nil
}
