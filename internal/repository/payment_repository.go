package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/repository/common"
)

var (
	// ErrPaymentNotFound возвращается, когда платёж не найден.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentNotPending возвращается, когда платёж уже подтверждён или отклонён.
	ErrPaymentNotPending = errors.New("payment is not pending")
	// ErrDuplicateReference возвращается при коллизии референса.
	ErrDuplicateReference = errors.New("payment reference already exists")
)

// PaymentRepository отвечает за платежи продвижения.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository создаёт экземпляр репозитория.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create сохраняет новый платёж в статусе pending.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO payments (freelance_id, user_id, plan, amount, currency, method, phone, reference, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, p.FreelanceID, p.UserID, p.Plan, p.Amount, p.Currency, p.Method, p.Phone, p.Reference, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err, "payments_reference_key") {
			return ErrDuplicateReference
		}
		return fmt.Errorf("payment repository: create %w", err)
	}
	return nil
}

// GetByID возвращает платёж по идентификатору.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return common.GetByID[models.Payment](ctx, r.db, "payments", id, ErrPaymentNotFound)
}

// GetByReference возвращает платёж по референсу провайдера.
func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM payments WHERE reference = $1`, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by reference %w", err)
	}
	return &p, nil
}

// ListByUser возвращает платежи пользователя, новые первыми.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Payment, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM payments WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("payment repository: count %w", err)
	}

	items := []models.Payment{}
	if err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM payments WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("payment repository: list %w", err)
	}
	return items, total, nil
}

// MarkValidated переводит платёж pending → validated и заменяет окно продвижения профиля.
// Оба изменения в одной транзакции; платёж не в pending даёт ErrPaymentNotPending без изменений.
func (r *PaymentRepository) MarkValidated(ctx context.Context, id uuid.UUID, window models.FeatureWindow) (*models.Payment, error) {
	var p models.Payment
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &p, `
			UPDATE payments
			SET status = 'validated', validated_at = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
			RETURNING *
		`, id, window.From); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPaymentNotPending
			}
			return fmt.Errorf("payment repository: validate %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE freelance_profiles
			SET is_featured = TRUE, featured_from = $2, featured_until = $3, updated_at = NOW()
			WHERE id = $1
		`, p.FreelanceID, window.From, window.Until)
		if err != nil {
			return fmt.Errorf("payment repository: activate feature %w", err)
		}
		return expectOne(res, ErrFreelanceNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkFailed переводит платёж pending → failed. Профиль не меняется.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.GetContext(ctx, &p, `
		UPDATE payments
		SET status = 'failed', failed_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, id, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotPending
		}
		return nil, fmt.Errorf("payment repository: fail %w", err)
	}
	return &p, nil
}
