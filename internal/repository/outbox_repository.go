package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/repository/common"
)

// OutboxRepository хранит отложенные сообщения для фоновой доставки.
type OutboxRepository struct {
	db *sqlx.DB
}

// NewOutboxRepository создаёт экземпляр репозитория.
func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// insertOutbox пишет сообщение в транзакции вызывающего.
func insertOutbox(ctx context.Context, tx sqlx.QueryerContext, msg *models.OutboxMessage) error {
	if msg.Status == "" {
		msg.Status = models.OutboxStatusPending
	}
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO outbox_messages (kind, payload, status)
		VALUES ($1, $2, $3)
		RETURNING id, next_attempt_at, created_at
	`, msg.Kind, string(msg.Payload), msg.Status).Scan(&msg.ID, &msg.NextAttemptAt, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("outbox repository: insert %w", err)
	}
	return nil
}

// ClaimDue забирает до limit готовых к отправке сообщений. Каждое получает attempts+1
// и сдвиг next_attempt_at на lease: сообщение упавшего воркера вернётся после аренды.
func (r *OutboxRepository) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]models.OutboxMessage, error) {
	claimed := []models.OutboxMessage{}
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &claimed, `
			UPDATE outbox_messages
			SET attempts = attempts + 1,
			    next_attempt_at = NOW() + make_interval(secs => $2)
			WHERE id IN (
				SELECT id FROM outbox_messages
				WHERE status = 'pending' AND next_attempt_at <= NOW()
				ORDER BY next_attempt_at
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			)
			RETURNING *
		`, limit, lease.Seconds())
	})
	if err != nil {
		return nil, fmt.Errorf("outbox repository: claim %w", err)
	}
	return claimed, nil
}

// MarkSent отмечает сообщение доставленным.
func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages SET status = 'sent', sent_at = NOW(), last_error = NULL WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("outbox repository: mark sent %w", err)
	}
	return nil
}

// MarkRetry откладывает следующую попытку до retryAt.
func (r *OutboxRepository) MarkRetry(ctx context.Context, id uuid.UUID, retryAt time.Time, lastErr string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages SET next_attempt_at = $2, last_error = $3 WHERE id = $1
	`, id, retryAt, lastErr); err != nil {
		return fmt.Errorf("outbox repository: mark retry %w", err)
	}
	return nil
}

// MarkFailed прекращает попытки доставки.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages SET status = 'failed', last_error = $2 WHERE id = $1
	`, id, lastErr); err != nil {
		return fmt.Errorf("outbox repository: mark failed %w", err)
	}
	return nil
}
