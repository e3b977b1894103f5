package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/repository/common"
)

// ErrNotificationNotFound возвращается, когда уведомление не найдено.
var ErrNotificationNotFound = errors.New("notification not found")

const notificationBatchSize = 200

// NotificationRepository отвечает за уведомления пользователей.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository создаёт экземпляр репозитория.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateBatch вставляет все уведомления одной транзакцией: либо все, либо ни одного.
func (r *NotificationRepository) CreateBatch(ctx context.Context, items []models.Notification) error {
	if len(items) == 0 {
		return nil
	}
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		inserter := common.NewBatchInserter(tx,
			`INSERT INTO notifications (id, user_id, title, message, type, data, is_read, created_at)`,
			8, notificationBatchSize)
		for _, n := range items {
			data := "{}"
			if len(n.Data) > 0 {
				data = string(n.Data)
			}
			if err := inserter.Add(ctx, n.ID, n.UserID, n.Title, n.Message, n.Type, data, n.IsRead, n.CreatedAt); err != nil {
				return fmt.Errorf("notification repository: %w", err)
			}
		}
		if err := inserter.Flush(ctx); err != nil {
			return fmt.Errorf("notification repository: %w", err)
		}
		return nil
	})
}

// GetByID возвращает уведомление.
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	return common.GetByID[models.Notification](ctx, r.db, "notifications", id, ErrNotificationNotFound)
}

// List возвращает уведомления пользователя, новые первыми.
func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int, error) {
	var where common.Where
	where.Add("user_id = ?", userID)
	if unreadOnly {
		where.AddRaw("is_read = FALSE")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`+where.SQL(), where.Args()...); err != nil {
		return nil, 0, fmt.Errorf("notification repository: count %w", err)
	}

	page, args := where.Page(limit, offset)
	items := []models.Notification{}
	if err := r.db.SelectContext(ctx, &items, `SELECT * FROM notifications`+where.SQL()+` ORDER BY created_at DESC`+page, args...); err != nil {
		return nil, 0, fmt.Errorf("notification repository: list %w", err)
	}
	return items, total, nil
}

// CountUnread возвращает количество непрочитанных.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID); err != nil {
		return 0, fmt.Errorf("notification repository: count unread %w", err)
	}
	return n, nil
}

// MarkRead отмечает уведомление прочитанным. Повторный вызов не меняет read_at.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, NOW()) WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("notification repository: mark read %w", err)
	}
	return expectOne(res, ErrNotificationNotFound)
}

// MarkUnread возвращает уведомление в непрочитанные.
func (r *NotificationRepository) MarkUnread(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = FALSE, read_at = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification repository: mark unread %w", err)
	}
	return expectOne(res, ErrNotificationNotFound)
}

// MarkAllRead отмечает прочитанными все уведомления пользователя и возвращает их число.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("notification repository: mark all read %w", err)
	}
	return res.RowsAffected()
}

// Delete удаляет уведомление.
func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification repository: delete %w", err)
	}
	return expectOne(res, ErrNotificationNotFound)
}

// DeleteMany удаляет перечисленные уведомления, принадлежащие userID. Чужие идентификаторы игнорируются.
func (r *NotificationRepository) DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1 AND id = ANY($2::uuid[])`, userID, pq.Array(raw))
	if err != nil {
		return 0, fmt.Errorf("notification repository: delete many %w", err)
	}
	return res.RowsAffected()
}
