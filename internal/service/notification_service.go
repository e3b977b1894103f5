package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-marketplace/internal/logger"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-marketplace/internal/policy"
	"github.com/ignatzorin/freelance-marketplace/internal/repository"
)

// EventNotificationCreated событие websocket о новом уведомлении.
const EventNotificationCreated = "notification.created"

const defaultNotificationsPerPage = 20

// NotificationStore хранилище уведомлений.
type NotificationStore interface {
	CreateBatch(ctx context.Context, items []models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkUnread(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
}

// Pusher доставляет событие всем соединениям пользователя.
type Pusher interface {
	PushToUser(userID uuid.UUID, event string, data any)
}

// NotifyInput описывает рассылку одного сообщения нескольким получателям.
type NotifyInput struct {
	Recipients []uuid.UUID
	Exclude    uuid.UUID
	Title      string
	Message    string
	Type       string
	Data       any
}

// NotificationService рассылает и обслуживает уведомления.
type NotificationService struct {
	store  NotificationStore
	pusher Pusher
	now    func() time.Time
}

// NewNotificationService создаёт сервис. pusher может быть nil.
func NewNotificationService(store NotificationStore, pusher Pusher) *NotificationService {
	return &NotificationService{store: store, pusher: pusher, now: time.Now}
}

// Notify создаёт по строке на получателя одной транзакцией и после фиксации
// отправляет их в websocket. Повторы получателей схлопываются, Exclude отбрасывается.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) ([]models.Notification, error) {
	recipients := uniqueRecipients(in.Recipients, in.Exclude)
	if len(recipients) == 0 {
		return nil, nil
	}

	data := json.RawMessage(`{}`)
	if in.Data != nil {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal data %w", err)
		}
		data = raw
	}

	createdAt := s.now().UTC()
	items := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		items = append(items, models.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Title:     in.Title,
			Message:   in.Message,
			Type:      in.Type,
			Data:      data,
			CreatedAt: createdAt,
		})
	}

	if err := s.store.CreateBatch(ctx, items); err != nil {
		return nil, err
	}

	if s.pusher != nil {
		for i := range items {
			s.pusher.PushToUser(items[i].UserID, EventNotificationCreated, items[i])
		}
	}
	return items, nil
}

func uniqueRecipients(ids []uuid.UUID, exclude uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// List возвращает страницу уведомлений пользователя.
func (s *NotificationService) List(ctx context.Context, actor policy.Actor, unreadOnly bool, page Page) (*Paged[models.Notification], error) {
	page = page.normalize(defaultNotificationsPerPage)
	items, total, err := s.store.List(ctx, actor.ID, unreadOnly, page.PerPage, page.offset())
	if err != nil {
		return nil, err
	}
	return paged(items, total, page), nil
}

// CountUnread возвращает число непрочитанных.
func (s *NotificationService) CountUnread(ctx context.Context, actor policy.Actor) (int, error) {
	return s.store.CountUnread(ctx, actor.ID)
}

// owned загружает уведомление и проверяет, что оно адресовано actor: 404 раньше 403.
func (s *NotificationService) owned(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Notification, error) {
	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return nil, apperror.NotFound("уведомление не найдено")
		}
		return nil, err
	}
	if err := policy.Authorize(actor, policy.NotificationAccess, policy.Owned(n.UserID)); err != nil {
		return nil, err
	}
	return n, nil
}

// MarkRead отмечает уведомление прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.store.MarkRead(ctx, id)
}

// MarkUnread возвращает уведомление в непрочитанные.
func (s *NotificationService) MarkUnread(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.store.MarkUnread(ctx, id)
}

// MarkAllRead отмечает все уведомления прочитанными и возвращает их число.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor policy.Actor) (int64, error) {
	return s.store.MarkAllRead(ctx, actor.ID)
}

// Delete удаляет уведомление.
func (s *NotificationService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// DeleteMany удаляет уведомления из списка, принадлежащие actor.
func (s *NotificationService) DeleteMany(ctx context.Context, actor policy.Actor, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, apperror.Field("ids", "список уведомлений не может быть пустым")
	}
	deleted, err := s.store.DeleteMany(ctx, actor.ID, ids)
	if err != nil {
		return 0, err
	}
	logger.Log.WithFields(map[string]any{
		"user_id":   actor.ID,
		"requested": len(ids),
		"deleted":   deleted,
	}).Debug("notifications deleted")
	return deleted, nil
}
