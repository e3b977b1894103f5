package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-marketplace/internal/logger"
	"github.com/ignatzorin/freelance-marketplace/internal/mailer"
	"github.com/ignatzorin/freelance-marketplace/internal/models"
)

const (
	defaultLease   = 2 * time.Minute
	baseBackoff    = 30 * time.Second
	maxBackoff     = time.Hour
	maxErrorLength = 1000
)

// Store очередь сообщений в БД.
type Store interface {
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]models.OutboxMessage, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkRetry(ctx context.Context, id uuid.UUID, retryAt time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastErr string) error
}

// Handler доставляет сообщение одного вида.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher забирает готовые сообщения и доставляет их. Доставка не реже одного раза:
// сообщение упавшего процесса снова станет доступно после аренды.
type Dispatcher struct {
	store       Store
	handlers    map[string]Handler
	batchSize   int
	maxAttempts int
	lease       time.Duration
	now         func() time.Time
	log         *logrus.Entry
}

func NewDispatcher(store Store, batchSize, maxAttempts int) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 20
	}
	if maxAttempts <= 0 {
		maxAttempts = 8
	}
	return &Dispatcher{
		store:       store,
		handlers:    map[string]Handler{},
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		lease:       defaultLease,
		now:         time.Now,
		log:         logger.Log.WithField("component", "outbox"),
	}
}

// Handle регистрирует обработчик для вида сообщения.
func (d *Dispatcher) Handle(kind string, h Handler) {
	d.handlers[kind] = h
}

// RunOnce обрабатывает одну пачку и возвращает число доставленных сообщений.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	msgs, err := d.store.ClaimDue(ctx, d.batchSize, d.lease)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, msg := range msgs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if d.deliver(ctx, msg) {
			sent++
		}
	}
	return sent, nil
}

func (d *Dispatcher) deliver(ctx context.Context, msg models.OutboxMessage) bool {
	entry := d.log.WithFields(logrus.Fields{"message_id": msg.ID, "kind": msg.Kind, "attempt": msg.Attempts})

	h, ok := d.handlers[msg.Kind]
	if !ok {
		entry.Error("no handler for outbox message")
		d.markFailed(ctx, entry, msg.ID, "unknown kind "+msg.Kind)
		return false
	}

	if err := h(ctx, msg.Payload); err != nil {
		reason := truncate(err.Error())
		if msg.Attempts >= d.maxAttempts {
			entry.WithError(err).Error("outbox message failed permanently")
			d.markFailed(ctx, entry, msg.ID, reason)
			return false
		}
		retryAt := d.now().Add(backoff(msg.Attempts))
		entry.WithError(err).WithField("retry_at", retryAt).Warn("outbox delivery failed, will retry")
		if err := d.store.MarkRetry(ctx, msg.ID, retryAt, reason); err != nil {
			entry.WithError(err).Error("mark retry")
		}
		return false
	}

	if err := d.store.MarkSent(ctx, msg.ID); err != nil {
		// Письмо ушло, но отметка не сохранилась: после аренды оно уйдёт повторно.
		entry.WithError(err).Error("mark sent")
		return false
	}
	entry.Debug("outbox message delivered")
	return true
}

func (d *Dispatcher) markFailed(ctx context.Context, entry *logrus.Entry, id uuid.UUID, reason string) {
	if err := d.store.MarkFailed(ctx, id, reason); err != nil {
		entry.WithError(err).Error("mark failed")
	}
}

// backoff экспоненциальная задержка: 30s, 1m, 2m ... не более часа.
func backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// truncate обрезает текст ошибки до maxErrorLength байт по границе символа.
func truncate(s string) string {
	if len(s) <= maxErrorLength {
		return s
	}
	n := maxErrorLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// VerifyEmailHandler отправляет письмо подтверждения email.
func VerifyEmailHandler(m mailer.Mailer) Handler {
	return func(ctx context.Context, payload json.RawMessage) error {
		var p models.VerificationEmail
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("outbox: decode verify_email payload: %w", err)
		}
		return m.Send(ctx, mailer.Message{
			To:      p.Email,
			Subject: "Подтвердите ваш email",
			Body: fmt.Sprintf(
				"Здравствуйте, %s!\n\nЧтобы подтвердить адрес, перейдите по ссылке:\n%s\n\nЕсли вы не регистрировались, просто проигнорируйте это письмо.\n",
				p.Name, p.URL,
			),
		})
	}
}
