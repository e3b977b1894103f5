package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-marketplace/internal/logger"
)

const runTimeout = time.Minute

// Scheduler запускает Dispatcher по расписанию cron. Пересекающиеся запуски пропускаются.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher *Dispatcher
	schedule   string
	log        *logrus.Entry

	mu      sync.Mutex
	running bool
}

func NewScheduler(dispatcher *Dispatcher, schedule string) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		dispatcher: dispatcher,
		schedule:   schedule,
		log:        logger.Log.WithField("component", "outbox_scheduler"),
	}
}

// Start регистрирует задачу и запускает cron.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	s.log.WithField("schedule", s.schedule).Info("outbox scheduler started")
	return nil
}

// Stop останавливает cron и ждёт текущий запуск, но не дольше ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("outbox scheduler stop timed out")
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("outbox tick panic")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	sent, err := s.dispatcher.RunOnce(ctx)
	if err != nil {
		s.log.WithError(err).Error("outbox run failed")
		return
	}
	if sent > 0 {
		s.log.WithField("sent", sent).Info("outbox messages delivered")
	}
}
