package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"axis-backend/internal/domain"
	"axis-backend/internal/metrics"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	DefaultSweepSchedule = "@every 1m"
	defaultStaleAfter    = time.Minute
	sweepBatch           = 500
)

// Sweeper periodically re-queues notifications that are still queued after
// StaleAfter, which covers pushes lost to a Redis outage and failed attempts
// awaiting retry.
type Sweeper struct {
	DB         *gorm.DB
	Queue      *Queue
	StaleAfter time.Duration
	Metrics    *metrics.Metrics
	Now        func() time.Time

	cron    *cron.Cron
	logger  zerolog.Logger
	mu      sync.Mutex
	running bool
}

func NewSweeper(db *gorm.DB, queue *Queue, m *metrics.Metrics, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		DB:         db,
		Queue:      queue,
		StaleAfter: defaultStaleAfter,
		Metrics:    m,
		cron:       cron.New(),
		logger:     logger.With().Str("component", "notification_sweeper").Logger(),
	}
}

// Start schedules the sweep; schedule uses cron syntax or descriptors like "@every 1m".
func (s *Sweeper) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("notification sweeper already running")
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if _, err := s.cron.AddFunc(schedule, s.runSweep); err != nil {
		return err
	}
	s.cron.Start()
	s.running = true
	s.logger.Info().Str("schedule", schedule).Msg("notification sweeper started")
	return nil
}

// Stop stops the schedule; the returned context is done once a running sweep finishes.
func (s *Sweeper) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	s.running = false
	s.logger.Info().Msg("stopping notification sweeper")
	return s.cron.Stop()
}

func (s *Sweeper) runSweep() {
	if _, err := s.RunNow(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("notification sweep failed")
	}
}

// RunNow re-queues stale notifications and returns how many were pushed.
func (s *Sweeper) RunNow(ctx context.Context) (int, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	cutoff := now.Add(-s.StaleAfter)

	var ids []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("status = ? AND updated_at < ?", domain.NotificationQueued, cutoff).
		Order("created_at ASC").
		Limit(sweepBatch).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		if err := s.Queue.Push(ctx, ids...); err != nil {
			return 0, err
		}
		// Pushed rows are not stale again until StaleAfter has passed.
		if err := s.DB.WithContext(ctx).Model(&domain.Notification{}).
			Where("id IN ?", ids).
			Update("updated_at", now).Error; err != nil {
			return 0, err
		}
		s.logger.Info().Int("count", len(ids)).Msg("re-queued stale notifications")
	}
	if n, err := s.Queue.Len(ctx); err == nil {
		s.Metrics.SetQueueLength(n)
	}
	return len(ids), nil
}
