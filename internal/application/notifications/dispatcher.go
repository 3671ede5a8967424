package notifications

import (
	"context"
	"errors"
	"time"

	"axis-backend/internal/application/emails"
	"axis-backend/internal/domain"
	"axis-backend/internal/metrics"
	"axis-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const DefaultMaxAttempts = 5

// Dispatcher renders and sends queued notifications.
type Dispatcher struct {
	DB          *gorm.DB
	Queue       *Queue
	Sender      emails.Sender
	MaxAttempts int
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
	PollTimeout time.Duration
	Now         func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dispatcher) maxAttempts() int {
	if d.MaxAttempts > 0 {
		return d.MaxAttempts
	}
	return DefaultMaxAttempts
}

// Run drains the queue until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	timeout := d.PollTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d.Logger.Info().Msg("notification dispatcher started")
	for {
		if ctx.Err() != nil {
			d.Logger.Info().Msg("notification dispatcher stopped")
			return
		}
		id, ok, err := d.Queue.Pop(ctx, timeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			d.Logger.Error().Err(err).Msg("notification queue pop failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if !ok {
			continue
		}
		if err := d.Deliver(ctx, id); err != nil {
			d.Logger.Warn().Err(err).Str("notification_id", id.String()).Msg("notification delivery failed")
		}
	}
}

// Drain delivers up to limit queued ids without blocking and returns how many
// were taken off the queue. It serves hosts that cannot run Run in the background.
func (d *Dispatcher) Drain(ctx context.Context, limit int) (int, error) {
	taken := 0
	for taken < limit {
		id, ok, err := d.Queue.TryPop(ctx)
		if err != nil {
			return taken, err
		}
		if !ok {
			break
		}
		taken++
		if err := d.Deliver(ctx, id); err != nil {
			d.Logger.Warn().Err(err).Str("notification_id", id.String()).Msg("notification delivery failed")
		}
	}
	return taken, nil
}

// Deliver sends one notification. Rows that are no longer queued are skipped,
// so duplicate ids on the queue are harmless.
func (d *Dispatcher) Deliver(ctx context.Context, id uuid.UUID) error {
	var n domain.Notification
	err := d.DB.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if n.Status != domain.NotificationQueued {
		return nil
	}

	msg, err := emails.Render(n.Kind, n.Recipient, n.Params)
	if err == nil {
		err = d.Sender.Send(ctx, msg)
	}

	attempts := n.Attempts + 1
	if err == nil {
		now := d.now()
		d.Metrics.RecordNotification(string(n.Kind), "sent")
		return d.DB.WithContext(ctx).Model(&n).Updates(map[string]interface{}{
			"status":     domain.NotificationSent,
			"attempts":   attempts,
			"sent_at":    &now,
			"last_error": nil,
		}).Error
	}

	status := domain.NotificationQueued
	result := "retry"
	// A template error will not succeed on retry.
	if attempts >= d.maxAttempts() || apperr.IsKind(err, apperr.KindValidation) {
		status = domain.NotificationFailed
		result = "failed"
	}
	d.Metrics.RecordNotification(string(n.Kind), result)
	msgText := err.Error()
	if uerr := d.DB.WithContext(ctx).Model(&n).Updates(map[string]interface{}{
		"status":     status,
		"attempts":   attempts,
		"last_error": &msgText,
	}).Error; uerr != nil {
		return uerr
	}
	return err
}
