// Package notifications delivers outbound emails outside the transaction that
// caused them. Rows are staged in the notifications table inside the caller's
// transaction, their ids are pushed to a Redis list after commit, and the
// Dispatcher drains that list. The Sweeper re-queues rows a lost push left behind.
package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultQueueKey = "notifications:queue"

// Publisher hands committed notification ids to the delivery pipeline.
// Publishing never fails the caller; lost ids are recovered by the Sweeper.
type Publisher interface {
	Publish(ctx context.Context, ids ...uuid.UUID)
}

// Queue is a Redis list of notification ids.
type Queue struct {
	Rdb *redis.Client
	Key string
}

func (q *Queue) key() string {
	if q.Key != "" {
		return q.Key
	}
	return defaultQueueKey
}

func (q *Queue) Push(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	vals := make([]interface{}, len(ids))
	for i, id := range ids {
		vals[i] = id.String()
	}
	return q.Rdb.LPush(ctx, q.key(), vals...).Err()
}

func (q *Queue) Publish(ctx context.Context, ids ...uuid.UUID) {
	if q == nil || q.Rdb == nil {
		return
	}
	if err := q.Push(ctx, ids...); err != nil {
		log.Warn().Err(err).Int("count", len(ids)).Msg("notification publish failed; sweeper will retry")
	}
}

// Pop blocks up to timeout for the next id. ok is false on timeout.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (id uuid.UUID, ok bool, err error) {
	res, err := q.Rdb.BRPop(ctx, timeout, q.key()).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err = uuid.Parse(res[1])
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// TryPop returns the next id without blocking. ok is false when the list is empty.
func (q *Queue) TryPop(ctx context.Context) (id uuid.UUID, ok bool, err error) {
	res, err := q.Rdb.RPop(ctx, q.key()).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err = uuid.Parse(res)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.Rdb.LLen(ctx, q.key()).Result()
}
