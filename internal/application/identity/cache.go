package identity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const profileKeyPrefix = "identity:profile:"

// DefaultProfileTTL bounds how stale a cached display name may be.
const DefaultProfileTTL = 5 * time.Minute

// CachedDirectory fronts another Directory with Redis. Cache failures fall
// through to the backing directory.
type CachedDirectory struct {
	Next Directory
	Rdb  *redis.Client
	TTL  time.Duration
}

func (d *CachedDirectory) Profile(ctx context.Context, userID string) (*Profile, error) {
	if d.Rdb == nil || userID == "" {
		return d.Next.Profile(ctx, userID)
	}
	key := profileKeyPrefix + userID
	if b, err := d.Rdb.Get(ctx, key).Bytes(); err == nil {
		var p Profile
		if json.Unmarshal(b, &p) == nil {
			return &p, nil
		}
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("profile cache read failed")
	}

	p, err := d.Next.Profile(ctx, userID)
	if err != nil || p == nil {
		return p, err
	}
	ttl := d.TTL
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	if b, err := json.Marshal(p); err == nil {
		if err := d.Rdb.Set(ctx, key, b, ttl).Err(); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("profile cache write failed")
		}
	}
	return p, nil
}

// Authoritative returns the directory behind any cache layers, for checks
// that must see the current email rather than a cached copy.
func Authoritative(d Directory) Directory {
	for {
		c, ok := d.(*CachedDirectory)
		if !ok || c.Next == nil {
			return d
		}
		d = c.Next
	}
}

// Invalidate drops a cached profile.
func (d *CachedDirectory) Invalidate(ctx context.Context, userID string) error {
	if d.Rdb == nil {
		return nil
	}
	return d.Rdb.Del(ctx, profileKeyPrefix+userID).Err()
}
