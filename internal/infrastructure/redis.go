package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrLockTimeout is returned when a pair lock could not be taken before ctx ended.
var ErrLockTimeout = errors.New("timed out waiting for session lock")

const lockRetryInterval = 50 * time.Millisecond

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisPairLocker serializes intent-session work across orchestrator replicas.
type RedisPairLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisPairLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisPairLocker {
	return &RedisPairLocker{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "session_lock").Logger(),
	}
}

func sessionLockKey(tenantID, counterparty string) string {
	return fmt.Sprintf("salesboy:lock:session:%s:%s", tenantID, counterparty)
}

func (l *RedisPairLocker) Lock(ctx context.Context, tenantID, counterparty string) (func(), error) {
	key := sessionLockKey(tenantID, counterparty)
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}

	return l.unlocker(key, token), nil
}

func (l *RedisPairLocker) unlocker(key, token string) func() {
	return func() {
		// Released on a fresh context so a cancelled caller still frees the key.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		deleted, err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Int()
		if err != nil {
			l.logger.Error().Err(err).Str("key", key).Msg("failed to release session lock; it expires after its ttl")
			return
		}
		if deleted == 0 {
			l.logger.Warn().Str("key", key).Dur("ttl", l.ttl).Msg("session lock expired before release")
		}
	}
}
