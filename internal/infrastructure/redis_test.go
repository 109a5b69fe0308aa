package infrastructure

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestRedisUnlockLogsReleaseFailure(t *testing.T) {
	// Nothing listens on port 1.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	var buf bytes.Buffer
	locker := NewRedisPairLocker(client, time.Minute, zerolog.New(&buf))
	locker.unlocker(sessionLockKey("t1", "alice"), "token")()

	out := buf.String()
	if !strings.Contains(out, "failed to release session lock") || !strings.Contains(out, "salesboy:lock:session:t1:alice") {
		t.Errorf("release failure not logged: %q", out)
	}
}
