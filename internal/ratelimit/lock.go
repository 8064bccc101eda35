package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// deletes the key only while it still holds the caller's token
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var errEmptyLockKey = errors.New("lock_key_empty")

// mutex is a redis SET NX lock. Each acquisition stores a fresh uuid that the
// holder presents again on unlock.
type mutex struct {
	client *redis.Client
	unlock *redis.Script
}

func newMutex(client *redis.Client) *mutex {
	if client == nil {
		return nil
	}
	return &mutex{client: client, unlock: redis.NewScript(unlockScript)}
}

func (m *mutex) acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, errEmptyLockKey
	}
	token := uuid.NewString()
	acquired, err := m.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, acquired, nil
}

func (m *mutex) release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	return m.unlock.Run(ctx, m.client, []string{key}, token).Err()
}
