package tokenstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/masomo/dashboard/core/session"
)

// RedisStore keeps the credential under session.TokenKey in a Redis database.
type RedisStore struct {
	rdb *redis.Client
	key string
}

var _ session.TokenStore = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, key: session.TokenKey}
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	return errors.Wrap(s.rdb.Set(ctx, s.key, token, 0).Err(), "redis set token")
}

func (s *RedisStore) Load(ctx context.Context) (string, bool, error) {
	token, err := s.rdb.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get token")
	}
	return token, true, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return errors.Wrap(s.rdb.Del(ctx, s.key).Err(), "redis del token")
}
