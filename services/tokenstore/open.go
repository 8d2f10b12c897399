// Package tokenstore provides the durable session.TokenStore backends.
package tokenstore

import (
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/masomo/dashboard/core"
	"github.com/masomo/dashboard/core/session"
)

// Open returns the token store selected by conf.Client.TokenStore.
func Open(conf *core.Config) (session.TokenStore, error) {
	switch conf.Client.TokenStore {
	case "file", "":
		return NewFileStore(conf.Client.TokenDir)
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.Client.RedisAddr,
			Password: conf.Client.RedisPasswd,
			DB:       conf.Client.RedisDB,
		})
		return NewRedisStore(rdb), nil
	case "memory":
		return session.NewMemoryTokenStore(), nil
	default:
		return nil, errors.Errorf("tokenstore: unknown backend %q", conf.Client.TokenStore)
	}
}
