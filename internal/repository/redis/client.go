package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// InitRedis connects to addr. A server that does not answer is not fatal:
// the caller gets nil and runs without a cache.
func InitRedis(ctx context.Context, addr, password string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Str("component", "redis").Err(err).Str("addr", addr).
			Msg("could not connect to redis, running without cache")
		client.Close()
		return nil
	}

	log.Info().Str("component", "redis").Str("addr", addr).Msg("connected")
	return client
}
