package database

import (
	"context"

	"github.com/Abraxas-365/bastion/pkg/config"
	"github.com/Abraxas-365/craftable/errx"
	"github.com/go-redis/redis/v8"
)

// NewRedisClient conecta a Redis y verifica la conexión con un ping
// acotado por pingTimeout.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.GetAddr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: pingTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errx.Wrap(err, "failed to ping redis", errx.TypeInternal).
			WithDetail("addr", cfg.GetAddr())
	}

	return client, nil
}

// CloseRedis cierra la conexión si fue creada
func CloseRedis(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
