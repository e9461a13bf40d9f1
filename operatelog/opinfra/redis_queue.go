package opinfra

import (
	"context"
	"encoding/json"

	"github.com/Abraxas-365/bastion/operatelog"
	"github.com/Abraxas-365/craftable/errx"
	"github.com/go-redis/redis/v8"
)

// RedisErrorLogQueue cola de error logs sobre una lista de Redis
type RedisErrorLogQueue struct {
	client *redis.Client
	key    string
}

var _ operatelog.ErrorLogQueue = (*RedisErrorLogQueue)(nil)

// NewRedisErrorLogQueue crea la cola con la clave configurada
func NewRedisErrorLogQueue(client *redis.Client, key string) *RedisErrorLogQueue {
	return &RedisErrorLogQueue{client: client, key: key}
}

// Enqueue agrega un registro al final de la cola
func (q *RedisErrorLogQueue) Enqueue(ctx context.Context, log operatelog.ErrorLog) error {
	raw, err := json.Marshal(log)
	if err != nil {
		return errx.Wrap(err, "failed to marshal error log", errx.TypeInternal)
	}

	if err := q.client.LPush(ctx, q.key, raw).Err(); err != nil {
		return operatelog.ErrQueueUnavailable().WithCause(err)
	}
	return nil
}

// Drain extrae hasta max registros, los más antiguos primero
func (q *RedisErrorLogQueue) Drain(ctx context.Context, max int) ([]operatelog.ErrorLog, error) {
	logs := make([]operatelog.ErrorLog, 0, max)

	for len(logs) < max {
		raw, err := q.client.RPop(ctx, q.key).Bytes()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return logs, operatelog.ErrQueueUnavailable().WithCause(err)
		}

		var log operatelog.ErrorLog
		if err := json.Unmarshal(raw, &log); err != nil {
			// Registro corrupto: se descarta, no se bloquea la cola
			continue
		}
		logs = append(logs, log)
	}

	return logs, nil
}
