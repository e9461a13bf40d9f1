package authinfra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/bastion/iam"
	"github.com/Abraxas-365/bastion/iam/auth"
	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/Abraxas-365/craftable/errx"
	"github.com/go-redis/redis/v8"
)

const (
	sessionKeyPrefix  = "bastion:session:"
	userSessionsKey   = "bastion:user_sessions:"
	sessionKeyPadding = 5 * time.Minute
)

// RedisSessionRepository sesiones de usuario en Redis con TTL
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository crea el repositorio de sesiones
func NewRedisSessionRepository(client *redis.Client) auth.SessionRepository {
	return &RedisSessionRepository{client: client}
}

// SaveSession guarda la sesión con expiración automática
func (r *RedisSessionRepository) SaveSession(ctx context.Context, session auth.UserSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return errx.Wrap(err, "failed to marshal session", errx.TypeInternal)
	}

	ttl := time.Until(session.ExpiresAt) + sessionKeyPadding
	if ttl <= 0 {
		return iam.ErrInvalidToken().WithDetail("reason", "session already expired")
	}

	if err := r.client.Set(ctx, sessionKeyPrefix+session.ID, raw, ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to save session", errx.TypeInternal).
			WithDetail("session_id", session.ID)
	}

	// Índice por usuario para revocación masiva
	if err := r.client.SAdd(ctx, userSessionsKey+session.UserID.String(), session.ID).Err(); err != nil {
		return errx.Wrap(err, "failed to index session", errx.TypeInternal)
	}

	return nil
}

// FindSession busca una sesión por ID
func (r *RedisSessionRepository) FindSession(ctx context.Context, sessionID string) (*auth.UserSession, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, iam.ErrInvalidToken().WithDetail("reason", "session not found")
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to find session", errx.TypeInternal).
			WithDetail("session_id", sessionID)
	}

	var session auth.UserSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, errx.Wrap(err, "failed to unmarshal session", errx.TypeInternal)
	}

	return &session, nil
}

// RevokeSession elimina una sesión
func (r *RedisSessionRepository) RevokeSession(ctx context.Context, sessionID string) error {
	session, err := r.FindSession(ctx, sessionID)
	if err == nil {
		r.client.SRem(ctx, userSessionsKey+session.UserID.String(), sessionID)
	}

	if err := r.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return errx.Wrap(err, "failed to revoke session", errx.TypeInternal).
			WithDetail("session_id", sessionID)
	}
	return nil
}

// RevokeAllUserSessions elimina todas las sesiones de un usuario
func (r *RedisSessionRepository) RevokeAllUserSessions(ctx context.Context, userID kernel.UserID) error {
	ids, err := r.client.SMembers(ctx, userSessionsKey+userID.String()).Result()
	if err != nil {
		return errx.Wrap(err, "failed to list user sessions", errx.TypeInternal).
			WithDetail("user_id", userID.String())
	}

	for _, id := range ids {
		r.client.Del(ctx, sessionKeyPrefix+id)
	}
	return r.client.Del(ctx, userSessionsKey+userID.String()).Err()
}
