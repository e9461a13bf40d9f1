package auth

import (
	"context"

	"github.com/Abraxas-365/bastion/pkg/kernel"
)

// TokenService define el contrato para el manejo de tokens JWT
type TokenService interface {
	GenerateAccessToken(claims TokenClaims) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

// SessionRepository define el contrato para la persistencia de sesiones
type SessionRepository interface {
	SaveSession(ctx context.Context, session UserSession) error
	FindSession(ctx context.Context, sessionID string) (*UserSession, error)
	RevokeSession(ctx context.Context, sessionID string) error
	RevokeAllUserSessions(ctx context.Context, userID kernel.UserID) error
}

// PasswordService define el contrato para el hash de contraseñas
type PasswordService interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hashedPassword, password string) bool
}

// CredentialStore resuelve credenciales por email; lo implementa el
// módulo de usuarios
type CredentialStore interface {
	FindCredentials(ctx context.Context, email string) (*Credentials, error)
}
