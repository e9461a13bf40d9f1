package auth

import (
	"time"

	"github.com/Abraxas-365/bastion/pkg/kernel"
)

// TokenClaims claims decodificados de un access token válido
type TokenClaims struct {
	UserID    kernel.UserID   `json:"user_id"`
	TenantID  kernel.TenantID `json:"tenant_id"`
	UserType  kernel.UserType `json:"user_type"`
	Name      string          `json:"name"`
	SessionID string          `json:"session_id"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// UserSession sesión activa de un usuario, persistida en Redis
type UserSession struct {
	ID         string          `json:"id"`
	UserID     kernel.UserID   `json:"user_id"`
	TenantID   kernel.TenantID `json:"tenant_id"`
	UserType   kernel.UserType `json:"user_type"`
	IPAddress  string          `json:"ip_address"`
	UserAgent  string          `json:"user_agent"`
	CreatedAt  time.Time       `json:"created_at"`
	LastSeenAt time.Time       `json:"last_seen_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// IsExpired verifica si la sesión ya expiró
func (s *UserSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Credentials credenciales resueltas por el CredentialStore para login
type Credentials struct {
	UserID       kernel.UserID
	TenantID     kernel.TenantID
	UserType     kernel.UserType
	Name         string
	PasswordHash string
}
