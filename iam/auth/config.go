package auth

import (
	"fmt"
	"time"
)

// Config configuración completa del módulo de autenticación
type Config struct {
	JWT JWTConfig `json:"jwt" yaml:"jwt"`

	// PasswordHashCost costo de bcrypt; 0 usa el default de la librería
	PasswordHashCost int `json:"password_hash_cost" yaml:"password_hash_cost"`
}

// JWTConfig configuración para JWT
type JWTConfig struct {
	SecretKey      string        `json:"secret_key" yaml:"secret_key"`
	AccessTokenTTL time.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	SessionTTL     time.Duration `json:"session_ttl" yaml:"session_ttl"`
	Issuer         string        `json:"issuer" yaml:"issuer"`
}

// DefaultConfig retorna configuración por defecto
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTokenTTL: 15 * time.Minute,
			SessionTTL:     24 * time.Hour,
			Issuer:         "bastion",
		},
	}
}

// Validate valida la configuración
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("JWT secret key is required")
	}
	if len(c.JWT.SecretKey) < 16 {
		return fmt.Errorf("JWT secret key must be at least 16 characters")
	}
	return nil
}
