package auth

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/bastion/iam"
	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// JWTService implementación del TokenService usando JWT
type JWTService struct {
	secretKey      []byte
	accessTokenTTL time.Duration
	issuer         string
}

// NewJWTService crea una nueva instancia del servicio JWT
func NewJWTService(cfg JWTConfig) *JWTService {
	ttl := cfg.AccessTokenTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "bastion"
	}

	return &JWTService{
		secretKey:      []byte(cfg.SecretKey),
		accessTokenTTL: ttl,
		issuer:         issuer,
	}
}

var _ TokenService = (*JWTService)(nil)

// jwtClaims claims personalizados para JWT
type jwtClaims struct {
	UserID    kernel.UserID   `json:"user_id"`
	TenantID  kernel.TenantID `json:"tenant_id"`
	UserType  kernel.UserType `json:"user_type"`
	Name      string          `json:"name"`
	SessionID string          `json:"session_id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken genera un token de acceso JWT
func (j *JWTService) GenerateAccessToken(claims TokenClaims) (string, error) {
	now := time.Now()

	jc := jwtClaims{
		UserID:    claims.UserID,
		TenantID:  claims.TenantID,
		UserType:  claims.UserType,
		Name:      claims.Name,
		SessionID: claims.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   claims.UserID.String(),
			Audience:  []string{"bastion-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jc)

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", iam.ErrInvalidToken().WithDetail("error", err.Error())
	}

	return tokenString, nil
}

// ValidateAccessToken valida y decodifica un token de acceso
func (j *JWTService) ValidateAccessToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(token *jwt.Token) (any, error) {
		// Verificar el método de firma
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	})
	if err != nil {
		return nil, iam.ErrInvalidToken().WithDetail("error", err.Error())
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, iam.ErrInvalidToken()
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &TokenClaims{
		UserID:    claims.UserID,
		TenantID:  claims.TenantID,
		UserType:  claims.UserType,
		Name:      claims.Name,
		SessionID: claims.SessionID,
		ExpiresAt: expiresAt,
	}, nil
}
