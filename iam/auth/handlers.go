package auth

import (
	"time"

	"github.com/Abraxas-365/bastion/iam"
	"github.com/Abraxas-365/bastion/pipeline"
	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/Abraxas-365/craftable/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AuthHandlers handlers HTTP de autenticación
type AuthHandlers struct {
	tokenService TokenService
	sessions     SessionRepository
	passwords    PasswordService
	credentials  CredentialStore
	cfg          Config
}

// NewAuthHandlers crea los handlers de autenticación
func NewAuthHandlers(
	tokenService TokenService,
	sessions SessionRepository,
	passwords PasswordService,
	credentials CredentialStore,
	cfg Config,
) *AuthHandlers {
	return &AuthHandlers{
		tokenService: tokenService,
		sessions:     sessions,
		passwords:    passwords,
		credentials:  credentials,
		cfg:          cfg,
	}
}

// RegisterRoutes registra las rutas de autenticación en Fiber
func (ah *AuthHandlers) RegisterRoutes(app *fiber.App) {
	app.Post("/admin-api/auth/login", ah.Login)
	app.Post("/app-api/auth/login", ah.Login)
	app.Post("/admin-api/auth/logout", ah.Logout)
	app.Post("/app-api/auth/logout", ah.Logout)
}

// LoginRequest body del endpoint de login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse respuesta del endpoint de login
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login valida credenciales, crea la sesión y emite el access token
func (ah *AuthHandlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}
	if req.Email == "" {
		return result.NewCodeError(result.CodeParamMissing, "email")
	}
	if req.Password == "" {
		return result.NewCodeError(result.CodeParamMissing, "password")
	}

	creds, err := ah.credentials.FindCredentials(c.UserContext(), req.Email)
	if err != nil {
		if errx.IsType(err, errx.TypeNotFound) {
			return iam.ErrBadLogin()
		}
		return err
	}

	if !ah.passwords.VerifyPassword(creds.PasswordHash, req.Password) {
		return iam.ErrBadLogin()
	}

	now := time.Now()
	session := UserSession{
		ID:         uuid.New().String(),
		UserID:     creds.UserID,
		TenantID:   creds.TenantID,
		UserType:   creds.UserType,
		IPAddress:  c.IP(),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(ah.cfg.JWT.SessionTTL),
	}
	if err := ah.sessions.SaveSession(c.UserContext(), session); err != nil {
		return err
	}

	token, err := ah.tokenService.GenerateAccessToken(TokenClaims{
		UserID:    creds.UserID,
		TenantID:  creds.TenantID,
		UserType:  creds.UserType,
		Name:      creds.Name,
		SessionID: session.ID,
	})
	if err != nil {
		return err
	}

	return pipeline.JSON(c, result.Success(LoginResponse{
		AccessToken: token,
		ExpiresAt:   now.Add(ah.cfg.JWT.AccessTokenTTL),
	}))
}

// Logout revoca la sesión del token actual
func (ah *AuthHandlers) Logout(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return iam.ErrUnauthorized()
	}

	claims, err := ah.tokenService.ValidateAccessToken(token)
	if err != nil {
		return err
	}

	if claims.SessionID != "" {
		if err := ah.sessions.RevokeSession(c.UserContext(), claims.SessionID); err != nil {
			return err
		}
	}

	return pipeline.JSON(c, result.Success(nil))
}
