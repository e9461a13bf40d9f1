package auth

import (
	"strings"

	"github.com/Abraxas-365/bastion/iam"
	"github.com/Abraxas-365/bastion/pipeline"
	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// AuthFilter filtro de autenticación JWT del pipeline
type AuthFilter struct {
	tokenService TokenService
	sessions     SessionRepository

	adminAPIPrefix string
	appAPIPrefix   string

	// publicPrefixes rutas que no requieren token (login, health, root)
	publicPrefixes []string
}

// NewAuthFilter crea el filtro de autenticación
func NewAuthFilter(tokenService TokenService, sessions SessionRepository, adminAPIPrefix, appAPIPrefix string, publicPrefixes []string) *AuthFilter {
	return &AuthFilter{
		tokenService:   tokenService,
		sessions:       sessions,
		adminAPIPrefix: adminAPIPrefix,
		appAPIPrefix:   appAPIPrefix,
		publicPrefixes: publicPrefixes,
	}
}

// Filter retorna el filtro listo para registrar en el pipeline
func (af *AuthFilter) Filter() pipeline.Filter {
	return pipeline.Filter{
		Name:    pipeline.FilterAuth,
		Order:   pipeline.OrderAuth,
		Skip:    af.isPublic,
		Handler: af.authenticate,
	}
}

func (af *AuthFilter) isPublic(c *fiber.Ctx) bool {
	path := c.Path()
	for _, prefix := range af.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// Solo las rutas de API requieren identidad
	return !strings.HasPrefix(path, af.adminAPIPrefix) &&
		!strings.HasPrefix(path, af.appAPIPrefix)
}

func (af *AuthFilter) authenticate(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return iam.ErrUnauthorized().WithDetail("path", c.Path())
	}

	claims, err := af.tokenService.ValidateAccessToken(token)
	if err != nil {
		return err
	}

	// La sesión puede haberse revocado antes de que expire el token
	if claims.SessionID != "" {
		session, err := af.sessions.FindSession(c.UserContext(), claims.SessionID)
		if err != nil {
			return err
		}
		if session.IsExpired() {
			return iam.ErrInvalidToken().WithDetail("reason", "session expired")
		}
	}

	userType := claims.UserType
	if userType == "" {
		// Sin atributo explícito: clasificar por prefijo de ruta
		userType = pipeline.UserTypeForPath(af.adminAPIPrefix, c.Path())
	}

	authContext := &kernel.AuthContext{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		UserType: userType,
		Name:     claims.Name,
	}

	c.Locals(kernel.AuthLocalsKey, authContext)
	if info, ok := pipeline.RequestInfo(c); ok {
		info.Auth = authContext
	}

	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1]
		}
	}
	// Fallback: cookie de acceso
	return c.Cookies("access_token")
}
