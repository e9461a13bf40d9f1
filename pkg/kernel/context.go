package kernel

// ============================================================================
// Context Types - Tipos para context.Context
// ============================================================================

// UserType clasifica la identidad autenticada de un request
type UserType string

const (
	// UserTypeAdmin usuarios del backoffice (rutas /admin-api)
	UserTypeAdmin UserType = "admin"

	// UserTypeMember usuarios finales (rutas /app-api)
	UserTypeMember UserType = "member"
)

// AuthContext es el contexto de autenticación que se inyecta en cada request
type AuthContext struct {
	UserID   UserID   `json:"user_id"`
	TenantID TenantID `json:"tenant_id"`
	UserType UserType `json:"user_type"`
	Name     string   `json:"name"`
}

// IsValid verifica si el AuthContext es válido
func (a *AuthContext) IsValid() bool {
	return !a.UserID.IsEmpty() && !a.TenantID.IsEmpty()
}

// IsAdmin verifica si la identidad pertenece al backoffice
func (a *AuthContext) IsAdmin() bool {
	return a.UserType == UserTypeAdmin
}

// ============================================================================
// Context Keys - Claves para context.Context
// ============================================================================

type ContextKey string

const (
	// AuthContextKey es la clave para almacenar AuthContext en context.Context
	AuthContextKey ContextKey = "auth_context"

	// RequestInfoKey es la clave para almacenar RequestInfo en context.Context
	RequestInfoKey ContextKey = "request_info"

	// TraceIDKey es la clave para almacenar el ID de la petición
	TraceIDKey ContextKey = "trace_id"
)

// AuthLocalsKey es la clave usada en fiber.Ctx.Locals para el AuthContext
const AuthLocalsKey = "auth"
