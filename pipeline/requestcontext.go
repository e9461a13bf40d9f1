package pipeline

import (
	"strings"
	"time"

	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderTraceID es el header donde se propaga el ID de la petición
const HeaderTraceID = "X-Trace-Id"

const requestInfoLocalsKey = "request_info"

// NewRequestContextFilter asigna un trace id al request e inyecta el
// snapshot ambiente (kernel.RequestInfo) en el context.Context del
// request, para que servicios profundos accedan a metadatos sin
// parámetros adicionales.
func NewRequestContextFilter() Filter {
	return Filter{
		Name:  FilterRequestContext,
		Order: OrderRequestContext,
		Handler: func(c *fiber.Ctx) error {
			traceID := c.Get(HeaderTraceID)
			if traceID == "" {
				traceID = uuid.New().String()
			}

			info := &kernel.RequestInfo{
				TraceID:   traceID,
				Method:    c.Method(),
				Path:      c.Path(),
				IP:        c.IP(),
				UserAgent: c.Get(fiber.HeaderUserAgent),
				StartedAt: time.Now(),
			}

			c.Locals(requestInfoLocalsKey, info)
			c.SetUserContext(kernel.WithRequest(c.UserContext(), info))
			c.Set(HeaderTraceID, traceID)

			return c.Next()
		},
	}
}

// RequestInfo lee el snapshot del request, si el filtro de contexto corrió.
func RequestInfo(c *fiber.Ctx) (*kernel.RequestInfo, bool) {
	info, ok := c.Locals(requestInfoLocalsKey).(*kernel.RequestInfo)
	return info, ok && info != nil
}

// UserTypeForPath clasifica el tipo de identidad por prefijo de ruta
// cuando el request no trae un atributo explícito.
func UserTypeForPath(adminAPIPrefix, path string) kernel.UserType {
	if strings.HasPrefix(path, adminAPIPrefix) {
		return kernel.UserTypeAdmin
	}
	return kernel.UserTypeMember
}
