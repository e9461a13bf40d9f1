package pipeline

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/bastion/pkg/result"
)

// NewDemoGuardFilter bloquea mutaciones de usuarios autenticados cuando
// el despliegue corre en modo demo. Corre al final de la cadena, después
// de autenticación: las mutaciones anónimas ya fueron rechazadas antes y
// no se reportan dos veces. Al bloquear no se invoca el resto de la
// cadena.
func NewDemoGuardFilter(demoMode bool) Filter {
	return Filter{
		Name:  FilterDemoGuard,
		Order: OrderDemoGuard,
		Skip: func(c *fiber.Ctx) bool {
			if !demoMode {
				return true
			}
			switch c.Method() {
			case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
				return true
			}
			if _, authenticated := CurrentAuth(c); !authenticated {
				return true
			}
			return false
		},
		Handler: func(c *fiber.Ctx) error {
			return JSON(c, result.ErrorCode(result.CodeDemoDenied))
		},
	}
}
