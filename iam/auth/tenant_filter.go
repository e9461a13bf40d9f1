package auth

import (
	"github.com/Abraxas-365/bastion/iam"
	"github.com/Abraxas-365/bastion/pipeline"
	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// NewTenantCheckFilter verifica, después de la autenticación, que la
// identidad traiga un tenant válido. Un token legacy sin tenant no debe
// llegar a los handlers.
func NewTenantCheckFilter() pipeline.Filter {
	return pipeline.Filter{
		Name:  pipeline.FilterTenantCheck,
		Order: pipeline.OrderTenantCheck,
		Skip: func(c *fiber.Ctx) bool {
			// Rutas públicas no pasan por el filtro de autenticación
			return c.Locals(kernel.AuthLocalsKey) == nil
		},
		Handler: func(c *fiber.Ctx) error {
			auth, ok := c.Locals(kernel.AuthLocalsKey).(*kernel.AuthContext)
			if !ok || auth.TenantID.IsEmpty() {
				return iam.ErrInvalidToken().WithDetail("reason", "token carries no tenant")
			}
			return c.Next()
		},
	}
}
