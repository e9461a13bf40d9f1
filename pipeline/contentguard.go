package pipeline

import (
	"bytes"
	"io"

	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/gofiber/fiber/v2"
)

// disallowedMarkup fragmentos rechazados en bodies JSON
var disallowedMarkup = [][]byte{
	[]byte("<script"),
	[]byte("javascript:"),
}

// NewContentGuardFilter inspecciona el body cacheado en busca de markup
// peligroso. Depende de que body-cache ya haya corrido: abre su propio
// lector independiente sin consumir el de nadie más.
func NewContentGuardFilter() Filter {
	return Filter{
		Name:  FilterContentGuard,
		Order: OrderContentGuard,
		Skip: func(c *fiber.Ctx) bool {
			cb, ok := BodyCache(c)
			return !ok || cb.Len() == 0
		},
		Handler: func(c *fiber.Ctx) error {
			cb, _ := BodyCache(c)

			body, err := io.ReadAll(cb.OpenReader())
			if err != nil {
				return result.NewError(result.CodeBadRequest, "failed to inspect request body: {}", err)
			}

			lower := bytes.ToLower(body)
			for _, marker := range disallowedMarkup {
				if bytes.Contains(lower, marker) {
					return result.NewError(result.CodeValidation, "request body contains disallowed content: {}", string(marker))
				}
			}

			return c.Next()
		},
	}
}
