package userapi

import "github.com/gofiber/fiber/v2"

// RegisterRoutes registra las rutas del módulo de usuarios en Fiber
func (h *Handler) RegisterRoutes(app *fiber.App) {
	admin := app.Group("/admin-api/users")
	admin.Post("/", h.Create)
	admin.Get("/", h.List)
	admin.Get("/:id", h.Get)
	admin.Put("/:id", h.Update)
	admin.Delete("/:id", h.Delete)
	admin.Post("/:id/avatar", h.UploadAvatar)

	app.Get("/app-api/profile", h.Profile)
}
