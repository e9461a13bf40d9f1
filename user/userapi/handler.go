package userapi

import (
	"strconv"

	"github.com/Abraxas-365/bastion/pipeline"
	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/Abraxas-365/bastion/user"
	"github.com/Abraxas-365/bastion/user/usersrv"
	"github.com/gofiber/fiber/v2"
)

// Handler handlers HTTP del módulo de usuarios
type Handler struct {
	svc *usersrv.Service
}

// NewHandler crea los handlers de usuarios
func NewHandler(svc *usersrv.Service) *Handler {
	return &Handler{svc: svc}
}

// ListResponse respuesta paginada del listado
type ListResponse struct {
	Items    []user.User `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// Create registra un nuevo usuario
func (h *Handler) Create(c *fiber.Ctx) error {
	var req user.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	created, err := h.svc.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return pipeline.JSON(c, result.Success(created))
}

// Get busca un usuario por ID
func (h *Handler) Get(c *fiber.Ctx) error {
	u, err := h.svc.Get(c.UserContext(), kernel.NewUserID(c.Params("id")))
	if err != nil {
		return err
	}
	return pipeline.JSON(c, result.Success(u))
}

// List lista usuarios con paginación
func (h *Handler) List(c *fiber.Ctx) error {
	filter := user.ListFilter{
		UserType: kernel.UserType(c.Query("user_type")),
	}
	if auth, ok := pipeline.CurrentAuth(c); ok {
		filter.TenantID = auth.TenantID
	}

	// Parámetros numéricos crudos: un valor no numérico se despacha como
	// error de tipo de parámetro
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		filter.Page = page
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		filter.PageSize = size
	}
	filter.Normalize()

	items, total, err := h.svc.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return pipeline.JSON(c, result.Success(ListResponse{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}))
}

// Update aplica una actualización parcial
func (h *Handler) Update(c *fiber.Ctx) error {
	var req user.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	updated, err := h.svc.Update(c.UserContext(), kernel.NewUserID(c.Params("id")), req)
	if err != nil {
		return err
	}
	return pipeline.JSON(c, result.Success(updated))
}

// Delete elimina un usuario
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), kernel.NewUserID(c.Params("id"))); err != nil {
		return err
	}
	return pipeline.JSON(c, result.Success(nil))
}

// UploadAvatar sube la imagen de perfil al object store
func (h *Handler) UploadAvatar(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return result.NewCodeError(result.CodeParamMissing, "avatar")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return result.NewError(result.CodeBadRequest, "failed to read request body: {}", err)
	}
	defer file.Close()

	contentType := fileHeader.Header.Get(fiber.HeaderContentType)
	updated, err := h.svc.UploadAvatar(c.UserContext(), kernel.NewUserID(c.Params("id")), fileHeader.Filename, contentType, file)
	if err != nil {
		return err
	}
	return pipeline.JSON(c, result.Success(updated))
}

// Profile retorna el usuario de la identidad autenticada
func (h *Handler) Profile(c *fiber.Ctx) error {
	auth, ok := pipeline.CurrentAuth(c)
	if !ok {
		return result.NewCodeError(result.CodeUnauthorized)
	}

	u, err := h.svc.Get(c.UserContext(), auth.UserID)
	if err != nil {
		return err
	}
	return pipeline.JSON(c, result.Success(u))
}
