package usersrv

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/Abraxas-365/bastion/iam/auth"
	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/Abraxas-365/bastion/pkg/storage"
	"github.com/Abraxas-365/bastion/remote"
	"github.com/Abraxas-365/bastion/user"
	"github.com/google/uuid"
)

// Permisos consultados en el servicio remoto
const (
	PermissionUsersWrite  = "users:write"
	PermissionUsersDelete = "users:delete"
)

// Service orquesta las operaciones sobre usuarios. Las mutaciones pasan
// por el servicio remoto de permisos (dependencia crítica).
type Service struct {
	repo        user.Repository
	passwords   auth.PasswordService
	permissions remote.PermissionClient
	store       storage.ObjectStore
}

// El módulo de usuarios resuelve credenciales para el login
var _ auth.CredentialStore = (*Service)(nil)

// NewService crea el servicio de usuarios
func NewService(repo user.Repository, passwords auth.PasswordService, permissions remote.PermissionClient, store storage.ObjectStore) *Service {
	return &Service{
		repo:        repo,
		passwords:   passwords,
		permissions: permissions,
		store:       store,
	}
}

// Create registra un nuevo usuario
func (s *Service) Create(ctx context.Context, req user.CreateUserRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkPermission(ctx, PermissionUsersWrite); err != nil {
		return nil, err
	}

	if existing, _ := s.repo.FindByEmail(ctx, req.Email); existing != nil {
		return nil, user.ErrEmailTaken().WithDetail("email", req.Email)
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &user.User{
		ID:           kernel.NewUserID(uuid.New().String()),
		TenantID:     currentTenant(ctx),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		UserType:     kernel.UserType(req.UserType),
		Age:          req.Age,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Get busca un usuario por ID
func (s *Service) Get(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return s.repo.FindByID(ctx, id)
}

// List lista usuarios con paginación
func (s *Service) List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Update aplica una actualización parcial
func (s *Service) Update(ctx context.Context, id kernel.UserID, req user.UpdateUserRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkPermission(ctx, PermissionUsersWrite); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Age != nil {
		u.Age = *req.Age
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete elimina un usuario
func (s *Service) Delete(ctx context.Context, id kernel.UserID) error {
	if err := s.checkPermission(ctx, PermissionUsersDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// UploadAvatar sube la imagen al object store y guarda la URL
func (s *Service) UploadAvatar(ctx context.Context, id kernel.UserID, filename, contentType string, body io.Reader) (*user.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := "avatars/" + id.String() + "/" + uuid.New().String() + path.Ext(filename)
	url, err := s.store.Put(ctx, key, body, contentType)
	if err != nil {
		return nil, err
	}

	u.AvatarURL = url
	u.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// FindCredentials implementa auth.CredentialStore para el login
func (s *Service) FindCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, user.ErrUserDisabled().WithDetail("email", email)
	}

	return &auth.Credentials{
		UserID:       u.ID,
		TenantID:     u.TenantID,
		UserType:     u.UserType,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
	}, nil
}

// checkPermission consulta el servicio de permisos con la identidad
// ambiente del request. Las mutaciones exigen una identidad resuelta:
// sin ella se niega, nunca se omite el chequeo.
func (s *Service) checkPermission(ctx context.Context, permission string) error {
	info, ok := kernel.CurrentRequest(ctx)
	if !ok || info.Auth == nil {
		return result.NewCodeError(result.CodeUnauthorized)
	}

	allowed, err := s.permissions.HasPermission(ctx, info.Auth.UserID, permission)
	if err != nil {
		return err
	}
	if !allowed {
		return result.NewCodeError(result.CodeForbidden)
	}
	return nil
}

func currentTenant(ctx context.Context) kernel.TenantID {
	if info, ok := kernel.CurrentRequest(ctx); ok && info.Auth != nil {
		return info.Auth.TenantID
	}
	return kernel.NewTenantID("default")
}
