package user

import (
	"strings"
	"time"

	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/Abraxas-365/bastion/pkg/result"
)

// User representa un usuario del sistema
type User struct {
	ID           kernel.UserID   `json:"id" db:"id"`
	TenantID     kernel.TenantID `json:"tenant_id" db:"tenant_id"`
	Name         string          `json:"name" db:"name"`
	Email        string          `json:"email" db:"email"`
	PasswordHash string          `json:"-" db:"password_hash"`
	UserType     kernel.UserType `json:"user_type" db:"user_type"`
	Age          int             `json:"age" db:"age"`
	AvatarURL    string          `json:"avatar_url,omitempty" db:"avatar_url"`
	Active       bool            `json:"active" db:"active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateUserRequest payload de creación de usuario
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	UserType string `json:"user_type"`
}

// Validate revisa los campos en orden de declaración y corta en la
// primera falla; el cruce entre campos se evalúa al final.
func (r *CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return result.NewCodeError(result.CodeParamMissing, "name")
	}
	if r.Email == "" {
		return result.NewCodeError(result.CodeParamMissing, "email")
	}
	if !strings.Contains(r.Email, "@") {
		return result.NewError(result.CodeValidation, "email {} is not a valid address", r.Email)
	}
	if len(r.Password) < 8 {
		return result.NewError(result.CodeValidation, "password must be at least 8 characters")
	}
	if r.Age <= 0 || r.Age > 150 {
		return result.NewCodeError(result.CodeParamType, "age", r.Age)
	}
	if r.UserType != string(kernel.UserTypeAdmin) && r.UserType != string(kernel.UserTypeMember) {
		return result.NewError(result.CodeValidation, "user_type must be admin or member, got {}", r.UserType)
	}
	if r.UserType == string(kernel.UserTypeAdmin) && r.Age < 18 {
		return result.NewError(result.CodeValidation, "admin accounts require age 18 or older")
	}
	return nil
}

// UpdateUserRequest payload de actualización parcial
type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty"`
	Age    *int    `json:"age,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Validate revisa solo los campos presentes
func (r *UpdateUserRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return result.NewError(result.CodeValidation, "name cannot be blank")
	}
	if r.Age != nil && (*r.Age <= 0 || *r.Age > 150) {
		return result.NewCodeError(result.CodeParamType, "age", *r.Age)
	}
	return nil
}

// ListFilter filtros de listado paginado
type ListFilter struct {
	TenantID kernel.TenantID
	UserType kernel.UserType
	Page     int
	PageSize int
}

// Normalize acota la paginación a valores razonables
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}

// Offset retorna el offset SQL de la página
func (f *ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
