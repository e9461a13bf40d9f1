package user

import (
	"context"

	"github.com/Abraxas-365/bastion/pkg/kernel"
)

// Repository persistencia de usuarios
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id kernel.UserID) error
}
