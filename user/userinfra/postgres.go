package userinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/Abraxas-365/bastion/user"
	"github.com/Abraxas-365/craftable/errx"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

// PostgresUserRepository implementa user.Repository sobre PostgreSQL
type PostgresUserRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*PostgresUserRepository)(nil)

// NewPostgresUserRepository crea el repositorio
func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Create inserta un nuevo usuario
func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, tenant_id, name, email, password_hash, user_type, age, avatar_url, active, created_at, updated_at)
		VALUES (:id, :tenant_id, :name, :email, :password_hash, :user_type, :age, :avatar_url, :active, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, u); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return user.ErrEmailTaken().WithDetail("email", u.Email)
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal)
	}
	return nil
}

// FindByID busca un usuario por ID
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	var u user.User
	query := `SELECT * FROM users WHERE id = $1`

	if err := r.db.GetContext(ctx, &u, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound().WithDetail("user_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find user", errx.TypeInternal)
	}
	return &u, nil
}

// FindByEmail busca un usuario por email
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	query := `SELECT * FROM users WHERE email = $1`

	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound().WithDetail("email", email)
		}
		return nil, errx.Wrap(err, "failed to find user", errx.TypeInternal)
	}
	return &u, nil
}

// List lista usuarios paginados, los más recientes primero
func (r *PostgresUserRepository) List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error) {
	where := ` WHERE tenant_id = $1`
	args := []any{filter.TenantID.String()}

	if filter.UserType != "" {
		where += ` AND user_type = $2`
		args = append(args, string(filter.UserType))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where, args...); err != nil {
		return nil, 0, errx.Wrap(err, "failed to count users", errx.TypeInternal)
	}

	query := fmt.Sprintf(`SELECT * FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	users := []user.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, errx.Wrap(err, "failed to list users", errx.TypeInternal)
	}
	return users, total, nil
}

// Update persiste los campos mutables
func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET name = :name, age = :age, avatar_url = :avatar_url, active = :active, updated_at = :updated_at
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		return errx.Wrap(err, "failed to update user", errx.TypeInternal)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return user.ErrUserNotFound().WithDetail("user_id", u.ID.String())
	}
	return nil
}

// Delete elimina un usuario
func (r *PostgresUserRepository) Delete(ctx context.Context, id kernel.UserID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete user", errx.TypeInternal)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return user.ErrUserNotFound().WithDetail("user_id", id.String())
	}
	return nil
}
