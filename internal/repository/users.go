package repository

import (
	"context"

	"github.com/saludvia/portal-server-go/internal/database"
	"github.com/saludvia/portal-server-go/internal/model"
)

// UserRepository handles authentication identity rows
type UserRepository interface {
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type userRepo struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.ID, params.Email, params.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE email = $1
	`, email)
	return HandleNotFound(&user, err)
}

// UserRoleRepository handles role assignments
type UserRoleRepository interface {
	// Assign grants a role idempotently. Re-assigning an existing role is a
	// no-op, not an error.
	Assign(ctx context.Context, userID string, role model.Role) error
	ListByUser(ctx context.Context, userID string) ([]model.Role, error)
	HasRole(ctx context.Context, userID string, role model.Role) (bool, error)
}

type userRoleRepo struct {
	db database.DBTX
}

func NewUserRoleRepository(db database.DBTX) UserRoleRepository {
	return &userRoleRepo{db: db}
}

func (r *userRoleRepo) Assign(ctx context.Context, userID string, role model.Role) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`, userID, role)
	return err
}

func (r *userRoleRepo) ListByUser(ctx context.Context, userID string) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.SelectContext(ctx, &roles, `
		SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role
	`, userID)
	return roles, err
}

func (r *userRoleRepo) HasRole(ctx context.Context, userID string, role model.Role) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM user_roles WHERE user_id = $1 AND role = $2
	`, userID, role)
	return count > 0, err
}
