package repository

import (
	"context"

	"github.com/saludvia/portal-server-go/internal/database"
	"github.com/saludvia/portal-server-go/internal/model"
)

type ClinicRepository interface {
	Create(ctx context.Context, params model.CreateClinicParams) (*model.Clinic, error)
	FindByID(ctx context.Context, id string) (*model.Clinic, error)
	FindByNIT(ctx context.Context, nit string) (*model.Clinic, error)
}

type clinicRepo struct {
	db database.DBTX
}

func NewClinicRepository(db database.DBTX) ClinicRepository {
	return &clinicRepo{db: db}
}

func (r *clinicRepo) Create(ctx context.Context, params model.CreateClinicParams) (*model.Clinic, error) {
	var clinic model.Clinic
	err := r.db.GetContext(ctx, &clinic, `
		INSERT INTO clinicas (id, name, nit, address, phone, admin_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.ID, params.Name, params.NIT, params.Address, params.Phone, params.AdminUserID)
	if err != nil {
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepo) FindByID(ctx context.Context, id string) (*model.Clinic, error) {
	var clinic model.Clinic
	err := r.db.GetContext(ctx, &clinic, `
		SELECT * FROM clinicas WHERE id = $1
	`, id)
	return HandleNotFound(&clinic, err)
}

func (r *clinicRepo) FindByNIT(ctx context.Context, nit string) (*model.Clinic, error) {
	var clinic model.Clinic
	err := r.db.GetContext(ctx, &clinic, `
		SELECT * FROM clinicas WHERE nit = $1
	`, nit)
	return HandleNotFound(&clinic, err)
}
