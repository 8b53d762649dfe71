package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saludvia/portal-server-go/internal/database"
	apperrors "github.com/saludvia/portal-server-go/internal/errors"
	"github.com/saludvia/portal-server-go/internal/model"
	"github.com/saludvia/portal-server-go/internal/registry"
	"github.com/saludvia/portal-server-go/internal/repository"
	"github.com/saludvia/portal-server-go/internal/util"
)

// adminTxRepos bundles the repositories an admin flow needs inside one
// transaction.
type adminTxRepos struct {
	users               repository.UserRepository
	roles               repository.UserRoleRepository
	patients            repository.PatientRepository
	professionals       repository.ProfessionalRepository
	clinics             repository.ClinicRepository
	clinicPatients      repository.ClinicPatientRepository
	clinicProfessionals repository.ClinicProfessionalRepository
}

func newAdminTxRepos(tx database.DBTX) adminTxRepos {
	return adminTxRepos{
		users:               repository.NewUserRepository(tx),
		roles:               repository.NewUserRoleRepository(tx),
		patients:            repository.NewPatientRepository(tx),
		professionals:       repository.NewProfessionalRepository(tx),
		clinics:             repository.NewClinicRepository(tx),
		clinicPatients:      repository.NewClinicPatientRepository(tx),
		clinicProfessionals: repository.NewClinicProfessionalRepository(tx),
	}
}

// AdminService implements the clinic-admin flows. Multi-row writes (user +
// role + profile + association) run inside a single transaction so a partial
// failure never leaves an orphaned user.
type AdminService struct {
	tx       database.TxRunner
	txRepos  func(database.DBTX) adminTxRepos
	registry *registry.Client

	clinics             repository.ClinicRepository
	patients            repository.PatientRepository
	professionals       repository.ProfessionalRepository
	clinicPatients      repository.ClinicPatientRepository
	clinicProfessionals repository.ClinicProfessionalRepository
}

func NewAdminService(db *database.DB, reg *registry.Client) *AdminService {
	return &AdminService{
		tx:                  db,
		txRepos:             newAdminTxRepos,
		registry:            reg,
		clinics:             repository.NewClinicRepository(db),
		patients:            repository.NewPatientRepository(db),
		professionals:       repository.NewProfessionalRepository(db),
		clinicPatients:      repository.NewClinicPatientRepository(db),
		clinicProfessionals: repository.NewClinicProfessionalRepository(db),
	}
}

// Caller identifies the authenticated admin performing a request. Superadmins
// may act on any clinic; a clinic_admin only on clinics they administer.
type Caller struct {
	UserID     string
	Superadmin bool
}

type CreateClinicInput struct {
	Name          string  `json:"name" validate:"required"`
	NIT           string  `json:"nit" validate:"required"`
	Address       *string `json:"address"`
	Phone         *string `json:"phone"`
	AdminEmail    string  `json:"adminEmail" validate:"required,email"`
	AdminPassword string  `json:"adminPassword" validate:"required,min=12"`
}

// CreateClinic registers a clinic together with its admin user. The admin
// user, its clinic_admin role and the clinic row are written atomically.
func (s *AdminService) CreateClinic(ctx context.Context, input CreateClinicInput) (*model.Clinic, error) {
	existing, err := s.clinics.FindByNIT(ctx, input.NIT)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.ClinicExists(input.NIT)
	}

	passwordHash, err := util.HashPassword(input.AdminPassword)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password").WithCause(err)
	}

	var clinic *model.Clinic
	err = s.tx.WithTx(ctx, func(tx database.DBTX) error {
		repos := s.txRepos(tx)

		adminUser, err := repos.users.Create(ctx, model.CreateUserParams{
			ID:           uuid.NewString(),
			Email:        input.AdminEmail,
			PasswordHash: passwordHash,
		})
		if err != nil {
			return err
		}
		if err := repos.roles.Assign(ctx, adminUser.ID, model.RoleClinicAdmin); err != nil {
			return err
		}

		clinic, err = repos.clinics.Create(ctx, model.CreateClinicParams{
			ID:          uuid.NewString(),
			Name:        input.Name,
			NIT:         input.NIT,
			Address:     input.Address,
			Phone:       input.Phone,
			AdminUserID: adminUser.ID,
		})
		return err
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Str("clinicId", clinic.ID).Str("nit", clinic.NIT).Msg("clinic created")
	return clinic, nil
}

type CreatePersonInput struct {
	DocumentType   model.DocumentType `json:"documentType" validate:"required"`
	DocumentNumber string             `json:"documentNumber" validate:"required"`
	FirstName      string             `json:"firstName" validate:"required"`
	LastName       string             `json:"lastName" validate:"required"`
	Email          string             `json:"email" validate:"required,email"`
	Phone          *string            `json:"phone"`
	BirthDate      *time.Time         `json:"birthDate"`
	Specialty      *string            `json:"specialty"`
}

type CreatePatientResult struct {
	Profile           *model.PatientProfile `json:"profile"`
	AlreadyAssociated bool                  `json:"alreadyAssociated"`
}

// CreatePatient registers a patient under a clinic. Creating the same
// document number again returns the existing profile with
// alreadyAssociated=true instead of failing, so clinic intake stays
// idempotent.
func (s *AdminService) CreatePatient(ctx context.Context, caller Caller, clinicID string, input CreatePersonInput) (*CreatePatientResult, error) {
	if !model.IsValidDocumentType(input.DocumentType) {
		return nil, apperrors.InvalidDocumentType(string(input.DocumentType))
	}
	if err := s.requireManagedClinic(ctx, caller, clinicID); err != nil {
		return nil, err
	}

	existing, err := s.patients.FindByDocumentNumber(ctx, input.DocumentNumber)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		if _, err := s.clinicPatients.Upsert(ctx, clinicID, existing.UserID); err != nil {
			return nil, apperrors.Database(err)
		}
		return &CreatePatientResult{Profile: existing, AlreadyAssociated: true}, nil
	}

	passwordHash, err := placeholderPasswordHash()
	if err != nil {
		return nil, err
	}

	var profile *model.PatientProfile
	err = s.tx.WithTx(ctx, func(tx database.DBTX) error {
		repos := s.txRepos(tx)

		user, err := repos.users.Create(ctx, model.CreateUserParams{
			ID:           uuid.NewString(),
			Email:        input.Email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			return err
		}
		if err := repos.roles.Assign(ctx, user.ID, model.RolePatient); err != nil {
			return err
		}

		profile, err = repos.patients.Create(ctx, model.CreatePatientProfileParams{
			UserID:         user.ID,
			DocumentType:   input.DocumentType,
			DocumentNumber: input.DocumentNumber,
			FirstName:      input.FirstName,
			LastName:       input.LastName,
			Email:          input.Email,
			Phone:          input.Phone,
			BirthDate:      input.BirthDate,
		})
		if err != nil {
			return err
		}

		_, err = repos.clinicPatients.Upsert(ctx, clinicID, user.ID)
		return err
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Str("patientUserId", profile.UserID).Str("clinicId", clinicID).Msg("patient created")
	return &CreatePatientResult{Profile: profile, AlreadyAssociated: false}, nil
}

type CreateProfessionalResult struct {
	Profile           *model.Professional `json:"profile"`
	AlreadyAssociated bool                `json:"alreadyAssociated"`
}

// CreateProfessional registers a clinical professional under a clinic, with
// the same idempotent behavior as CreatePatient.
func (s *AdminService) CreateProfessional(ctx context.Context, caller Caller, clinicID string, input CreatePersonInput) (*CreateProfessionalResult, error) {
	if !model.IsValidDocumentType(input.DocumentType) {
		return nil, apperrors.InvalidDocumentType(string(input.DocumentType))
	}
	if err := s.requireManagedClinic(ctx, caller, clinicID); err != nil {
		return nil, err
	}

	existing, err := s.professionals.FindByDocumentNumber(ctx, input.DocumentNumber)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		if _, err := s.clinicProfessionals.Upsert(ctx, clinicID, existing.UserID); err != nil {
			return nil, apperrors.Database(err)
		}
		return &CreateProfessionalResult{Profile: existing, AlreadyAssociated: true}, nil
	}

	passwordHash, err := placeholderPasswordHash()
	if err != nil {
		return nil, err
	}

	var profile *model.Professional
	err = s.tx.WithTx(ctx, func(tx database.DBTX) error {
		repos := s.txRepos(tx)

		user, err := repos.users.Create(ctx, model.CreateUserParams{
			ID:           uuid.NewString(),
			Email:        input.Email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			return err
		}
		if err := repos.roles.Assign(ctx, user.ID, model.RoleProfessional); err != nil {
			return err
		}

		profile, err = repos.professionals.Create(ctx, model.CreateProfessionalParams{
			UserID:         user.ID,
			DocumentType:   input.DocumentType,
			DocumentNumber: input.DocumentNumber,
			FirstName:      input.FirstName,
			LastName:       input.LastName,
			Specialty:      input.Specialty,
		})
		if err != nil {
			return err
		}

		_, err = repos.clinicProfessionals.Upsert(ctx, clinicID, user.ID)
		return err
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Str("professionalUserId", profile.UserID).Str("clinicId", clinicID).Msg("professional created")
	return &CreateProfessionalResult{Profile: profile, AlreadyAssociated: false}, nil
}

// AssociatePatient links an existing patient to a clinic. Unlike the create
// flow, an explicit association request for an existing link is a conflict.
func (s *AdminService) AssociatePatient(ctx context.Context, caller Caller, clinicID, patientUserID string) error {
	if err := s.requireManagedClinic(ctx, caller, clinicID); err != nil {
		return err
	}

	patient, err := s.patients.FindByUserID(ctx, patientUserID)
	if err != nil {
		return apperrors.Database(err)
	}
	if patient == nil {
		return apperrors.PatientNotFound()
	}

	inserted, err := s.clinicPatients.Upsert(ctx, clinicID, patientUserID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !inserted {
		return apperrors.AlreadyAssociated()
	}
	return nil
}

// AssociateProfessional links an existing professional to a clinic.
func (s *AdminService) AssociateProfessional(ctx context.Context, caller Caller, clinicID, professionalUserID string) error {
	if err := s.requireManagedClinic(ctx, caller, clinicID); err != nil {
		return err
	}

	prof, err := s.professionals.FindByUserID(ctx, professionalUserID)
	if err != nil {
		return apperrors.Database(err)
	}
	if prof == nil {
		return apperrors.ProfessionalNotFound()
	}

	inserted, err := s.clinicProfessionals.Upsert(ctx, clinicID, professionalUserID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !inserted {
		return apperrors.AlreadyAssociated()
	}
	return nil
}

type RethusValidation struct {
	Status     model.RethusStatus `json:"status"`
	FullName   string             `json:"fullName,omitempty"`
	Profession string             `json:"profession,omitempty"`
}

// ValidateRethus checks a professional against the national registry and
// persists the outcome. A verified professional gets the professional role
// assigned idempotently.
func (s *AdminService) ValidateRethus(ctx context.Context, professionalUserID string) (*RethusValidation, error) {
	prof, err := s.professionals.FindByUserID(ctx, professionalUserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if prof == nil {
		return nil, apperrors.ProfessionalNotFound()
	}

	result, err := s.registry.LookupRethus(ctx, string(prof.DocumentType), prof.DocumentNumber)
	if err != nil {
		return nil, apperrors.External("rethus", err)
	}

	status := model.RethusStatusNotFound
	if result.Registered {
		status = model.RethusStatusVerified
	}

	err = s.tx.WithTx(ctx, func(tx database.DBTX) error {
		repos := s.txRepos(tx)
		if err := repos.professionals.UpdateRethusStatus(ctx, professionalUserID, status); err != nil {
			return err
		}
		if status == model.RethusStatusVerified {
			return repos.roles.Assign(ctx, professionalUserID, model.RoleProfessional)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("professionalUserId", professionalUserID).
		Str("status", string(status)).
		Msg("rethus validation completed")

	return &RethusValidation{
		Status:     status,
		FullName:   result.FullName,
		Profession: result.Profession,
	}, nil
}

// LookupIdentity resolves an identity document through the configured
// national lookup services. Nothing is persisted; the caller decides what
// to do with the answer.
func (s *AdminService) LookupIdentity(ctx context.Context, documentType model.DocumentType, documentNumber string) (*registry.IdentityResult, error) {
	if !model.IsValidDocumentType(documentType) {
		return nil, apperrors.InvalidDocumentType(string(documentType))
	}

	result, err := s.registry.LookupIdentity(ctx, string(documentType), documentNumber)
	if err != nil {
		return nil, apperrors.External("identity registry", err)
	}

	log.Info().
		Str("documentType", string(documentType)).
		Bool("found", result.Found).
		Str("source", result.Source).
		Msg("identity lookup completed")

	return result, nil
}

// requireManagedClinic checks the clinic exists and the caller administers
// it. The role gate upstream only proves the caller is some clinic_admin.
func (s *AdminService) requireManagedClinic(ctx context.Context, caller Caller, clinicID string) error {
	clinic, err := s.clinics.FindByID(ctx, clinicID)
	if err != nil {
		return apperrors.Database(err)
	}
	if clinic == nil {
		return apperrors.ClinicNotFound()
	}
	if !caller.Superadmin && clinic.AdminUserID != caller.UserID {
		return apperrors.Forbidden("Not an administrator of this clinic")
	}
	return nil
}

// placeholderPasswordHash produces credentials for accounts created by a
// clinic before the person has set a password. The random value is discarded;
// login requires a password reset.
func placeholderPasswordHash() (string, error) {
	random, err := util.GenerateToken()
	if err != nil {
		return "", apperrors.Internal("failed to generate credentials").WithCause(err)
	}
	hash, err := util.HashPassword(random)
	if err != nil {
		return "", apperrors.Internal("failed to hash credentials").WithCause(err)
	}
	return hash, nil
}
