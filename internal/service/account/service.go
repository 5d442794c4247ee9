package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
	"github.com/mediscan/mediscan-api/internal/service"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
	"github.com/mediscan/mediscan-api/pkg/security"
)

type AccountService interface {
	CreateUser(ctx context.Context, req model.CreateUserRequest) (uuid.UUID, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.AuthResult, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	CreatePatientProfile(ctx context.Context, userID uuid.UUID, req model.CreatePatientRequest) (uuid.UUID, error)
	GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	UpdatePatientProfile(ctx context.Context, id uuid.UUID, patch model.PatientPatch) (*model.Patient, error)
	CreateGuardianProfile(ctx context.Context, userID uuid.UUID, req model.CreateGuardianRequest) (uuid.UUID, error)
	GetGuardianByUserID(ctx context.Context, userID uuid.UUID) (*model.Guardian, error)
	CreatePharmacyProfile(ctx context.Context, userID uuid.UUID, req model.CreatePharmacyRequest) (uuid.UUID, error)
	RegisterPharmacy(ctx context.Context, req model.RegisterPharmacyRequest) (*model.Pharmacy, error)
	GetPharmacyByUserID(ctx context.Context, userID uuid.UUID) (*model.Pharmacy, error)
	GenerateGuardianCode(ctx context.Context) (string, error)
}

type Service struct {
	service.Base
	users      repository.UserRepository
	patients   repository.PatientRepository
	guardians  repository.GuardianRepository
	pharmacies repository.PharmacyRepository
	hasher     security.PasswordHasher
	codes      *CodeGenerator
}

func NewService(repos *repository.Repositories, hasher security.PasswordHasher, base service.Base) *Service {
	return &Service{
		Base:       base.Named("account"),
		users:      repos.Users,
		patients:   repos.Patients,
		guardians:  repos.Guardians,
		pharmacies: repos.Pharmacies,
		hasher:     hasher,
		codes:      NewCodeGenerator(repos.Patients, base.Now),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) CreateUser(ctx context.Context, req model.CreateUserRequest) (uuid.UUID, error) {
	id, err := s.createUser(ctx, req)
	return id, s.Finish("create_user", err)
}

func (s *Service) createUser(ctx context.Context, req model.CreateUserRequest) (uuid.UUID, error) {
	email := normalizeEmail(req.Email)
	role := model.Role(strings.TrimSpace(string(req.Role)))
	if email == "" || req.Password == "" || role == "" {
		return uuid.Nil, apperrors.Validation(apperrors.ReasonMissingField, "email, password and role are required")
	}
	if !role.Valid() {
		return uuid.Nil, apperrors.Validation(apperrors.ReasonInvalidRole, "role must be patient, guardian or pharmacy")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, apperrors.Storage(err)
	}
	if exists {
		return uuid.Nil, apperrors.Conflict(apperrors.ReasonDuplicateEmail, "email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return uuid.Nil, apperrors.Validation(apperrors.ReasonOutOfRange,
			fmt.Sprintf("password must be at most %d bytes", security.MaxPasswordBytes))
	}
	if err != nil {
		return uuid.Nil, apperrors.Storage(err)
	}

	user := &model.User{
		Base:         model.Base{ID: uuid.New(), CreatedAt: s.Now()},
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return uuid.Nil, service.Translate(err, nil,
			apperrors.Conflict(apperrors.ReasonDuplicateEmail, "email already registered", nil))
	}

	s.Log.Info("user created", "user_id", user.ID.String(), "role", string(role))
	return user.ID, nil
}

// AuthenticateUser returns the same error for unknown, inactive and
// wrong-password accounts.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.Finish("authenticate_user", apperrors.Unauthorized(nil))
		}
		return nil, s.Finish("authenticate_user", apperrors.Storage(err))
	}
	if !user.IsActive {
		return nil, s.Finish("authenticate_user", apperrors.Unauthorized(nil))
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			s.Log.Error(err, "stored password hash unreadable", "user_id", user.ID.String())
		}
		return nil, s.Finish("authenticate_user", apperrors.Unauthorized(nil))
	}

	return &model.AuthResult{UserID: user.ID, Role: user.Role, Email: user.Email}, s.Finish("authenticate_user", nil)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, s.Finish("get_user", service.Translate(err, apperrors.NotFound("user", apperrors.ReasonUserNotFound), nil))
	}
	return user, s.Finish("get_user", nil)
}

// userWithRole loads the user and hides accounts of a different role.
func (s *Service) userWithRole(ctx context.Context, id uuid.UUID, role model.Role) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, service.Translate(err, apperrors.NotFound("user", apperrors.ReasonUserNotFound), nil)
	}
	if user.Role != role {
		return nil, apperrors.NotFound("user", apperrors.ReasonUserNotFound)
	}
	return user, nil
}

func nonNil(in []string) pq.StringArray {
	out := pq.StringArray{}
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (s *Service) CreatePatientProfile(ctx context.Context, userID uuid.UUID, req model.CreatePatientRequest) (uuid.UUID, error) {
	id, err := s.createPatientProfile(ctx, userID, req)
	return id, s.Finish("create_patient_profile", err)
}

func (s *Service) createPatientProfile(ctx context.Context, userID uuid.UUID, req model.CreatePatientRequest) (uuid.UUID, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Gender = strings.TrimSpace(req.Gender)
	if err := s.CheckStruct(req, map[string]string{"age": apperrors.ReasonInvalidAge}); err != nil {
		return uuid.Nil, err
	}

	if _, err := s.userWithRole(ctx, userID, model.RolePatient); err != nil {
		return uuid.Nil, err
	}

	profileExists := apperrors.Conflict(apperrors.ReasonProfileExists, "patient profile already exists", nil)
	if _, err := s.patients.GetByUserID(ctx, userID); err == nil {
		return uuid.Nil, profileExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, apperrors.Storage(err)
	}

	code, err := s.codes.Generate(ctx)
	if err != nil {
		return uuid.Nil, apperrors.Storage(err)
	}

	patient := &model.Patient{
		Base:              model.Base{ID: uuid.New(), CreatedAt: s.Now()},
		UserID:            userID,
		Name:              req.Name,
		Age:               req.Age,
		Gender:            req.Gender,
		Allergies:         nonNil(req.Allergies),
		MedicalConditions: nonNil(req.Conditions),
		GuardianCode:      code,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		if repository.ViolatedConstraint(err) == repository.ConstraintPatientGuardianCode {
			return uuid.Nil, service.Translate(err, nil,
				apperrors.Conflict(apperrors.ReasonDuplicateCode, "guardian code already in use, retry", nil))
		}
		return uuid.Nil, service.Translate(err, nil, profileExists)
	}

	s.Log.Info("patient profile created", "patient_id", patient.ID.String())
	return patient.ID, nil
}

func (s *Service) GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.GetByUserID(ctx, userID)
	if err != nil {
		return nil, s.Finish("get_patient", service.Translate(err, apperrors.NotFound("patient", apperrors.ReasonPatientNotFound), nil))
	}
	return patient, s.Finish("get_patient", nil)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, s.Finish("get_patient", service.Translate(err, apperrors.NotFound("patient", apperrors.ReasonPatientNotFound), nil))
	}
	return patient, s.Finish("get_patient", nil)
}

func (s *Service) UpdatePatientProfile(ctx context.Context, id uuid.UUID, patch model.PatientPatch) (*model.Patient, error) {
	patient, err := s.updatePatientProfile(ctx, id, patch)
	return patient, s.Finish("update_patient_profile", err)
}

func (s *Service) updatePatientProfile(ctx context.Context, id uuid.UUID, patch model.PatientPatch) (*model.Patient, error) {
	if patch.Empty() {
		return nil, apperrors.Validation(apperrors.ReasonNoUpdates, "no fields to update")
	}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
	}
	if patch.Gender != nil {
		trimmed := strings.TrimSpace(*patch.Gender)
		patch.Gender = &trimmed
	}
	if err := s.CheckStruct(patch, map[string]string{"age": apperrors.ReasonInvalidAge}); err != nil {
		return nil, err
	}

	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, service.Translate(err, apperrors.NotFound("patient", apperrors.ReasonPatientNotFound), nil)
	}

	patch.Apply(patient)
	if patch.Allergies != nil {
		patient.Allergies = nonNil(patient.Allergies)
	}
	if patch.Conditions != nil {
		patient.MedicalConditions = nonNil(patient.MedicalConditions)
	}

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, service.Translate(err, apperrors.NotFound("patient", apperrors.ReasonPatientNotFound), nil)
	}
	return patient, nil
}

func (s *Service) CreateGuardianProfile(ctx context.Context, userID uuid.UUID, req model.CreateGuardianRequest) (uuid.UUID, error) {
	id, err := s.createGuardianProfile(ctx, userID, req)
	return id, s.Finish("create_guardian_profile", err)
}

func (s *Service) createGuardianProfile(ctx context.Context, userID uuid.UUID, req model.CreateGuardianRequest) (uuid.UUID, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Relationship = strings.TrimSpace(req.Relationship)
	if err := s.CheckStruct(req, nil); err != nil {
		return uuid.Nil, err
	}

	if _, err := s.userWithRole(ctx, userID, model.RoleGuardian); err != nil {
		return uuid.Nil, err
	}

	profileExists := apperrors.Conflict(apperrors.ReasonProfileExists, "guardian profile already exists", nil)
	if _, err := s.guardians.GetByUserID(ctx, userID); err == nil {
		return uuid.Nil, profileExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, apperrors.Storage(err)
	}

	guardian := &model.Guardian{
		Base:         model.Base{ID: uuid.New(), CreatedAt: s.Now()},
		UserID:       userID,
		Name:         req.Name,
		Phone:        req.Phone,
		Relationship: req.Relationship,
	}
	if err := s.guardians.Create(ctx, guardian); err != nil {
		return uuid.Nil, service.Translate(err, nil, profileExists)
	}
	return guardian.ID, nil
}

func (s *Service) GetGuardianByUserID(ctx context.Context, userID uuid.UUID) (*model.Guardian, error) {
	guardian, err := s.guardians.GetByUserID(ctx, userID)
	if err != nil {
		return nil, s.Finish("get_guardian", service.Translate(err, apperrors.NotFound("guardian", apperrors.ReasonGuardianNotFound), nil))
	}
	return guardian, s.Finish("get_guardian", nil)
}

func (s *Service) CreatePharmacyProfile(ctx context.Context, userID uuid.UUID, req model.CreatePharmacyRequest) (uuid.UUID, error) {
	id, err := s.createPharmacyProfile(ctx, userID, req)
	return id, s.Finish("create_pharmacy_profile", err)
}

func (s *Service) createPharmacyProfile(ctx context.Context, userID uuid.UUID, req model.CreatePharmacyRequest) (uuid.UUID, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)
	req.LicenseNumber = strings.TrimSpace(req.LicenseNumber)
	if err := s.CheckStruct(req, nil); err != nil {
		return uuid.Nil, err
	}

	user, err := s.userWithRole(ctx, userID, model.RolePharmacy)
	if err != nil {
		return uuid.Nil, err
	}

	profileExists := apperrors.Conflict(apperrors.ReasonProfileExists, "pharmacy profile already exists", nil)
	if _, err := s.pharmacies.GetByUserID(ctx, userID); err == nil {
		return uuid.Nil, profileExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, apperrors.Storage(err)
	}

	pharmacy := &model.Pharmacy{
		Base:          model.Base{ID: uuid.New(), CreatedAt: s.Now()},
		UserID:        userID,
		Email:         user.Email,
		Name:          req.Name,
		Address:       req.Address,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		Inventory:     model.Inventory{},
	}
	if err := s.pharmacies.Create(ctx, pharmacy); err != nil {
		return uuid.Nil, service.Translate(err, nil, profileExists)
	}
	return pharmacy.ID, nil
}

// RegisterPharmacy creates a pharmacy account and its profile in one call.
func (s *Service) RegisterPharmacy(ctx context.Context, req model.RegisterPharmacyRequest) (*model.Pharmacy, error) {
	userID, err := s.CreateUser(ctx, model.CreateUserRequest{
		Email:    req.Email,
		Password: req.Password,
		Role:     model.RolePharmacy,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.CreatePharmacyProfile(ctx, userID, req.CreatePharmacyRequest); err != nil {
		return nil, err
	}
	return s.GetPharmacyByUserID(ctx, userID)
}

func (s *Service) GetPharmacyByUserID(ctx context.Context, userID uuid.UUID) (*model.Pharmacy, error) {
	pharmacy, err := s.pharmacies.GetByUserID(ctx, userID)
	if err != nil {
		return nil, s.Finish("get_pharmacy", service.Translate(err, apperrors.NotFound("pharmacy", apperrors.ReasonPharmacyNotFound), nil))
	}
	return pharmacy, s.Finish("get_pharmacy", nil)
}

func (s *Service) GenerateGuardianCode(ctx context.Context) (string, error) {
	code, err := s.codes.Generate(ctx)
	if err != nil {
		return "", s.Finish("generate_guardian_code", apperrors.Storage(err))
	}
	return code, s.Finish("generate_guardian_code", nil)
}
