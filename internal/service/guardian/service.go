package guardian

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
	"github.com/mediscan/mediscan-api/internal/service"
	"github.com/mediscan/mediscan-api/internal/service/event"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
)

type GuardianService interface {
	LinkGuardianToPatient(ctx context.Context, guardianCode string, guardianUserID uuid.UUID) (*model.GuardianLink, error)
	GetPatientGuardians(ctx context.Context, patientID uuid.UUID) ([]*model.Guardian, error)
	GetGuardianPatients(ctx context.Context, guardianUserID uuid.UUID) ([]*model.Patient, error)
}

type Service struct {
	service.Base
	patients  repository.PatientRepository
	guardians repository.GuardianRepository
	links     repository.GuardianLinkRepository
}

func NewService(repos *repository.Repositories, base service.Base) *Service {
	return &Service{
		Base:      base.Named("guardian"),
		patients:  repos.Patients,
		guardians: repos.Guardians,
		links:     repos.GuardianLinks,
	}
}

func alreadyLinked() *apperrors.AppError {
	return apperrors.Conflict(apperrors.ReasonAlreadyLinked, "guardian already linked to this patient", nil)
}

func (s *Service) LinkGuardianToPatient(ctx context.Context, guardianCode string, guardianUserID uuid.UUID) (*model.GuardianLink, error) {
	link, err := s.linkGuardianToPatient(ctx, guardianCode, guardianUserID)
	return link, s.Finish("link_guardian", err)
}

func (s *Service) linkGuardianToPatient(ctx context.Context, guardianCode string, guardianUserID uuid.UUID) (*model.GuardianLink, error) {
	guardianCode = strings.TrimSpace(guardianCode)
	if guardianCode == "" || guardianUserID == uuid.Nil {
		return nil, apperrors.Validation(apperrors.ReasonMissingField, "guardian code and user id are required")
	}

	patient, err := s.patients.GetByGuardianCode(ctx, guardianCode)
	if err != nil {
		return nil, service.Translate(err, apperrors.Validation(apperrors.ReasonInvalidCode, "invalid guardian code"), nil)
	}

	guardian, err := s.guardians.GetByUserID(ctx, guardianUserID)
	if err != nil {
		return nil, service.Translate(err, apperrors.NotFound("guardian profile", apperrors.ReasonGuardianNotFound), nil)
	}

	exists, err := s.links.Exists(ctx, patient.ID, guardian.ID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if exists {
		return nil, alreadyLinked()
	}

	link := &model.GuardianLink{
		ID:         uuid.New(),
		PatientID:  patient.ID,
		GuardianID: guardian.ID,
		LinkedAt:   s.Now(),
		IsActive:   true,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, service.Translate(err, nil, alreadyLinked())
	}

	s.Log.Info("guardian linked to patient", "link_id", link.ID.String())
	s.Events.Emit(ctx, event.GuardianLinked, event.GuardianLinkedPayload{
		LinkID:     link.ID.String(),
		PatientID:  patient.ID.String(),
		GuardianID: guardian.ID.String(),
	})
	return link, nil
}

func (s *Service) GetPatientGuardians(ctx context.Context, patientID uuid.UUID) ([]*model.Guardian, error) {
	guardians, err := s.getPatientGuardians(ctx, patientID)
	return guardians, s.Finish("get_patient_guardians", err)
}

func (s *Service) getPatientGuardians(ctx context.Context, patientID uuid.UUID) ([]*model.Guardian, error) {
	links, err := s.links.ListActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, service.Translate(err, nil, nil)
	}

	ids := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.GuardianID)
	}
	guardians, err := s.guardians.ListByIDs(ctx, ids)
	if err != nil {
		return nil, service.Translate(err, nil, nil)
	}
	return guardians, nil
}

// GetGuardianPatients lists the patients linked to the guardian owning
// guardianUserID. A user without a guardian profile has no patients.
func (s *Service) GetGuardianPatients(ctx context.Context, guardianUserID uuid.UUID) ([]*model.Patient, error) {
	patients, err := s.getGuardianPatients(ctx, guardianUserID)
	return patients, s.Finish("get_guardian_patients", err)
}

func (s *Service) getGuardianPatients(ctx context.Context, guardianUserID uuid.UUID) ([]*model.Patient, error) {
	guardian, err := s.guardians.GetByUserID(ctx, guardianUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return []*model.Patient{}, nil
	}
	if err != nil {
		return nil, service.Translate(err, nil, nil)
	}

	links, err := s.links.ListActiveByGuardian(ctx, guardian.ID)
	if err != nil {
		return nil, service.Translate(err, nil, nil)
	}

	ids := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.PatientID)
	}
	patients, err := s.patients.ListByIDs(ctx, ids)
	if err != nil {
		return nil, service.Translate(err, nil, nil)
	}
	return patients, nil
}
