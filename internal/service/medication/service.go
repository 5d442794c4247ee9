package medication

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
	"github.com/mediscan/mediscan-api/internal/service"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
)

type MedicationService interface {
	AddMedication(ctx context.Context, patientID uuid.UUID, req model.MedicationRequest) (uuid.UUID, error)
	GetMedication(ctx context.Context, id uuid.UUID) (*model.Medication, error)
	UpdateMedication(ctx context.Context, id uuid.UUID, patch model.MedicationPatch) (*model.Medication, error)
	ReplaceMedication(ctx context.Context, id uuid.UUID, req model.MedicationRequest) (*model.Medication, error)
	DeactivateMedication(ctx context.Context, id uuid.UUID) error
	DeleteMedication(ctx context.Context, id uuid.UUID) error
	GetPatientMedications(ctx context.Context, patientID uuid.UUID) ([]*model.Medication, error)
	LogMedicationTaken(ctx context.Context, patientID, medicationID uuid.UUID, takenAt *time.Time) (uuid.UUID, error)
	GetTodayMedications(ctx context.Context, patientID uuid.UUID) ([]model.ScheduleEntry, error)
	GetMedicationCompliance(ctx context.Context, patientID uuid.UUID, days int) (*model.Compliance, error)
}

type Service struct {
	service.Base
	patients    repository.PatientRepository
	medications repository.MedicationRepository
	logs        repository.MedicationLogRepository
}

func NewService(repos *repository.Repositories, base service.Base) *Service {
	return &Service{
		Base:        base.Named("medication"),
		patients:    repos.Patients,
		medications: repos.Medications,
		logs:        repos.MedicationLogs,
	}
}

func medicationNotFound() *apperrors.AppError {
	return apperrors.NotFound("medication", apperrors.ReasonNotFound)
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func normalizeRequest(req model.MedicationRequest) model.MedicationRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Dosage = strings.TrimSpace(req.Dosage)
	req.Frequency = strings.TrimSpace(req.Frequency)
	req.Times = trimAll(req.Times)
	req.Notes = strings.TrimSpace(req.Notes)
	req.SideEffects = strings.TrimSpace(req.SideEffects)
	req.Storage = strings.TrimSpace(req.Storage)
	req.RefillDate = strings.TrimSpace(req.RefillDate)
	return req
}

func (s *Service) AddMedication(ctx context.Context, patientID uuid.UUID, req model.MedicationRequest) (uuid.UUID, error) {
	id, err := s.addMedication(ctx, patientID, req)
	return id, s.Finish("add_medication", err)
}

func (s *Service) addMedication(ctx context.Context, patientID uuid.UUID, req model.MedicationRequest) (uuid.UUID, error) {
	req = normalizeRequest(req)
	if err := s.CheckStruct(req, nil); err != nil {
		return uuid.Nil, err
	}

	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return uuid.Nil, service.Translate(err, apperrors.NotFound("patient", apperrors.ReasonPatientNotFound), nil)
	}

	now := s.Now()
	medication := &model.Medication{
		Base:        model.Base{ID: uuid.New(), CreatedAt: now},
		PatientID:   patientID,
		Name:        req.Name,
		Dosage:      req.Dosage,
		Frequency:   req.Frequency,
		Times:       pq.StringArray(req.Times),
		Notes:       req.Notes,
		SideEffects: req.SideEffects,
		Storage:     req.Storage,
		RefillDate:  parseDate(req.RefillDate),
		IsActive:    true,
		UpdatedAt:   &now,
	}
	if err := s.medications.Create(ctx, medication); err != nil {
		return uuid.Nil, service.Translate(err, nil, nil)
	}

	s.Log.Info("medication added", "medication_id", medication.ID.String(), "patient_id", patientID.String())
	return medication.ID, nil
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	medication, err := s.medications.Get(ctx, id)
	if err != nil {
		return nil, s.Finish("get_medication", service.Translate(err, medicationNotFound(), nil))
	}
	return medication, s.Finish("get_medication", nil)
}

// UpdateMedication applies a sparse patch. It is the only write path for
// medication fields; ReplaceMedication builds a full patch on top of it.
func (s *Service) UpdateMedication(ctx context.Context, id uuid.UUID, patch model.MedicationPatch) (*model.Medication, error) {
	medication, err := s.updateMedication(ctx, id, patch)
	return medication, s.Finish("update_medication", err)
}

func (s *Service) updateMedication(ctx context.Context, id uuid.UUID, patch model.MedicationPatch) (*model.Medication, error) {
	if patch.Empty() {
		return nil, apperrors.Validation(apperrors.ReasonNoUpdates, "no fields to update")
	}

	patch.Name = trimPtr(patch.Name)
	patch.Dosage = trimPtr(patch.Dosage)
	patch.Frequency = trimPtr(patch.Frequency)
	patch.Notes = trimPtr(patch.Notes)
	patch.SideEffects = trimPtr(patch.SideEffects)
	patch.Storage = trimPtr(patch.Storage)
	patch.RefillDate = trimPtr(patch.RefillDate)
	if patch.Times != nil {
		times := trimAll(*patch.Times)
		patch.Times = &times
	}
	if err := s.CheckStruct(patch, nil); err != nil {
		return nil, err
	}

	medication, err := s.medications.Get(ctx, id)
	if err != nil {
		return nil, service.Translate(err, medicationNotFound(), nil)
	}

	applyPatch(medication, patch)
	now := s.Now()
	medication.UpdatedAt = &now

	if err := s.medications.Update(ctx, medication); err != nil {
		return nil, service.Translate(err, medicationNotFound(), nil)
	}
	return medication, nil
}

func applyPatch(m *model.Medication, p model.MedicationPatch) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.Frequency != nil {
		m.Frequency = *p.Frequency
	}
	if p.Times != nil {
		m.Times = append(pq.StringArray{}, (*p.Times)...)
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if p.SideEffects != nil {
		m.SideEffects = *p.SideEffects
	}
	if p.Storage != nil {
		m.Storage = *p.Storage
	}
	switch {
	case p.ClearRefillDate:
		m.RefillDate = nil
	case p.RefillDate != nil:
		m.RefillDate = parseDate(*p.RefillDate)
	}
}

// ReplaceMedication overwrites every editable field. Optional fields absent
// from req are cleared.
func (s *Service) ReplaceMedication(ctx context.Context, id uuid.UUID, req model.MedicationRequest) (*model.Medication, error) {
	req = normalizeRequest(req)
	if err := s.CheckStruct(req, nil); err != nil {
		return nil, s.Finish("replace_medication", err)
	}

	patch := model.MedicationPatch{
		Name:        &req.Name,
		Dosage:      &req.Dosage,
		Frequency:   &req.Frequency,
		Times:       &req.Times,
		Notes:       &req.Notes,
		SideEffects: &req.SideEffects,
		Storage:     &req.Storage,
	}
	if req.RefillDate == "" {
		patch.ClearRefillDate = true
	} else {
		patch.RefillDate = &req.RefillDate
	}
	return s.UpdateMedication(ctx, id, patch)
}

// DeactivateMedication hides the medication from schedules and compliance
// while keeping it and its logs.
func (s *Service) DeactivateMedication(ctx context.Context, id uuid.UUID) error {
	err := s.medications.Deactivate(ctx, id, s.Now())
	return s.Finish("deactivate_medication", service.Translate(err, medicationNotFound(), nil))
}

// DeleteMedication permanently removes the medication and its logs.
func (s *Service) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	err := s.medications.Delete(ctx, id)
	if err == nil {
		s.Log.Warn("medication purged", "medication_id", id.String())
	}
	return s.Finish("delete_medication", service.Translate(err, medicationNotFound(), nil))
}

func (s *Service) GetPatientMedications(ctx context.Context, patientID uuid.UUID) ([]*model.Medication, error) {
	medications, err := s.medications.ListActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, s.Finish("list_medications", service.Translate(err, nil, nil))
	}
	return medications, s.Finish("list_medications", nil)
}
