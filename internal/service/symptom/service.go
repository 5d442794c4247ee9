package symptom

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
	"github.com/mediscan/mediscan-api/internal/service"
	"github.com/mediscan/mediscan-api/internal/service/event"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
)

type SymptomService interface {
	LogSymptom(ctx context.Context, patientID uuid.UUID, req model.SymptomRequest) (*model.SymptomLog, error)
	GetSymptomHistory(ctx context.Context, patientID uuid.UUID, days int) ([]*model.SymptomLog, error)
}

type Service struct {
	service.Base
	patients repository.PatientRepository
	symptoms repository.SymptomRepository
}

func NewService(repos *repository.Repositories, base service.Base) *Service {
	return &Service{
		Base:     base.Named("symptom"),
		patients: repos.Patients,
		symptoms: repos.Symptoms,
	}
}

// LogSymptom writes today's entry for the patient, replacing one logged
// earlier the same day.
func (s *Service) LogSymptom(ctx context.Context, patientID uuid.UUID, req model.SymptomRequest) (*model.SymptomLog, error) {
	entry, err := s.logSymptom(ctx, patientID, req)
	return entry, s.Finish("log_symptom", err)
}

func (s *Service) logSymptom(ctx context.Context, patientID uuid.UUID, req model.SymptomRequest) (*model.SymptomLog, error) {
	if err := s.CheckStruct(req, nil); err != nil {
		return nil, err
	}

	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, service.Translate(err, apperrors.NotFound("patient", apperrors.ReasonPatientNotFound), nil)
	}

	sideEffects := pq.StringArray{}
	for _, e := range req.SideEffects {
		if e = strings.TrimSpace(e); e != "" {
			sideEffects = append(sideEffects, e)
		}
	}

	now := s.Now()
	entry := &model.SymptomLog{
		ID:          uuid.New(),
		PatientID:   patientID,
		Date:        model.DateOf(now),
		Mood:        req.Mood,
		EnergyLevel: req.EnergyLevel,
		PainLevel:   req.PainLevel,
		SideEffects: sideEffects,
		Notes:       strings.TrimSpace(req.Notes),
		LoggedAt:    now,
	}
	if err := s.symptoms.Upsert(ctx, entry); err != nil {
		return nil, service.Translate(err, nil, nil)
	}

	s.Events.Emit(ctx, event.SymptomLogged, event.SymptomLoggedPayload{
		PatientID:   patientID.String(),
		Date:        entry.Date,
		Mood:        entry.Mood,
		EnergyLevel: entry.EnergyLevel,
		PainLevel:   entry.PainLevel,
	})
	return entry, nil
}

// GetSymptomHistory returns the entries of the last days days, newest first.
func (s *Service) GetSymptomHistory(ctx context.Context, patientID uuid.UUID, days int) ([]*model.SymptomLog, error) {
	if err := service.CheckDays(days); err != nil {
		return nil, s.Finish("get_symptom_history", err)
	}

	from, to := model.DateWindow(s.Now(), days)
	entries, err := s.symptoms.ListByDateRange(ctx, patientID, from, to)
	if err != nil {
		return nil, s.Finish("get_symptom_history", service.Translate(err, nil, nil))
	}
	return entries, s.Finish("get_symptom_history", nil)
}
