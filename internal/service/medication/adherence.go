package medication

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/service"
	"github.com/mediscan/mediscan-api/internal/service/event"
)

const noActiveMedications = "No active medications found"

// LogMedicationTaken records a dose of an active medication owned by the
// patient. Repeated logs for the same dose are all kept.
func (s *Service) LogMedicationTaken(ctx context.Context, patientID, medicationID uuid.UUID, takenAt *time.Time) (uuid.UUID, error) {
	id, err := s.logMedicationTaken(ctx, patientID, medicationID, takenAt)
	return id, s.Finish("log_medication_taken", err)
}

func (s *Service) logMedicationTaken(ctx context.Context, patientID, medicationID uuid.UUID, takenAt *time.Time) (uuid.UUID, error) {
	if _, err := s.medications.GetActiveForPatient(ctx, medicationID, patientID); err != nil {
		return uuid.Nil, service.Translate(err, medicationNotFound(), nil)
	}

	at := s.Now()
	if takenAt != nil && !takenAt.IsZero() {
		at = takenAt.UTC()
	}

	entry := &model.MedicationLog{
		ID:           uuid.New(),
		PatientID:    patientID,
		MedicationID: medicationID,
		TakenAt:      at,
		Date:         model.DateOf(at),
		Status:       model.MedicationLogStatusTaken,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return uuid.Nil, service.Translate(err, nil, nil)
	}

	s.Events.Emit(ctx, event.MedicationTaken, event.MedicationTakenPayload{
		LogID:        entry.ID.String(),
		PatientID:    patientID.String(),
		MedicationID: medicationID.String(),
		TakenAt:      at.Format(time.RFC3339),
	})
	return entry.ID, nil
}

// GetTodayMedications expands every active medication into one row per
// dosing time. A medication counts as taken for all of its rows once any
// dose of it is logged today.
func (s *Service) GetTodayMedications(ctx context.Context, patientID uuid.UUID) ([]model.ScheduleEntry, error) {
	schedule, err := s.getTodayMedications(ctx, patientID)
	return schedule, s.Finish("get_today_medications", err)
}

func (s *Service) getTodayMedications(ctx context.Context, patientID uuid.UUID) ([]model.ScheduleEntry, error) {
	medications, err := s.medications.ListActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, service.Translate(err, nil, nil)
	}

	today := model.DateOf(s.Now())
	logs, err := s.logs.ListByDateRange(ctx, patientID, today, today)
	if err != nil {
		return nil, service.Translate(err, nil, nil)
	}

	taken := make(map[uuid.UUID]bool, len(logs))
	for _, l := range logs {
		taken[l.MedicationID] = true
	}

	schedule := []model.ScheduleEntry{}
	for _, m := range medications {
		for _, t := range m.Times {
			schedule = append(schedule, model.ScheduleEntry{
				MedicationID:   m.ID,
				MedicationName: m.Name,
				Dosage:         m.Dosage,
				Time:           t,
				Taken:          taken[m.ID],
				Notes:          m.Notes,
				Frequency:      m.Frequency,
			})
		}
	}

	sort.SliceStable(schedule, func(i, j int) bool { return schedule[i].Time < schedule[j].Time })
	return schedule, nil
}

// GetMedicationCompliance compares logged doses in the last days days,
// today included, with the doses the active medications call for.
func (s *Service) GetMedicationCompliance(ctx context.Context, patientID uuid.UUID, days int) (*model.Compliance, error) {
	compliance, err := s.getMedicationCompliance(ctx, patientID, days)
	return compliance, s.Finish("get_medication_compliance", err)
}

func (s *Service) getMedicationCompliance(ctx context.Context, patientID uuid.UUID, days int) (*model.Compliance, error) {
	if err := service.CheckDays(days); err != nil {
		return nil, err
	}

	medications, err := s.medications.ListActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, service.Translate(err, nil, nil)
	}
	if len(medications) == 0 {
		return &model.Compliance{PeriodDays: days, Message: noActiveMedications}, nil
	}

	from, to := model.DateWindow(s.Now(), days)
	taken, err := s.logs.CountByDateRange(ctx, patientID, from, to)
	if err != nil {
		return nil, service.Translate(err, nil, nil)
	}

	expected := 0
	for _, m := range medications {
		expected += len(m.Times) * days
	}

	return &model.Compliance{
		CompliancePercentage: percentage(taken, expected),
		TakenDoses:           taken,
		ExpectedDoses:        expected,
		PeriodDays:           days,
	}, nil
}

// percentage rounds to one decimal place.
func percentage(taken, expected int) float64 {
	if expected == 0 {
		return 0
	}
	return math.Round(float64(taken)/float64(expected)*1000) / 10
}
