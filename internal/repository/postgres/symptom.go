package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
)

type symptomRepository struct {
	BaseRepository
}

func NewSymptomRepository(base BaseRepository) repository.SymptomRepository {
	return &symptomRepository{base}
}

// Upsert keeps the existing row id on conflict and writes it back onto entry.
func (r *symptomRepository) Upsert(ctx context.Context, entry *model.SymptomLog) error {
	query := `
		INSERT INTO symptom_logs (id, patient_id, date, mood, energy_level, pain_level, side_effects, notes, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (patient_id, date) DO UPDATE SET
			mood = EXCLUDED.mood,
			energy_level = EXCLUDED.energy_level,
			pain_level = EXCLUDED.pain_level,
			side_effects = EXCLUDED.side_effects,
			notes = EXCLUDED.notes,
			logged_at = EXCLUDED.logged_at
		RETURNING id
	`
	var id uuid.UUID
	err := r.db.QueryRowxContext(ctx, query,
		entry.ID,
		entry.PatientID,
		entry.Date,
		entry.Mood,
		entry.EnergyLevel,
		entry.PainLevel,
		entry.SideEffects,
		entry.Notes,
		entry.LoggedAt,
	).Scan(&id)
	if err != nil {
		return mapError("upsert symptom log", err)
	}
	entry.ID = id
	return nil
}

func (r *symptomRepository) ListByDateRange(ctx context.Context, patientID uuid.UUID, from, to string) ([]*model.SymptomLog, error) {
	query := `
		SELECT id, patient_id, date, mood, energy_level, pain_level, side_effects, notes, logged_at
		FROM symptom_logs
		WHERE patient_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date DESC
	`
	entries := []*model.SymptomLog{}
	if err := r.db.SelectContext(ctx, &entries, query, patientID, from, to); err != nil {
		return nil, mapError("list symptom logs", err)
	}
	return entries, nil
}
