package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
)

const medicationColumns = `id, patient_id, medication_name, dosage, frequency, times, notes,
	side_effects, storage, refill_date, is_active, created_at, updated_at, deactivated_at`

type medicationRepository struct {
	BaseRepository
}

func NewMedicationRepository(base BaseRepository) repository.MedicationRepository {
	return &medicationRepository{base}
}

func (r *medicationRepository) Create(ctx context.Context, medication *model.Medication) error {
	query := `
		INSERT INTO medications (` + medicationColumns + `)
		VALUES (:id, :patient_id, :medication_name, :dosage, :frequency, :times, :notes,
			:side_effects, :storage, :refill_date, :is_active, :created_at, :updated_at, :deactivated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, medication)
	return mapError("create medication", err)
}

func (r *medicationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	var medication model.Medication
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1`
	if err := r.db.GetContext(ctx, &medication, query, id); err != nil {
		return nil, mapError("get medication", err)
	}
	return &medication, nil
}

func (r *medicationRepository) GetActiveForPatient(ctx context.Context, id, patientID uuid.UUID) (*model.Medication, error) {
	var medication model.Medication
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1 AND patient_id = $2 AND is_active`
	if err := r.db.GetContext(ctx, &medication, query, id, patientID); err != nil {
		return nil, mapError("get patient medication", err)
	}
	return &medication, nil
}

func (r *medicationRepository) Update(ctx context.Context, medication *model.Medication) error {
	query := `
		UPDATE medications
		SET medication_name = :medication_name, dosage = :dosage, frequency = :frequency,
			times = :times, notes = :notes, side_effects = :side_effects, storage = :storage,
			refill_date = :refill_date, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, medication)
	if err != nil {
		return mapError("update medication", err)
	}
	return requireAffected("update medication", result)
}

func (r *medicationRepository) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE medications SET is_active = FALSE, deactivated_at = $1, updated_at = $1 WHERE id = $2`,
		at.UTC(), id)
	if err != nil {
		return mapError("deactivate medication", err)
	}
	return requireAffected("deactivate medication", result)
}

func (r *medicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return mapError("delete medication", err)
	}
	return requireAffected("delete medication", result)
}

func (r *medicationRepository) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Medication, error) {
	medications := []*model.Medication{}
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE patient_id = $1 AND is_active ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &medications, query, patientID); err != nil {
		return nil, mapError("list medications", err)
	}
	return medications, nil
}
