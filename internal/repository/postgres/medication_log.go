package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
)

type medicationLogRepository struct {
	BaseRepository
}

func NewMedicationLogRepository(base BaseRepository) repository.MedicationLogRepository {
	return &medicationLogRepository{base}
}

func (r *medicationLogRepository) Create(ctx context.Context, log *model.MedicationLog) error {
	query := `
		INSERT INTO medication_logs (id, patient_id, medication_id, taken_at, date, status)
		VALUES (:id, :patient_id, :medication_id, :taken_at, :date, :status)
	`
	_, err := r.db.NamedExecContext(ctx, query, log)
	return mapError("create medication log", err)
}

func (r *medicationLogRepository) ListByDateRange(ctx context.Context, patientID uuid.UUID, from, to string) ([]*model.MedicationLog, error) {
	query := `
		SELECT id, patient_id, medication_id, taken_at, date, status
		FROM medication_logs
		WHERE patient_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY taken_at
	`
	logs := []*model.MedicationLog{}
	if err := r.db.SelectContext(ctx, &logs, query, patientID, from, to); err != nil {
		return nil, mapError("list medication logs", err)
	}
	return logs, nil
}

func (r *medicationLogRepository) CountByDateRange(ctx context.Context, patientID uuid.UUID, from, to string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM medication_logs WHERE patient_id = $1 AND date BETWEEN $2 AND $3`,
		patientID, from, to)
	return count, mapError("count medication logs", err)
}
