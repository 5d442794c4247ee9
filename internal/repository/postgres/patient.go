package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
)

const patientColumns = `id, user_id, name, age, gender, allergies, medical_conditions, guardian_code, created_at`

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES (:id, :user_id, :name, :age, :gender, :allergies, :medical_conditions, :guardian_code, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, patient)
	return mapError("create patient", err)
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return r.getBy(ctx, "get patient", `id = $1`, id)
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	return r.getBy(ctx, "get patient by user", `user_id = $1`, userID)
}

func (r *patientRepository) GetByGuardianCode(ctx context.Context, code string) (*model.Patient, error) {
	return r.getBy(ctx, "get patient by guardian code", `guardian_code = $1`, code)
}

func (r *patientRepository) getBy(ctx context.Context, op, where string, arg interface{}) (*model.Patient, error) {
	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE ` + where
	if err := r.db.GetContext(ctx, &patient, query, arg); err != nil {
		return nil, mapError(op, err)
	}
	return &patient, nil
}

func (r *patientRepository) GuardianCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM patients WHERE guardian_code = $1)`, code)
	return exists, mapError("check guardian code", err)
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET name = :name, age = :age, gender = :gender,
			allergies = :allergies, medical_conditions = :medical_conditions
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, patient)
	if err != nil {
		return mapError("update patient", err)
	}
	return requireAffected("update patient", result)
}

func (r *patientRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Patient, error) {
	patients := []*model.Patient{}
	if len(ids) == 0 {
		return patients, nil
	}
	query, args, err := sqlx.In(`SELECT `+patientColumns+` FROM patients WHERE id IN (?) ORDER BY name`, ids)
	if err != nil {
		return nil, mapError("list patients", err)
	}
	if err := r.db.SelectContext(ctx, &patients, r.db.Rebind(query), args...); err != nil {
		return nil, mapError("list patients", err)
	}
	return patients, nil
}
