package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
)

const linkColumns = `id, patient_id, guardian_id, linked_at, is_active`

type guardianLinkRepository struct {
	BaseRepository
}

func NewGuardianLinkRepository(base BaseRepository) repository.GuardianLinkRepository {
	return &guardianLinkRepository{base}
}

func (r *guardianLinkRepository) Create(ctx context.Context, link *model.GuardianLink) error {
	query := `
		INSERT INTO guardian_links (` + linkColumns + `)
		VALUES (:id, :patient_id, :guardian_id, :linked_at, :is_active)
	`
	_, err := r.db.NamedExecContext(ctx, query, link)
	return mapError("create guardian link", err)
}

func (r *guardianLinkRepository) Exists(ctx context.Context, patientID, guardianID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM guardian_links WHERE patient_id = $1 AND guardian_id = $2)`,
		patientID, guardianID)
	return exists, mapError("check guardian link", err)
}

func (r *guardianLinkRepository) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.GuardianLink, error) {
	return r.listActive(ctx, "list links by patient", `patient_id = $1`, patientID)
}

func (r *guardianLinkRepository) ListActiveByGuardian(ctx context.Context, guardianID uuid.UUID) ([]*model.GuardianLink, error) {
	return r.listActive(ctx, "list links by guardian", `guardian_id = $1`, guardianID)
}

func (r *guardianLinkRepository) listActive(ctx context.Context, op, where string, id uuid.UUID) ([]*model.GuardianLink, error) {
	links := []*model.GuardianLink{}
	query := `SELECT ` + linkColumns + ` FROM guardian_links WHERE is_active AND ` + where + ` ORDER BY linked_at`
	if err := r.db.SelectContext(ctx, &links, query, id); err != nil {
		return nil, mapError(op, err)
	}
	return links, nil
}
