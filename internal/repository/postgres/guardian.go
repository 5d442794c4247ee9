package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
)

const guardianColumns = `id, user_id, name, phone, relationship, created_at`

type guardianRepository struct {
	BaseRepository
}

func NewGuardianRepository(base BaseRepository) repository.GuardianRepository {
	return &guardianRepository{base}
}

func (r *guardianRepository) Create(ctx context.Context, guardian *model.Guardian) error {
	query := `
		INSERT INTO guardians (` + guardianColumns + `)
		VALUES (:id, :user_id, :name, :phone, :relationship, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, guardian)
	return mapError("create guardian", err)
}

func (r *guardianRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Guardian, error) {
	var guardian model.Guardian
	query := `SELECT ` + guardianColumns + ` FROM guardians WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &guardian, query, userID); err != nil {
		return nil, mapError("get guardian by user", err)
	}
	return &guardian, nil
}

func (r *guardianRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Guardian, error) {
	guardians := []*model.Guardian{}
	if len(ids) == 0 {
		return guardians, nil
	}
	query, args, err := sqlx.In(`SELECT `+guardianColumns+` FROM guardians WHERE id IN (?) ORDER BY name`, ids)
	if err != nil {
		return nil, mapError("list guardians", err)
	}
	if err := r.db.SelectContext(ctx, &guardians, r.db.Rebind(query), args...); err != nil {
		return nil, mapError("list guardians", err)
	}
	return guardians, nil
}
