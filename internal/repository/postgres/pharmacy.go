package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
)

const pharmacyColumns = `id, user_id, email, name, address, phone, license_number,
	is_verified, delivery_available, inventory, created_at`

// likeEscaper neutralises LIKE wildcards in user-supplied search terms.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type pharmacyRepository struct {
	BaseRepository
}

func NewPharmacyRepository(base BaseRepository) repository.PharmacyRepository {
	return &pharmacyRepository{base}
}

func (r *pharmacyRepository) Create(ctx context.Context, pharmacy *model.Pharmacy) error {
	query := `
		INSERT INTO pharmacies (` + pharmacyColumns + `)
		VALUES (:id, :user_id, :email, :name, :address, :phone, :license_number,
			:is_verified, :delivery_available, :inventory, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, pharmacy)
	return mapError("create pharmacy", err)
}

func (r *pharmacyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error) {
	var pharmacy model.Pharmacy
	query := `SELECT ` + pharmacyColumns + ` FROM pharmacies WHERE id = $1`
	if err := r.db.GetContext(ctx, &pharmacy, query, id); err != nil {
		return nil, mapError("get pharmacy", err)
	}
	return &pharmacy, nil
}

func (r *pharmacyRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Pharmacy, error) {
	var pharmacy model.Pharmacy
	query := `SELECT ` + pharmacyColumns + ` FROM pharmacies WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &pharmacy, query, userID); err != nil {
		return nil, mapError("get pharmacy by user", err)
	}
	return &pharmacy, nil
}

func (r *pharmacyRepository) ModifyInventory(ctx context.Context, pharmacyID uuid.UUID, fn func(model.Inventory) (model.Inventory, error)) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var inventory model.Inventory
		err := tx.GetContext(ctx, &inventory, `SELECT inventory FROM pharmacies WHERE id = $1 FOR UPDATE`, pharmacyID)
		if err != nil {
			return mapError("lock pharmacy inventory", err)
		}

		updated, err := fn(inventory)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE pharmacies SET inventory = $1 WHERE id = $2`, updated, pharmacyID); err != nil {
			return mapError("update pharmacy inventory", err)
		}
		return nil
	})
}

func (r *pharmacyRepository) SearchInStock(ctx context.Context, term string) ([]*model.Pharmacy, error) {
	query := `
		SELECT ` + pharmacyColumns + ` FROM pharmacies
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(inventory) AS item
			WHERE item->>'medication_name' ILIKE '%' || $1 || '%' ESCAPE '\'
				AND (item->>'in_stock')::boolean
		)
		ORDER BY name
	`
	pharmacies := []*model.Pharmacy{}
	if err := r.db.SelectContext(ctx, &pharmacies, query, likeEscaper.Replace(term)); err != nil {
		return nil, mapError("search pharmacies", err)
	}
	return pharmacies, nil
}
