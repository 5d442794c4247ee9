package pharmacy

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
	"github.com/mediscan/mediscan-api/internal/service"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
)

type PharmacyService interface {
	AddOrUpdateInventoryItem(ctx context.Context, pharmacyID uuid.UUID, req model.InventoryRequest) (*model.InventoryItem, error)
	SearchPharmaciesByMedication(ctx context.Context, name string) ([]*model.Pharmacy, error)
	GetPharmacy(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error)
}

type Service struct {
	service.Base
	pharmacies repository.PharmacyRepository
}

func NewService(repos *repository.Repositories, base service.Base) *Service {
	return &Service{
		Base:       base.Named("pharmacy"),
		pharmacies: repos.Pharmacies,
	}
}

func pharmacyNotFound() *apperrors.AppError {
	return apperrors.NotFound("pharmacy", apperrors.ReasonPharmacyNotFound)
}

// AddOrUpdateInventoryItem updates the item whose name matches ignoring case,
// or appends a new one. in_stock defaults to true.
func (s *Service) AddOrUpdateInventoryItem(ctx context.Context, pharmacyID uuid.UUID, req model.InventoryRequest) (*model.InventoryItem, error) {
	item, err := s.addOrUpdateInventoryItem(ctx, pharmacyID, req)
	return item, s.Finish("upsert_inventory_item", err)
}

func (s *Service) addOrUpdateInventoryItem(ctx context.Context, pharmacyID uuid.UUID, req model.InventoryRequest) (*model.InventoryItem, error) {
	req.MedicationName = strings.TrimSpace(req.MedicationName)
	if err := s.CheckStruct(req, map[string]string{"price": apperrors.ReasonInvalidPrice}); err != nil {
		return nil, err
	}

	item := model.InventoryItem{
		MedicationName: req.MedicationName,
		Price:          req.Price,
		InStock:        req.InStock == nil || *req.InStock,
		UpdatedAt:      s.Now(),
	}

	var updated bool
	err := s.pharmacies.ModifyInventory(ctx, pharmacyID, func(inv model.Inventory) (model.Inventory, error) {
		var next model.Inventory
		next, updated = inv.Upsert(item)
		return next, nil
	})
	if err != nil {
		return nil, service.Translate(err, pharmacyNotFound(), nil)
	}

	s.Log.Debug("inventory item saved", "pharmacy_id", pharmacyID.String(), "medication", item.MedicationName, "updated", updated)
	return &item, nil
}

// SearchPharmaciesByMedication returns pharmacies stocking a medication whose
// name contains name, ignoring case. An empty name matches nothing.
func (s *Service) SearchPharmaciesByMedication(ctx context.Context, name string) ([]*model.Pharmacy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []*model.Pharmacy{}, s.Finish("search_pharmacies", nil)
	}

	pharmacies, err := s.pharmacies.SearchInStock(ctx, name)
	if err != nil {
		return nil, s.Finish("search_pharmacies", service.Translate(err, nil, nil))
	}
	return pharmacies, s.Finish("search_pharmacies", nil)
}

func (s *Service) GetPharmacy(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error) {
	pharmacy, err := s.pharmacies.Get(ctx, id)
	if err != nil {
		return nil, s.Finish("get_pharmacy", service.Translate(err, pharmacyNotFound(), nil))
	}
	return pharmacy, s.Finish("get_pharmacy", nil)
}
