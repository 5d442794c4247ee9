package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Pharmacy struct {
	Base
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	Email             string    `db:"email" json:"email"`
	Name              string    `db:"name" json:"name"`
	Address           string    `db:"address" json:"address"`
	Phone             string    `db:"phone" json:"phone"`
	LicenseNumber     string    `db:"license_number" json:"license_number"`
	IsVerified        bool      `db:"is_verified" json:"is_verified"`
	DeliveryAvailable bool      `db:"delivery_available" json:"delivery_available"`
	Inventory         Inventory `db:"inventory" json:"inventory"`
}

type CreatePharmacyRequest struct {
	Name          string `json:"name" validate:"required"`
	Address       string `json:"address" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	LicenseNumber string `json:"license_number" validate:"required"`
}

// RegisterPharmacyRequest creates the pharmacy account and profile together.
type RegisterPharmacyRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	CreatePharmacyRequest
}

type InventoryItem struct {
	MedicationName string    `json:"medication_name"`
	Price          float64   `json:"price"`
	InStock        bool      `json:"in_stock"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type InventoryRequest struct {
	MedicationName string  `json:"medication_name" validate:"required"`
	Price          float64 `json:"price" validate:"gte=0"`
	InStock        *bool   `json:"in_stock"`
}

// Inventory is embedded in the pharmacy row as a JSON document.
type Inventory []InventoryItem

// Upsert replaces the item whose name matches case-insensitively, or appends it.
// It reports whether an existing item was updated.
func (inv Inventory) Upsert(item InventoryItem) (Inventory, bool) {
	for i := range inv {
		if strings.EqualFold(inv[i].MedicationName, item.MedicationName) {
			inv[i].Price = item.Price
			inv[i].InStock = item.InStock
			inv[i].UpdatedAt = item.UpdatedAt
			return inv, true
		}
	}
	return append(inv, item), false
}

// StocksMatching reports whether any in-stock item name contains term, ignoring case.
func (inv Inventory) StocksMatching(term string) bool {
	term = strings.ToLower(term)
	for _, item := range inv {
		if item.InStock && strings.Contains(strings.ToLower(item.MedicationName), term) {
			return true
		}
	}
	return false
}

func (inv Inventory) Value() (driver.Value, error) {
	if inv == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(inv)
}

func (inv *Inventory) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*inv = Inventory{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Inventory", src)
	}
	return json.Unmarshal(data, inv)
}
