package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/model"
)

type pharmacyRepository struct{ s *Store }

func clonePharmacy(p *model.Pharmacy) *model.Pharmacy {
	cp := *p
	cp.Inventory = append(model.Inventory{}, p.Inventory...)
	return &cp
}

func (r *pharmacyRepository) Create(_ context.Context, pharmacy *model.Pharmacy) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.pharmacies {
		if p.UserID == pharmacy.UserID {
			return duplicate("pharmacies_user_id_key")
		}
		if p.Email == pharmacy.Email {
			return duplicate("pharmacies_email_key")
		}
	}
	r.s.pharmacies[pharmacy.ID] = clonePharmacy(pharmacy)
	return nil
}

func (r *pharmacyRepository) Get(_ context.Context, id uuid.UUID) (*model.Pharmacy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.pharmacies[id]
	if !ok {
		return nil, notFound("pharmacy")
	}
	return clonePharmacy(p), nil
}

func (r *pharmacyRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Pharmacy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.pharmacies {
		if p.UserID == userID {
			return clonePharmacy(p), nil
		}
	}
	return nil, notFound("pharmacy")
}

func (r *pharmacyRepository) ModifyInventory(_ context.Context, pharmacyID uuid.UUID, fn func(model.Inventory) (model.Inventory, error)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.pharmacies[pharmacyID]
	if !ok {
		return notFound("pharmacy")
	}
	updated, err := fn(append(model.Inventory{}, p.Inventory...))
	if err != nil {
		return err
	}
	p.Inventory = updated
	return nil
}

func (r *pharmacyRepository) SearchInStock(_ context.Context, term string) ([]*model.Pharmacy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	pharmacies := []*model.Pharmacy{}
	for _, p := range r.s.pharmacies {
		if p.Inventory.StocksMatching(term) {
			pharmacies = append(pharmacies, clonePharmacy(p))
		}
	}
	sort.SliceStable(pharmacies, func(i, j int) bool { return pharmacies[i].Name < pharmacies[j].Name })
	return pharmacies, nil
}

type medicationRepository struct{ s *Store }

func cloneMedication(m *model.Medication) *model.Medication {
	cp := *m
	cp.Times = cloneStrings(m.Times)
	return &cp
}

func (r *medicationRepository) Create(_ context.Context, medication *model.Medication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.medications[medication.ID]; ok {
		return duplicate("medications_pkey")
	}
	r.s.medications[medication.ID] = cloneMedication(medication)
	r.s.medicationOrder = append(r.s.medicationOrder, medication.ID)
	return nil
}

func (r *medicationRepository) Get(_ context.Context, id uuid.UUID) (*model.Medication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.medications[id]
	if !ok {
		return nil, notFound("medication")
	}
	return cloneMedication(m), nil
}

func (r *medicationRepository) GetActiveForPatient(_ context.Context, id, patientID uuid.UUID) (*model.Medication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.medications[id]
	if !ok || m.PatientID != patientID || !m.IsActive {
		return nil, notFound("medication")
	}
	return cloneMedication(m), nil
}

func (r *medicationRepository) Update(_ context.Context, medication *model.Medication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.medications[medication.ID]
	if !ok {
		return notFound("medication")
	}
	updated := cloneMedication(medication)
	updated.PatientID = existing.PatientID
	updated.CreatedAt = existing.CreatedAt
	updated.IsActive = existing.IsActive
	updated.DeactivatedAt = existing.DeactivatedAt
	r.s.medications[medication.ID] = updated
	return nil
}

func (r *medicationRepository) Deactivate(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.medications[id]
	if !ok {
		return notFound("medication")
	}
	at = at.UTC()
	m.IsActive = false
	m.DeactivatedAt = &at
	m.UpdatedAt = &at
	return nil
}

// Delete removes the medication and its logs, matching ON DELETE CASCADE.
func (r *medicationRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.medications[id]; !ok {
		return notFound("medication")
	}
	delete(r.s.medications, id)
	order := r.s.medicationOrder[:0]
	for _, mid := range r.s.medicationOrder {
		if mid != id {
			order = append(order, mid)
		}
	}
	r.s.medicationOrder = order
	kept := r.s.medicationLogs[:0]
	for _, l := range r.s.medicationLogs {
		if l.MedicationID != id {
			kept = append(kept, l)
		}
	}
	r.s.medicationLogs = kept
	return nil
}

func (r *medicationRepository) ListActiveByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Medication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	medications := []*model.Medication{}
	for _, id := range r.s.medicationOrder {
		m := r.s.medications[id]
		if m.PatientID == patientID && m.IsActive {
			medications = append(medications, cloneMedication(m))
		}
	}
	sort.SliceStable(medications, func(i, j int) bool {
		return medications[i].CreatedAt.Before(medications[j].CreatedAt)
	})
	return medications, nil
}

type medicationLogRepository struct{ s *Store }

func (r *medicationLogRepository) Create(_ context.Context, log *model.MedicationLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *log
	r.s.medicationLogs = append(r.s.medicationLogs, &cp)
	return nil
}

func (r *medicationLogRepository) ListByDateRange(_ context.Context, patientID uuid.UUID, from, to string) ([]*model.MedicationLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	logs := []*model.MedicationLog{}
	for _, l := range r.s.medicationLogs {
		if l.PatientID == patientID && l.Date >= from && l.Date <= to {
			cp := *l
			logs = append(logs, &cp)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].TakenAt.Before(logs[j].TakenAt) })
	return logs, nil
}

func (r *medicationLogRepository) CountByDateRange(ctx context.Context, patientID uuid.UUID, from, to string) (int, error) {
	logs, err := r.ListByDateRange(ctx, patientID, from, to)
	return len(logs), err
}

type symptomRepository struct{ s *Store }

func (r *symptomRepository) Upsert(_ context.Context, entry *model.SymptomLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *entry
	cp.SideEffects = cloneStrings(entry.SideEffects)
	for i, existing := range r.s.symptoms {
		if existing.PatientID == entry.PatientID && existing.Date == entry.Date {
			cp.ID = existing.ID
			r.s.symptoms[i] = &cp
			entry.ID = existing.ID
			return nil
		}
	}
	r.s.symptoms = append(r.s.symptoms, &cp)
	return nil
}

func (r *symptomRepository) ListByDateRange(_ context.Context, patientID uuid.UUID, from, to string) ([]*model.SymptomLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	entries := []*model.SymptomLog{}
	for _, e := range r.s.symptoms {
		if e.PatientID == patientID && e.Date >= from && e.Date <= to {
			cp := *e
			cp.SideEffects = cloneStrings(e.SideEffects)
			entries = append(entries, &cp)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
	return entries, nil
}
