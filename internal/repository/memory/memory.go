// Package memory is a process-local implementation of the repository
// interfaces. It enforces the same uniqueness rules as the postgres schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
)

// Store holds every collection behind one lock.
type Store struct {
	mu             sync.RWMutex
	users          map[uuid.UUID]*model.User
	patients       map[uuid.UUID]*model.Patient
	guardians      map[uuid.UUID]*model.Guardian
	links          map[uuid.UUID]*model.GuardianLink
	pharmacies     map[uuid.UUID]*model.Pharmacy
	medications    map[uuid.UUID]*model.Medication
	// medicationOrder keeps insertion order so equal created_at values list stably.
	medicationOrder []uuid.UUID
	medicationLogs []*model.MedicationLog
	symptoms       []*model.SymptomLog
}

func NewStore() *Store {
	return &Store{
		users:       make(map[uuid.UUID]*model.User),
		patients:    make(map[uuid.UUID]*model.Patient),
		guardians:   make(map[uuid.UUID]*model.Guardian),
		links:       make(map[uuid.UUID]*model.GuardianLink),
		pharmacies:  make(map[uuid.UUID]*model.Pharmacy),
		medications: make(map[uuid.UUID]*model.Medication),
	}
}

// NewRepositories returns all repositories backed by a fresh Store.
func NewRepositories() *repository.Repositories {
	s := NewStore()
	return &repository.Repositories{
		Users:          &userRepository{s},
		Patients:       &patientRepository{s},
		Guardians:      &guardianRepository{s},
		GuardianLinks:  &guardianLinkRepository{s},
		Pharmacies:     &pharmacyRepository{s},
		Medications:    &medicationRepository{s},
		MedicationLogs: &medicationLogRepository{s},
		Symptoms:       &symptomRepository{s},
		Health:         s,
	}
}

// PingContext always succeeds.
func (s *Store) PingContext(context.Context) error {
	return nil
}

func duplicate(constraint string) error {
	return &repository.DuplicateError{Constraint: constraint}
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
}

func cloneStrings(in pq.StringArray) pq.StringArray {
	if in == nil {
		return nil
	}
	return append(pq.StringArray{}, in...)
}

type userRepository struct{ s *Store }

func (r *userRepository) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return duplicate("users_email_key")
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *userRepository) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("user")
	}
	cp := *u
	return &cp, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("user")
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

type patientRepository struct{ s *Store }

func clonePatient(p *model.Patient) *model.Patient {
	cp := *p
	cp.Allergies = cloneStrings(p.Allergies)
	cp.MedicalConditions = cloneStrings(p.MedicalConditions)
	return &cp
}

func (r *patientRepository) Create(_ context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.patients {
		if p.UserID == patient.UserID {
			return duplicate(repository.ConstraintPatientUserID)
		}
		if p.GuardianCode == patient.GuardianCode {
			return duplicate(repository.ConstraintPatientGuardianCode)
		}
	}
	r.s.patients[patient.ID] = clonePatient(patient)
	return nil
}

func (r *patientRepository) find(match func(*model.Patient) bool) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.patients {
		if match(p) {
			return clonePatient(p), nil
		}
	}
	return nil, notFound("patient")
}

func (r *patientRepository) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	return r.find(func(p *model.Patient) bool { return p.ID == id })
}

func (r *patientRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Patient, error) {
	return r.find(func(p *model.Patient) bool { return p.UserID == userID })
}

func (r *patientRepository) GetByGuardianCode(_ context.Context, code string) (*model.Patient, error) {
	return r.find(func(p *model.Patient) bool { return p.GuardianCode == code })
}

func (r *patientRepository) GuardianCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByGuardianCode(ctx, code)
	return err == nil, nil
}

func (r *patientRepository) Update(_ context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.patients[patient.ID]
	if !ok {
		return notFound("patient")
	}
	existing.Name = patient.Name
	existing.Age = patient.Age
	existing.Gender = patient.Gender
	existing.Allergies = cloneStrings(patient.Allergies)
	existing.MedicalConditions = cloneStrings(patient.MedicalConditions)
	return nil
}

func (r *patientRepository) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	patients := []*model.Patient{}
	for _, id := range ids {
		if p, ok := r.s.patients[id]; ok {
			patients = append(patients, clonePatient(p))
		}
	}
	sort.SliceStable(patients, func(i, j int) bool { return patients[i].Name < patients[j].Name })
	return patients, nil
}

type guardianRepository struct{ s *Store }

func (r *guardianRepository) Create(_ context.Context, guardian *model.Guardian) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.guardians {
		if g.UserID == guardian.UserID {
			return duplicate("guardians_user_id_key")
		}
	}
	cp := *guardian
	r.s.guardians[guardian.ID] = &cp
	return nil
}

func (r *guardianRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Guardian, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, g := range r.s.guardians {
		if g.UserID == userID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, notFound("guardian")
}

func (r *guardianRepository) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Guardian, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	guardians := []*model.Guardian{}
	for _, id := range ids {
		if g, ok := r.s.guardians[id]; ok {
			cp := *g
			guardians = append(guardians, &cp)
		}
	}
	sort.SliceStable(guardians, func(i, j int) bool { return guardians[i].Name < guardians[j].Name })
	return guardians, nil
}

type guardianLinkRepository struct{ s *Store }

func (r *guardianLinkRepository) Create(_ context.Context, link *model.GuardianLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.links {
		if l.PatientID == link.PatientID && l.GuardianID == link.GuardianID {
			return duplicate("guardian_links_pair_key")
		}
	}
	cp := *link
	r.s.links[link.ID] = &cp
	return nil
}

func (r *guardianLinkRepository) Exists(_ context.Context, patientID, guardianID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.links {
		if l.PatientID == patientID && l.GuardianID == guardianID {
			return true, nil
		}
	}
	return false, nil
}

func (r *guardianLinkRepository) listActive(match func(*model.GuardianLink) bool) []*model.GuardianLink {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	links := []*model.GuardianLink{}
	for _, l := range r.s.links {
		if l.IsActive && match(l) {
			cp := *l
			links = append(links, &cp)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].LinkedAt.Before(links[j].LinkedAt) })
	return links
}

func (r *guardianLinkRepository) ListActiveByPatient(_ context.Context, patientID uuid.UUID) ([]*model.GuardianLink, error) {
	return r.listActive(func(l *model.GuardianLink) bool { return l.PatientID == patientID }), nil
}

func (r *guardianLinkRepository) ListActiveByGuardian(_ context.Context, guardianID uuid.UUID) ([]*model.GuardianLink, error) {
	return r.listActive(func(l *model.GuardianLink) bool { return l.GuardianID == guardianID }), nil
}
