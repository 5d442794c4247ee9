package model

import (
	"time"

	"github.com/google/uuid"
)

// Role of a user account. Fixed at creation.
type Role string

const (
	RolePatient  Role = "patient"
	RoleGuardian Role = "guardian"
	RolePharmacy Role = "pharmacy"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleGuardian, RolePharmacy:
		return true
	}
	return false
}

// User represents a login account
type User struct {
	Base
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	Name         string `json:"name" db:"name"`
	Phone        string `json:"phone" db:"phone"`
	IsActive     bool   `json:"is_active" db:"is_active"`
}

// AuthResult is returned by a successful credential check.
type AuthResult struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	Email  string    `json:"email"`
}

// CreateUserRequest represents user creation parameters
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      uuid.UUID `json:"user_id"`
	Role        Role      `json:"role"`
}
