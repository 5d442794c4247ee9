// Package handler holds helpers shared by the HTTP handlers.
package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/middleware"
	"github.com/mediscan/mediscan-api/internal/model"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
	"github.com/mediscan/mediscan-api/pkg/httputil"
	"github.com/mediscan/mediscan-api/pkg/validator"
)

// PatientResolver finds the patient profile owned by a user.
type PatientResolver interface {
	GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
}

// BindJSON decodes the request body into dst, answering 400 on failure.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if field, tag, ok := validator.FirstFailure(err); ok {
			httputil.RespondBadRequest(c, fmt.Sprintf("%s failed %s", field, tag))
			return false
		}
		httputil.RespondBadRequest(c, "invalid request body")
		return false
	}
	return true
}

// CurrentUserID returns the authenticated caller.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Unauthorized(err))
		return uuid.Nil, false
	}
	return id, true
}

func CurrentRole(c *gin.Context) model.Role {
	return model.Role(c.GetString(middleware.ContextUserRole))
}

// CurrentPatient resolves the caller's patient profile.
func CurrentPatient(c *gin.Context, patients PatientResolver) (*model.Patient, bool) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return nil, false
	}
	patient, err := patients.GetPatientByUserID(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return nil, false
	}
	return patient, true
}

// ParseID reads a UUID path parameter.
func ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation(apperrors.ReasonInvalidID, "invalid "+param))
		return uuid.Nil, false
	}
	return id, true
}

// QueryDays reads the days query parameter, defaulting to def.
func QueryDays(c *gin.Context, def int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return def, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation(apperrors.ReasonInvalidRange, "days must be an integer"))
		return 0, false
	}
	return days, true
}
