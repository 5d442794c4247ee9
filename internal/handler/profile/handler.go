package profile

import (
	"github.com/gin-gonic/gin"

	"github.com/mediscan/mediscan-api/internal/handler"
	"github.com/mediscan/mediscan-api/internal/middleware"
	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/service/account"
	"github.com/mediscan/mediscan-api/pkg/httputil"
)

type Handler struct {
	accounts account.AccountService
}

func NewHandler(accounts account.AccountService) *Handler {
	return &Handler{accounts: accounts}
}

// RegisterRoutes expects r to be behind authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	profiles := r.Group("/profiles")
	{
		profiles.GET("/me", h.Me)
		profiles.POST("/patient", middleware.RequireRole(string(model.RolePatient)), h.CreatePatient)
		profiles.PATCH("/patient", middleware.RequireRole(string(model.RolePatient)), h.UpdatePatient)
		profiles.POST("/guardian", middleware.RequireRole(string(model.RoleGuardian)), h.CreateGuardian)
		profiles.POST("/pharmacy", middleware.RequireRole(string(model.RolePharmacy)), h.CreatePharmacy)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}
	var req model.CreatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.accounts.CreatePatientProfile(ctx, userID, req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	patient, err := h.accounts.GetPatientByUserID(ctx, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, patient)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	patient, ok := handler.CurrentPatient(c, h.accounts)
	if !ok {
		return
	}
	var patch model.PatientPatch
	if !handler.BindJSON(c, &patch) {
		return
	}

	updated, err := h.accounts.UpdatePatientProfile(c.Request.Context(), patient.ID, patch)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) CreateGuardian(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}
	var req model.CreateGuardianRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.accounts.CreateGuardianProfile(ctx, userID, req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	guardian, err := h.accounts.GetGuardianByUserID(ctx, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, guardian)
}

func (h *Handler) CreatePharmacy(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}
	var req model.CreatePharmacyRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.accounts.CreatePharmacyProfile(ctx, userID, req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	pharmacy, err := h.accounts.GetPharmacyByUserID(ctx, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, pharmacy)
}

// Me returns the caller's account and, once created, the profile for its role.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := h.accounts.GetUser(ctx, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var profile interface{}
	switch user.Role {
	case model.RolePatient:
		profile, err = h.accounts.GetPatientByUserID(ctx, userID)
	case model.RoleGuardian:
		profile, err = h.accounts.GetGuardianByUserID(ctx, userID)
	case model.RolePharmacy:
		profile, err = h.accounts.GetPharmacyByUserID(ctx, userID)
	}
	if err != nil {
		// no profile yet
		profile = nil
	}

	httputil.RespondWithSuccess(c, gin.H{
		"user":    user,
		"profile": profile,
	})
}
