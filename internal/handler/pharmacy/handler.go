package pharmacy

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/handler"
	"github.com/mediscan/mediscan-api/internal/middleware"
	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/service/pharmacy"
	"github.com/mediscan/mediscan-api/pkg/httputil"
)

// PharmacyResolver finds the pharmacy profile owned by a user.
type PharmacyResolver interface {
	GetPharmacyByUserID(ctx context.Context, userID uuid.UUID) (*model.Pharmacy, error)
}

type Handler struct {
	pharmacies pharmacy.PharmacyService
	owners     PharmacyResolver
}

func NewHandler(pharmacies pharmacy.PharmacyService, owners PharmacyResolver) *Handler {
	return &Handler{pharmacies: pharmacies, owners: owners}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	pharmacies := r.Group("/pharmacies")
	{
		pharmacies.GET("/search", h.Search)
		pharmacies.GET("/:id", h.Get)
		pharmacies.POST("/inventory", middleware.RequireRole(string(model.RolePharmacy)), h.UpsertInventory)
	}
}

func (h *Handler) UpsertInventory(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}
	var req model.InventoryRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	owned, err := h.owners.GetPharmacyByUserID(ctx, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	item, err := h.pharmacies.AddOrUpdateInventoryItem(ctx, owned.ID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, item)
}

// Search lists pharmacies stocking a medication, matched by substring.
func (h *Handler) Search(c *gin.Context) {
	results, err := h.pharmacies.SearchPharmaciesByMedication(c.Request.Context(), c.Query("medication"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, results)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.pharmacies.GetPharmacy(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}
