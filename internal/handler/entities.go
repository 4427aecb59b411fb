package handler

import (
	"errors"
	"net/http"

	"github.com/pavelplus/vetis-tools/internal/apierror"
	"github.com/pavelplus/vetis-tools/internal/dto"
	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EntitiesHandler serves the mirrored organizations and their sites.
// Read-only: all rows are written by the sync workflows.
type EntitiesHandler struct {
	bes  repository.BusinessEntityRepository
	ents repository.EnterpriseRepository
}

func NewEntitiesHandler(bes repository.BusinessEntityRepository, ents repository.EnterpriseRepository) *EntitiesHandler {
	return &EntitiesHandler{bes: bes, ents: ents}
}

// List handles GET /v1/business-entities.
func (h *EntitiesHandler) List(c *gin.Context) {
	bes, err := h.bes.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	out := make([]dto.BusinessEntityResponse, 0, len(bes))
	for i := range bes {
		out = append(out, businessEntityToResponse(&bes[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// Get handles GET /v1/business-entities/:id.
func (h *EntitiesHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	be, err := h.bes.FindByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, apierror.New("business entity not found"))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, businessEntityToResponse(be))
}

// ListEnterprises handles GET /v1/business-entities/:id/enterprises.
func (h *EntitiesHandler) ListEnterprises(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ents, err := h.ents.ListByBusinessEntity(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	out := make([]dto.EnterpriseResponse, 0, len(ents))
	for i := range ents {
		out = append(out, enterpriseToResponse(&ents[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func businessEntityToResponse(be *model.BusinessEntity) dto.BusinessEntityResponse {
	resp := dto.BusinessEntityResponse{
		ID:        be.ID,
		GUID:      be.GUID.String(),
		Name:      be.Name,
		INN:       be.INN,
		Address:   be.Address,
		IsActive:  be.IsActive,
		HasAccess: be.CredentialsID != nil,
	}
	if be.ShortName != nil {
		resp.ShortName = *be.ShortName
	}
	return resp
}

func enterpriseToResponse(ent *model.Enterprise) dto.EnterpriseResponse {
	return dto.EnterpriseResponse{
		ID:            ent.ID,
		GUID:          ent.GUID.String(),
		Name:          ent.Name,
		Address:       ent.Address,
		NumberList:    ent.NumberList,
		IsActive:      ent.IsActive,
		IsAllowed:     ent.IsAllowed,
		StockSyncedAt: ent.StockSyncedAt,
	}
}
