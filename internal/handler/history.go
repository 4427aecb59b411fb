package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/pavelplus/vetis-tools/internal/apierror"
	"github.com/pavelplus/vetis-tools/internal/dto"
	"github.com/pavelplus/vetis-tools/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HistoryHandler serves the registry exchange audit log.
type HistoryHandler struct {
	audit repository.AuditRepository
}

func NewHistoryHandler(audit repository.AuditRepository) *HistoryHandler {
	return &HistoryHandler{audit: audit}
}

// List handles GET /v1/registry/history.
// Filters: action, since, until (RFC 3339), page, limit. Bodies are omitted;
// use the detail endpoint.
func (h *HistoryHandler) List(c *gin.Context) {
	filter := repository.AuditFilter{
		SOAPAction: c.Query("action"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 50),
	}
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid since timestamp"))
			return
		}
		filter.Since = t
	}
	if raw := c.Query("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid until timestamp"))
			return
		}
		filter.Until = t
	}

	rows, total, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]dto.AuditLogResponse, 0, len(rows))
	for i := range rows {
		items = append(items, dto.AuditLogResponse{
			ID:         rows[i].ID,
			CreatedAt:  rows[i].CreatedAt,
			SOAPAction: rows[i].SOAPAction,
			StatusCode: rows[i].StatusCode,
			Comment:    rows[i].Comment,
		})
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.AuditLogResponse]{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// Get handles GET /v1/registry/history/:id, returning the full request and
// response bodies of one exchange.
func (h *HistoryHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, err := h.audit.FindByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, apierror.New("exchange not found"))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.AuditLogResponse{
		ID:           row.ID,
		CreatedAt:    row.CreatedAt,
		SOAPAction:   row.SOAPAction,
		StatusCode:   row.StatusCode,
		Comment:      row.Comment,
		RequestBody:  row.RequestBody,
		ResponseBody: row.ResponseBody,
	})
}
