package handler

import (
	"errors"
	"net/http"

	"github.com/pavelplus/vetis-tools/internal/apierror"
	"github.com/pavelplus/vetis-tools/internal/dto"
	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockHandler serves the mirrored ledger. Everything except the head-record
// comment is read-only: versions are written by the sync workflows.
type StockHandler struct {
	stock repository.StockRepository
}

func NewStockHandler(stock repository.StockRepository) *StockHandler {
	return &StockHandler{stock: stock}
}

// List handles GET /v1/stock-entries.
// Filters: enterprise_id, status, last (default true), active, q, page, limit.
func (h *StockHandler) List(c *gin.Context) {
	filter := repository.StockEntryFilter{
		EnterpriseID: uint(queryInt(c, "enterprise_id", 0)),
		Status:       queryInt(c, "status", 0),
		OnlyLast:     c.DefaultQuery("last", "true") == "true",
		OnlyActive:   c.Query("active") == "true",
		Query:        c.Query("q"),
		Page:         queryInt(c, "page", 1),
		Limit:        queryInt(c, "limit", 50),
	}
	entries, total, err := h.stock.ListEntries(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	items := make([]dto.StockEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, stockEntryToResponse(&entries[i]))
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.StockEntryResponse]{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// Get handles GET /v1/stock-entries/:id.
func (h *StockHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entry, err := h.stock.FindEntryByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, apierror.New("stock entry not found"))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	resp := dto.StockEntryDetailResponse{
		StockEntryResponse: stockEntryToResponse(entry),
		IsPerishable:       entry.IsPerishable,
		DateCreated:        entry.DateCreated,
		Packages:           make([]dto.PackageResponse, 0, len(entry.Packages)),
		VetDocuments:       make([]string, 0, len(entry.VetDocRefs)),
	}
	if entry.PreviousUUID != nil {
		resp.PreviousUUID = entry.PreviousUUID.String()
	}
	if entry.NextUUID != nil {
		resp.NextUUID = entry.NextUUID.String()
	}
	if entry.OriginCountry != nil {
		resp.OriginCountry = *entry.OriginCountry
	}
	if entry.ProducerName != nil {
		resp.ProducerName = *entry.ProducerName
	}
	for i := range entry.Packages {
		pkg := &entry.Packages[i]
		pr := dto.PackageResponse{
			Level:        pkg.Level,
			Quantity:     pkg.Quantity,
			ProductMarks: pkg.ProductMarks,
		}
		if pkg.PackingType != nil {
			pr.PackingType = pkg.PackingType.Name
		}
		resp.Packages = append(resp.Packages, pr)
	}
	for i := range entry.VetDocRefs {
		resp.VetDocuments = append(resp.VetDocuments, entry.VetDocRefs[i].UUID.String())
	}
	c.JSON(http.StatusOK, resp)
}

// GetMain handles GET /v1/stock-entries/mains/:guid.
func (h *StockHandler) GetMain(c *gin.Context) {
	guid, err := uuid.Parse(c.Param("guid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid guid"))
		return
	}
	main, err := h.stock.FindMainByGUID(c.Request.Context(), guid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, apierror.New("ledger record not found"))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}
	versions, err := h.stock.ListVersions(c.Request.Context(), guid)
	if err != nil {
		c.Error(err)
		return
	}

	resp := dto.StockEntryMainResponse{
		GUID:      main.GUID.String(),
		Populated: main.Populated,
		Comment:   main.Comment,
		Versions:  make([]dto.StockEntryResponse, 0, len(versions)),
	}
	if main.OriginBusinessEntity != nil {
		resp.OriginBusinessEntity = main.OriginBusinessEntity.DisplayName()
	}
	if main.OriginEnterprise != nil {
		resp.OriginEnterprise = main.OriginEnterprise.Name
	}
	for i := range versions {
		resp.Versions = append(resp.Versions, stockEntryToResponse(&versions[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateComment handles PUT /v1/stock-entries/mains/:guid/comment — the one
// writable field on the mirror.
func (h *StockHandler) UpdateComment(c *gin.Context) {
	guid, err := uuid.Parse(c.Param("guid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid guid"))
		return
	}
	var req dto.UpdateCommentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	main, err := h.stock.FindMainByGUID(c.Request.Context(), guid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, apierror.New("ledger record not found"))
		return
	}
	if err != nil {
		c.Error(err)
		return
	}
	main.Comment = req.Comment
	if err := h.stock.SaveMain(c.Request.Context(), main); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guid": main.GUID.String(), "comment": main.Comment})
}

func stockEntryToResponse(e *model.StockEntry) dto.StockEntryResponse {
	resp := dto.StockEntryResponse{
		ID:              e.ID,
		GUID:            e.GUID.String(),
		UUID:            e.UUID.String(),
		Status:          e.Status,
		StatusName:      model.StockStatusNames[e.Status],
		IsActive:        e.IsActive,
		IsLast:          e.IsLast,
		EntryNumber:     e.EntryNumber,
		ProductItemName: e.ProductItemName,
		Volume:          e.Volume,
		DateProduced:    e.DateProduced1,
		DateExpiry:      e.DateExpiry1,
		DateUpdated:     e.DateUpdated,
	}
	if e.Unit != nil {
		resp.Unit = e.Unit.Name
	}
	if e.DateProduced2 != "" {
		resp.DateProduced += " / " + e.DateProduced2
	}
	if e.DateExpiry2 != "" {
		resp.DateExpiry += " / " + e.DateExpiry2
	}
	return resp
}
