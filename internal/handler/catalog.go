package handler

import (
	"net/http"

	"github.com/pavelplus/vetis-tools/internal/dto"
	"github.com/pavelplus/vetis-tools/internal/model"
	"github.com/pavelplus/vetis-tools/internal/repository"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the mirrored reference catalog.
type CatalogHandler struct {
	catalog repository.CatalogRepository
}

func NewCatalogHandler(catalog repository.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts handles GET /v1/products.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	ps, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	out := make([]dto.ProductResponse, 0, len(ps))
	for i := range ps {
		out = append(out, dto.ProductResponse{
			ID:          ps[i].ID,
			GUID:        ps[i].GUID.String(),
			Name:        ps[i].Name,
			Code:        ps[i].Code,
			ProductType: ps[i].ProductType,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// ListSubProducts handles GET /v1/sub-products.
func (h *CatalogHandler) ListSubProducts(c *gin.Context) {
	sps, err := h.catalog.ListSubProducts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	out := make([]dto.ProductResponse, 0, len(sps))
	for i := range sps {
		out = append(out, dto.ProductResponse{
			ID:   sps[i].ID,
			GUID: sps[i].GUID.String(),
			Name: sps[i].Name,
			Code: sps[i].Code,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// ListProductItems handles GET /v1/product-items.
// Filters: producer_id, q (name substring), active (true/false/all).
func (h *CatalogHandler) ListProductItems(c *gin.Context) {
	filter := repository.ProductItemFilter{
		ProducerID: uint(queryInt(c, "producer_id", 0)),
		Query:      c.Query("q"),
		Active:     c.Query("active"),
	}
	items, err := h.catalog.ListProductItems(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	out := make([]dto.ProductItemResponse, 0, len(items))
	for i := range items {
		out = append(out, productItemToResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func productItemToResponse(item *model.ProductItem) dto.ProductItemResponse {
	resp := dto.ProductItemResponse{
		ID:          item.ID,
		GUID:        item.GUID.String(),
		Name:        item.Name,
		GTIN:        item.GTIN,
		ProductType: item.ProductType,
		IsActive:    item.IsActive,
	}
	if item.Product != nil {
		resp.Product = item.Product.Name
	}
	if item.SubProduct != nil {
		resp.SubProduct = item.SubProduct.Name
	}
	if item.Producer != nil {
		resp.Producer = item.Producer.DisplayName()
	}
	return resp
}
