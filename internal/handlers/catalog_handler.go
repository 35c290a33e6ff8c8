package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estate/internal/models"
	"github.com/stwalsh4118/estate/internal/services"
)

// CatalogHandler handles property type and tag HTTP requests.
type CatalogHandler struct {
	service services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler instance.
func NewCatalogHandler(service services.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// TypeRequest is the body of type create and update requests.
type TypeRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Sequence *int    `json:"sequence"`
}

// TagRequest is the body of tag create and update requests.
type TagRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=255"`
	Color *int    `json:"color" binding:"omitempty,gte=0"`
}

// TypeResponse wraps a single property type.
type TypeResponse struct {
	Type *models.PropertyType `json:"type"`
}

// TypeListResponse wraps the property type listing.
type TypeListResponse struct {
	Types []models.PropertyType `json:"types"`
	Count int                   `json:"count"`
}

// TagResponse wraps a single tag.
type TagResponse struct {
	Tag *models.PropertyTag `json:"tag"`
}

// TagListResponse wraps the tag listing.
type TagListResponse struct {
	Tags  []models.PropertyTag `json:"tags"`
	Count int                  `json:"count"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ListTypes handles GET /api/v1/property-types.
func (h *CatalogHandler) ListTypes(c *gin.Context) {
	types, err := h.service.ListTypes(c.Request.Context())
	if err != nil {
		serviceFailed(c, err, "Failed to list property types")
		return
	}
	if types == nil {
		types = []models.PropertyType{}
	}

	c.JSON(http.StatusOK, TypeListResponse{Types: types, Count: len(types)})
}

// CreateType handles POST /api/v1/property-types.
func (h *CatalogHandler) CreateType(c *gin.Context) {
	var req TypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid property type payload")
		return
	}

	t, err := h.service.CreateType(c.Request.Context(), deref(req.Name), deref(req.Sequence))
	if err != nil {
		serviceFailed(c, err, "Failed to create property type")
		return
	}

	c.JSON(http.StatusCreated, TypeResponse{Type: t})
}

// GetType handles GET /api/v1/property-types/:id.
func (h *CatalogHandler) GetType(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetType(c.Request.Context(), id)
	if err != nil {
		serviceFailed(c, err, "Failed to query property type")
		return
	}

	c.JSON(http.StatusOK, TypeResponse{Type: t})
}

// UpdateType handles PATCH /api/v1/property-types/:id.
func (h *CatalogHandler) UpdateType(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req TypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid property type payload")
		return
	}

	t, err := h.service.UpdateType(c.Request.Context(), id, services.TypePatch{Name: req.Name, Sequence: req.Sequence})
	if err != nil {
		serviceFailed(c, err, "Failed to update property type")
		return
	}

	c.JSON(http.StatusOK, TypeResponse{Type: t})
}

// DeleteType handles DELETE /api/v1/property-types/:id.
// Properties and offers of the type keep existing without a type.
func (h *CatalogHandler) DeleteType(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteType(c.Request.Context(), id); err != nil {
		serviceFailed(c, err, "Failed to delete property type")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListTags handles GET /api/v1/property-tags.
func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.service.ListTags(c.Request.Context())
	if err != nil {
		serviceFailed(c, err, "Failed to list tags")
		return
	}
	if tags == nil {
		tags = []models.PropertyTag{}
	}

	c.JSON(http.StatusOK, TagListResponse{Tags: tags, Count: len(tags)})
}

// CreateTag handles POST /api/v1/property-tags.
func (h *CatalogHandler) CreateTag(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid tag payload")
		return
	}

	t, err := h.service.CreateTag(c.Request.Context(), deref(req.Name), deref(req.Color))
	if err != nil {
		serviceFailed(c, err, "Failed to create tag")
		return
	}

	c.JSON(http.StatusCreated, TagResponse{Tag: t})
}

// GetTag handles GET /api/v1/property-tags/:id.
func (h *CatalogHandler) GetTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetTag(c.Request.Context(), id)
	if err != nil {
		serviceFailed(c, err, "Failed to query tag")
		return
	}

	c.JSON(http.StatusOK, TagResponse{Tag: t})
}

// UpdateTag handles PATCH /api/v1/property-tags/:id.
func (h *CatalogHandler) UpdateTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid tag payload")
		return
	}

	t, err := h.service.UpdateTag(c.Request.Context(), id, services.TagPatch{Name: req.Name, Color: req.Color})
	if err != nil {
		serviceFailed(c, err, "Failed to update tag")
		return
	}

	c.JSON(http.StatusOK, TagResponse{Tag: t})
}

// DeleteTag handles DELETE /api/v1/property-tags/:id.
func (h *CatalogHandler) DeleteTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteTag(c.Request.Context(), id); err != nil {
		serviceFailed(c, err, "Failed to delete tag")
		return
	}

	c.Status(http.StatusNoContent)
}
