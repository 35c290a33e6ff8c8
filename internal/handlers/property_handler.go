package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estate/internal/middleware"
	"github.com/stwalsh4118/estate/internal/models"
	"github.com/stwalsh4118/estate/internal/services"
)

// PropertyHandler handles property HTTP requests.
type PropertyHandler struct {
	service services.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// CreatePropertyRequest is the body of POST /api/v1/properties.
// Price and area rules are enforced by the domain and answered with 422.
type CreatePropertyRequest struct {
	DateAvailability  *string  `json:"dateAvailability" binding:"omitempty,datetime=2006-01-02"`
	GardenOrientation *string  `json:"gardenOrientation" binding:"omitempty,oneof=north south east west"`
	GardenArea        *float64 `json:"gardenArea"`
	Bedrooms          *int     `json:"bedrooms" binding:"omitempty,gte=0"`
	Active            *bool    `json:"active"`
	OwnerID           *int64   `json:"ownerId" binding:"omitempty,gt=0"`
	PropertyTypeID    *int64   `json:"propertyTypeId" binding:"omitempty,gt=0"`
	SalespersonID     *int64   `json:"salespersonId" binding:"omitempty,gt=0"`
	Name              string   `json:"name" binding:"required"`
	Description       string   `json:"description"`
	Postcode          string   `json:"postcode"`
	TagIDs            []int64  `json:"tagIds" binding:"omitempty,dive,gt=0"`
	ExpectedPrice     float64  `json:"expectedPrice"`
	Facades           int      `json:"facades" binding:"gte=0"`
	LivingArea        int      `json:"livingArea" binding:"gte=0"`
	Garage            bool     `json:"garage"`
	Garden            bool     `json:"garden"`
}

// UpdatePropertyRequest is the body of PATCH /api/v1/properties/:id.
// Omitted fields are left untouched.
type UpdatePropertyRequest struct {
	Name              *string  `json:"name" binding:"omitempty,min=1"`
	Description       *string  `json:"description"`
	Postcode          *string  `json:"postcode"`
	ExpectedPrice     *float64 `json:"expectedPrice"`
	DateAvailability  *string  `json:"dateAvailability" binding:"omitempty,datetime=2006-01-02"`
	Bedrooms          *int     `json:"bedrooms" binding:"omitempty,gte=0"`
	Facades           *int     `json:"facades" binding:"omitempty,gte=0"`
	LivingArea        *int     `json:"livingArea" binding:"omitempty,gte=0"`
	Garage            *bool    `json:"garage"`
	Garden            *bool    `json:"garden"`
	GardenArea        *float64 `json:"gardenArea"`
	GardenOrientation *string  `json:"gardenOrientation" binding:"omitempty,oneof=north south east west"`
	Active            *bool    `json:"active"`
	OwnerID           *int64   `json:"ownerId" binding:"omitempty,gt=0"`
	PropertyTypeID    *int64   `json:"propertyTypeId" binding:"omitempty,gt=0"`
	ClearPropertyType bool     `json:"clearPropertyType"`
	SalespersonID     *int64   `json:"salespersonId" binding:"omitempty,gt=0"`
	TagIDs            *[]int64 `json:"tagIds" binding:"omitempty,dive,gt=0"`
}

// ListPropertiesQuery holds the query parameters of GET /api/v1/properties.
type ListPropertiesQuery struct {
	Active *bool    `form:"active"`
	States []string `form:"state" binding:"omitempty,dive,oneof=new offer_received offer_accepted sold cancelled"`
	Limit  int      `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int      `form:"offset" binding:"omitempty,min=0"`
}

// PropertyResponse wraps a single property.
type PropertyResponse struct {
	Property *models.Property `json:"property"`
}

// PropertyListResponse wraps a property listing.
type PropertyListResponse struct {
	Properties []models.Property `json:"properties"`
	Count      int               `json:"count"`
}

func orientation(s *string) *models.Orientation {
	if s == nil {
		return nil
	}
	o := models.Orientation(*s)
	return &o
}

func propertyList(props []models.Property) PropertyListResponse {
	if props == nil {
		props = []models.Property{}
	}
	return PropertyListResponse{Properties: props, Count: len(props)}
}

// Create handles POST /api/v1/properties.
func (h *PropertyHandler) Create(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid property payload")
		return
	}

	p, err := h.service.Create(c.Request.Context(), services.CreatePropertyInput{
		Name:              req.Name,
		Description:       req.Description,
		Postcode:          req.Postcode,
		ExpectedPrice:     req.ExpectedPrice,
		DateAvailability:  parseDate(req.DateAvailability),
		Bedrooms:          req.Bedrooms,
		Facades:           req.Facades,
		LivingArea:        req.LivingArea,
		Garage:            req.Garage,
		Garden:            req.Garden,
		GardenArea:        req.GardenArea,
		GardenOrientation: orientation(req.GardenOrientation),
		Active:            req.Active,
		OwnerID:           req.OwnerID,
		PropertyTypeID:    req.PropertyTypeID,
		SalespersonID:     req.SalespersonID,
		TagIDs:            req.TagIDs,
	})
	if err != nil {
		serviceFailed(c, err, "Failed to create property")
		return
	}

	c.JSON(http.StatusCreated, PropertyResponse{Property: p})
}

// Get handles GET /api/v1/properties/:id.
// The property is returned with its offers and best offer.
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		serviceFailed(c, err, "Failed to query property")
		return
	}

	c.JSON(http.StatusOK, PropertyResponse{Property: p})
}

// List handles GET /api/v1/properties.
func (h *PropertyHandler) List(c *gin.Context) {
	var q ListPropertiesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err, "Invalid query parameters")
		return
	}

	in := services.ListPropertiesInput{Active: q.Active, Limit: q.Limit, Offset: q.Offset}
	for _, s := range q.States {
		in.States = append(in.States, models.PropertyState(s))
	}

	props, err := h.service.List(c.Request.Context(), in)
	if err != nil {
		serviceFailed(c, err, "Failed to list properties")
		return
	}

	c.JSON(http.StatusOK, propertyList(props))
}

// ListBySalesperson handles GET /api/v1/salespeople/:id/properties.
// Only properties still open for offers are listed.
func (h *PropertyHandler) ListBySalesperson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	props, err := h.service.ListBySalesperson(c.Request.Context(), id)
	if err != nil {
		serviceFailed(c, err, "Failed to list properties")
		return
	}

	c.JSON(http.StatusOK, propertyList(props))
}

// Update handles PATCH /api/v1/properties/:id.
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid property payload")
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, services.PropertyPatch{
		Name:              req.Name,
		Description:       req.Description,
		Postcode:          req.Postcode,
		ExpectedPrice:     req.ExpectedPrice,
		DateAvailability:  parseDate(req.DateAvailability),
		Bedrooms:          req.Bedrooms,
		Facades:           req.Facades,
		LivingArea:        req.LivingArea,
		Garage:            req.Garage,
		Garden:            req.Garden,
		GardenArea:        req.GardenArea,
		GardenOrientation: orientation(req.GardenOrientation),
		Active:            req.Active,
		OwnerID:           req.OwnerID,
		PropertyTypeID:    req.PropertyTypeID,
		ClearPropertyType: req.ClearPropertyType,
		SalespersonID:     req.SalespersonID,
		TagIDs:            req.TagIDs,
	})
	if err != nil {
		serviceFailed(c, err, "Failed to update property")
		return
	}

	c.JSON(http.StatusOK, PropertyResponse{Property: p})
}

// Delete handles DELETE /api/v1/properties/:id. Offers are removed with it.
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		serviceFailed(c, err, "Failed to delete property")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Property removed", map[string]interface{}{"property_id": id})
	}
	c.Status(http.StatusNoContent)
}

// Cancel handles POST /api/v1/properties/:id/cancel.
func (h *PropertyHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel, "Failed to cancel property")
}

// Sell handles POST /api/v1/properties/:id/sold.
func (h *PropertyHandler) Sell(c *gin.Context) {
	h.transition(c, h.service.Sell, "Failed to sell property")
}

func (h *PropertyHandler) transition(c *gin.Context, action func(ctx context.Context, id int64) (*models.Property, error), message string) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := action(c.Request.Context(), id)
	if err != nil {
		serviceFailed(c, err, message)
		return
	}

	c.JSON(http.StatusOK, PropertyResponse{Property: p})
}
