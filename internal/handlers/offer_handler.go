package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estate/internal/models"
	"github.com/stwalsh4118/estate/internal/services"
)

// OfferHandler handles offer HTTP requests.
type OfferHandler struct {
	service services.OfferService
}

// NewOfferHandler creates a new OfferHandler instance.
func NewOfferHandler(service services.OfferService) *OfferHandler {
	return &OfferHandler{service: service}
}

// CreateOfferRequest is the body of POST /api/v1/properties/:id/offers.
// A dateDeadline takes precedence over validity.
type CreateOfferRequest struct {
	Validity     *int    `json:"validity" binding:"omitempty,gte=0"`
	DateDeadline *string `json:"dateDeadline" binding:"omitempty,datetime=2006-01-02"`
	PartnerID    int64   `json:"partnerId" binding:"required,gt=0"`
	Price        float64 `json:"price"`
}

// UpdateOfferRequest is the body of PATCH /api/v1/offers/:id.
type UpdateOfferRequest struct {
	Price        *float64 `json:"price"`
	Validity     *int     `json:"validity" binding:"omitempty,gte=0"`
	DateDeadline *string  `json:"dateDeadline" binding:"omitempty,datetime=2006-01-02"`
}

// OfferResponse wraps a single offer.
type OfferResponse struct {
	Offer *models.Offer `json:"offer"`
}

// OfferListResponse wraps the offers of a property.
type OfferListResponse struct {
	Offers []models.Offer `json:"offers"`
	Count  int            `json:"count"`
}

// Create handles POST /api/v1/properties/:id/offers.
func (h *OfferHandler) Create(c *gin.Context) {
	propertyID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid offer payload")
		return
	}

	o, err := h.service.Create(c.Request.Context(), services.CreateOfferInput{
		PropertyID:   propertyID,
		PartnerID:    req.PartnerID,
		Price:        req.Price,
		Validity:     req.Validity,
		DateDeadline: parseDate(req.DateDeadline),
	})
	if err != nil {
		serviceFailed(c, err, "Failed to create offer")
		return
	}

	c.JSON(http.StatusCreated, OfferResponse{Offer: o})
}

// ListForProperty handles GET /api/v1/properties/:id/offers.
// Offers are ordered by price, highest first.
func (h *OfferHandler) ListForProperty(c *gin.Context) {
	propertyID, ok := pathID(c, "id")
	if !ok {
		return
	}

	offers, err := h.service.ListForProperty(c.Request.Context(), propertyID)
	if err != nil {
		serviceFailed(c, err, "Failed to list offers")
		return
	}
	if offers == nil {
		offers = []models.Offer{}
	}

	c.JSON(http.StatusOK, OfferListResponse{Offers: offers, Count: len(offers)})
}

// Get handles GET /api/v1/offers/:id.
func (h *OfferHandler) Get(c *gin.Context) {
	h.respondWith(c, h.service.Get, "Failed to query offer")
}

// Accept handles POST /api/v1/offers/:id/accept.
func (h *OfferHandler) Accept(c *gin.Context) {
	h.respondWith(c, h.service.Accept, "Failed to accept offer")
}

// Refuse handles POST /api/v1/offers/:id/refuse.
func (h *OfferHandler) Refuse(c *gin.Context) {
	h.respondWith(c, h.service.Refuse, "Failed to refuse offer")
}

// Update handles PATCH /api/v1/offers/:id.
func (h *OfferHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid offer payload")
		return
	}

	o, err := h.service.Update(c.Request.Context(), id, services.OfferPatch{
		Price:        req.Price,
		Validity:     req.Validity,
		DateDeadline: parseDate(req.DateDeadline),
	})
	if err != nil {
		serviceFailed(c, err, "Failed to update offer")
		return
	}

	c.JSON(http.StatusOK, OfferResponse{Offer: o})
}

// Delete handles DELETE /api/v1/offers/:id.
func (h *OfferHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		serviceFailed(c, err, "Failed to delete offer")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OfferHandler) respondWith(c *gin.Context, action func(ctx context.Context, id int64) (*models.Offer, error), message string) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	o, err := action(c.Request.Context(), id)
	if err != nil {
		serviceFailed(c, err, message)
		return
	}

	c.JSON(http.StatusOK, OfferResponse{Offer: o})
}
