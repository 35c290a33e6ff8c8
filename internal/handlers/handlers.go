package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/estate/internal/errors"
	"github.com/stwalsh4118/estate/internal/services"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// RegisterRoutes mounts the estate API on v1.
func RegisterRoutes(v1 *gin.RouterGroup, properties *PropertyHandler, offers *OfferHandler, catalog *CatalogHandler) {
	props := v1.Group("/properties")
	{
		props.GET("", properties.List)
		props.POST("", properties.Create)
		props.GET("/:id", properties.Get)
		props.PATCH("/:id", properties.Update)
		props.DELETE("/:id", properties.Delete)
		props.POST("/:id/cancel", properties.Cancel)
		props.POST("/:id/sold", properties.Sell)
		props.GET("/:id/offers", offers.ListForProperty)
		props.POST("/:id/offers", offers.Create)
	}

	v1.GET("/salespeople/:id/properties", properties.ListBySalesperson)

	offerRoutes := v1.Group("/offers")
	{
		offerRoutes.GET("/:id", offers.Get)
		offerRoutes.PATCH("/:id", offers.Update)
		offerRoutes.DELETE("/:id", offers.Delete)
		offerRoutes.POST("/:id/accept", offers.Accept)
		offerRoutes.POST("/:id/refuse", offers.Refuse)
	}

	types := v1.Group("/property-types")
	{
		types.GET("", catalog.ListTypes)
		types.POST("", catalog.CreateType)
		types.GET("/:id", catalog.GetType)
		types.PATCH("/:id", catalog.UpdateType)
		types.DELETE("/:id", catalog.DeleteType)
	}

	tags := v1.Group("/property-tags")
	{
		tags.GET("", catalog.ListTags)
		tags.POST("", catalog.CreateTag)
		tags.GET("/:id", catalog.GetTag)
		tags.PATCH("/:id", catalog.UpdateTag)
		tags.DELETE("/:id", catalog.DeleteTag)
	}
}

// pathID parses a positive integer path parameter. It writes a 400
// response and returns false when the parameter is invalid.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "Invalid "+name, map[string]interface{}{name: c.Param(name)})
		return 0, false
	}
	return id, true
}

// bindFailed writes the response for a request that could not be bound.
func bindFailed(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, nil)
}

// serviceFailed maps a service error to its HTTP response.
func serviceFailed(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrPropertyNotFound):
		apierrors.NotFound(c, "Property not found")
	case errors.Is(err, services.ErrOfferNotFound):
		apierrors.NotFound(c, "Offer not found")
	case errors.Is(err, services.ErrTypeNotFound):
		apierrors.NotFound(c, "Property type not found")
	case errors.Is(err, services.ErrTagNotFound):
		apierrors.NotFound(c, "Property tag not found")
	default:
		apierrors.FromDomain(c, err, message)
	}
}

// parseDate parses an optional date already checked by the datetime binding.
func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	d, err := time.Parse(DateLayout, *s)
	if err != nil {
		return nil
	}
	return &d
}
