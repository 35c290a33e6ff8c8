package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/estate/internal/errors"
)

func TestCatalogHandler_Types(t *testing.T) {
	api := setupAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/property-types", map[string]interface{}{"name": "House", "sequence": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	house := decode[TypeResponse](t, w).Type

	w = api.do(t, http.MethodPost, "/api/v1/property-types", map[string]interface{}{"name": "Apartment", "sequence": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/property-types", map[string]interface{}{"name": "House"})
	detail := assertError(t, w, http.StatusUnprocessableEntity, apierrors.ErrConstraint)
	assert.Equal(t, "The property type name must be unique!", detail.Message)

	w = api.do(t, http.MethodPost, "/api/v1/property-types", map[string]interface{}{})
	assertError(t, w, http.StatusUnprocessableEntity, apierrors.ErrConstraint)

	p := api.createProperty(t, map[string]interface{}{"name": "Villa", "expectedPrice": 100000, "propertyTypeId": house.ID})
	api.createOffer(t, p.ID, 1000, 1)
	api.createOffer(t, p.ID, 2000, 2)

	w = api.do(t, http.MethodGet, "/api/v1/property-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[TypeListResponse](t, w)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "Apartment", list.Types[0].Name)
	assert.Equal(t, 2, list.Types[1].OfferCount)

	w = api.do(t, http.MethodPatch, pathf("/api/v1/property-types/%d", house.ID), map[string]interface{}{"sequence": 0})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[TypeResponse](t, w).Type
	assert.Equal(t, 0, updated.Sequence)
	assert.Equal(t, 2, updated.OfferCount)

	w = api.do(t, http.MethodDelete, pathf("/api/v1/property-types/%d", house.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodGet, pathf("/api/v1/property-types/%d", house.ID), nil)
	assertError(t, w, http.StatusNotFound, apierrors.ErrNotFound)

	w = api.do(t, http.MethodGet, pathf("/api/v1/properties/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[PropertyResponse](t, w).Property.PropertyTypeID)
}

func TestCatalogHandler_Tags(t *testing.T) {
	api := setupAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/property-tags", map[string]interface{}{"name": "renovated", "color": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	renovated := decode[TagResponse](t, w).Tag

	w = api.do(t, http.MethodPost, "/api/v1/property-tags", map[string]interface{}{"name": "cozy"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/property-tags", map[string]interface{}{"name": "cozy"})
	detail := assertError(t, w, http.StatusUnprocessableEntity, apierrors.ErrConstraint)
	assert.Equal(t, "The tag name must be unique!", detail.Message)

	w = api.do(t, http.MethodPost, "/api/v1/property-tags", map[string]interface{}{"name": "bright", "color": -1})
	assertError(t, w, http.StatusBadRequest, apierrors.ErrValidation)

	p := api.createProperty(t, map[string]interface{}{"name": "Villa", "expectedPrice": 1, "tagIds": []int64{renovated.ID}})
	assert.Equal(t, []int64{renovated.ID}, p.TagIDs)

	w = api.do(t, http.MethodGet, "/api/v1/property-tags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[TagListResponse](t, w)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "cozy", list.Tags[0].Name)

	w = api.do(t, http.MethodPatch, pathf("/api/v1/property-tags/%d", renovated.ID), map[string]interface{}{"color": 9})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9, decode[TagResponse](t, w).Tag.Color)

	w = api.do(t, http.MethodDelete, pathf("/api/v1/property-tags/%d", renovated.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, http.MethodGet, pathf("/api/v1/properties/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[PropertyResponse](t, w).Property.TagIDs)

	w = api.do(t, http.MethodGet, pathf("/api/v1/property-tags/%d", renovated.ID), nil)
	assertError(t, w, http.StatusNotFound, apierrors.ErrNotFound)
}

func TestHandlers_RequireAuth(t *testing.T) {
	api := setupAPI(t)
	api.token = "not-a-jwt"

	w := api.do(t, http.MethodGet, "/api/v1/properties", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
