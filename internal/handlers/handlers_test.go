package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/estate/internal/auth"
	"github.com/stwalsh4118/estate/internal/clock"
	apierrors "github.com/stwalsh4118/estate/internal/errors"
	"github.com/stwalsh4118/estate/internal/logger"
	"github.com/stwalsh4118/estate/internal/middleware"
	"github.com/stwalsh4118/estate/internal/models"
	"github.com/stwalsh4118/estate/internal/repository"
	"github.com/stwalsh4118/estate/internal/services"
)

const testSecret = "handler-test-secret"

// testAPI is the estate API wired to an in-memory store.
type testAPI struct {
	router *gin.Engine
	token  string
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	deps := services.Deps{
		Store:    repository.NewMemoryStore(),
		Clock:    clock.NewFixed(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)),
		Log:      log,
		Settings: services.DefaultSettings(),
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Auth(testSecret, false))

	RegisterRoutes(router.Group("/api/v1"),
		NewPropertyHandler(services.NewPropertyService(deps)),
		NewOfferHandler(services.NewOfferService(deps)),
		NewCatalogHandler(services.NewCatalogService(deps)),
	)

	token, err := auth.GenerateToken(testSecret, 7, "Salesperson", time.Hour)
	require.NoError(t, err)

	return &testAPI{router: router, token: token}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) createProperty(t *testing.T, body map[string]interface{}) *models.Property {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/properties", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[PropertyResponse](t, w).Property
}

func (a *testAPI) createOffer(t *testing.T, propertyID int64, price float64, partner int64) *models.Offer {
	t.Helper()
	w := a.do(t, http.MethodPost, pathf("/api/v1/properties/%d/offers", propertyID), map[string]interface{}{
		"partnerId": partner,
		"price":     price,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[OfferResponse](t, w).Offer
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) apierrors.ErrorDetail {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	resp := decode[apierrors.ErrorResponse](t, w)
	assert.Equal(t, code, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
	return resp.Error
}
