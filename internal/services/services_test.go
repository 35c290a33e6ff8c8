package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/estate/internal/cache"
	"github.com/stwalsh4118/estate/internal/clock"
	"github.com/stwalsh4118/estate/internal/identity"
	"github.com/stwalsh4118/estate/internal/logger"
	"github.com/stwalsh4118/estate/internal/models"
	"github.com/stwalsh4118/estate/internal/repository"
)

var testNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// MockCache is a mock implementation of cache.Cache for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// memCache is a JSON round-tripping cache.Cache kept in a map.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (m *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) Ping(context.Context) error { return nil }

type testEnv struct {
	store      *repository.MemoryStore
	clock      *clock.Fixed
	properties PropertyService
	offers     OfferService
	catalog    CatalogService
}

func newTestEnv(t *testing.T, c cache.Cache) *testEnv {
	t.Helper()
	if c == nil {
		c = cache.Noop{}
	}

	store := repository.NewMemoryStore()
	clk := clock.NewFixed(testNow)
	deps := Deps{
		Store:    store,
		Cache:    c,
		Clock:    clk,
		Log:      logger.Nop(),
		Settings: DefaultSettings(),
	}

	return &testEnv{
		store:      store,
		clock:      clk,
		properties: NewPropertyService(deps),
		offers:     NewOfferService(deps),
		catalog:    NewCatalogService(deps),
	}
}

// asUser returns a context acting as salesperson 7.
func asUser() context.Context {
	return identity.WithUser(context.Background(), 7)
}

func (e *testEnv) property(t *testing.T, expected float64) *models.Property {
	t.Helper()
	p, err := e.properties.Create(asUser(), CreatePropertyInput{Name: "Villa", ExpectedPrice: expected, LivingArea: 100})
	require.NoError(t, err)
	return p
}

func (e *testEnv) offer(t *testing.T, propertyID int64, price float64, partner int64) *models.Offer {
	t.Helper()
	o, err := e.offers.Create(context.Background(), CreateOfferInput{PropertyID: propertyID, PartnerID: partner, Price: price})
	require.NoError(t, err)
	return o
}

func (e *testEnv) reload(t *testing.T, id int64) *models.Property {
	t.Helper()
	p, err := e.properties.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T {
	return &v
}
