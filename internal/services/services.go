package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/estate/internal/cache"
	"github.com/stwalsh4118/estate/internal/clock"
	"github.com/stwalsh4118/estate/internal/logger"
	"github.com/stwalsh4118/estate/internal/models"
	"github.com/stwalsh4118/estate/internal/repository"
)

// Service-level errors
var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrOfferNotFound    = errors.New("offer not found")
	ErrTypeNotFound     = errors.New("property type not found")
	ErrTagNotFound      = errors.New("property tag not found")
)

const (
	// typeListKey caches the ordered type listing with offer counts.
	typeListKey = "estate:property_types"
	// typeVersionKey holds the token of the current type listing. Every
	// invalidation replaces it, so a listing computed before an invalidation
	// can never be served after it.
	typeVersionKey = "estate:property_types:version"
)

// cachedTypes is the cached type listing tagged with the version it was
// computed under.
type cachedTypes struct {
	Version string                `json:"version"`
	Types   []models.PropertyType `json:"types"`
}

// Settings holds the domain defaults applied by the services.
type Settings struct {
	AvailabilityDays  int
	OfferValidityDays int
	CacheTTL          time.Duration
}

// DefaultSettings returns the stock domain defaults.
func DefaultSettings() Settings {
	return Settings{
		AvailabilityDays:  models.DefaultAvailabilityDays,
		OfferValidityDays: models.DefaultValidityDays,
		CacheTTL:          5 * time.Minute,
	}
}

// Deps bundles what every service needs.
type Deps struct {
	Store    repository.Store
	Cache    cache.Cache
	Clock    clock.Clock
	Log      *logger.Logger
	Settings Settings
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Settings == (Settings{}) {
		d.Settings = DefaultSettings()
	}
	return d
}

// invalidateTypes retires the cached type listing by rotating its version.
// Cache failures are logged and never fail the surrounding operation.
func invalidateTypes(ctx context.Context, c cache.Cache, log *logger.Logger) {
	if err := c.Set(ctx, typeVersionKey, uuid.NewString(), 0); err != nil {
		log.Warn("Failed to invalidate property type cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// typesVersion returns the current type listing version. ok is false when the
// cache cannot be consulted, in which case the listing bypasses the cache.
func typesVersion(ctx context.Context, c cache.Cache, log *logger.Logger) (version string, ok bool) {
	if _, err := c.Get(ctx, typeVersionKey, &version); err != nil {
		log.Warn("Property type cache read failed", map[string]interface{}{"error": err.Error()})
		return "", false
	}
	return version, true
}

// lockProperty loads a property under its row lock inside tx.
func lockProperty(ctx context.Context, tx repository.Store, id int64) (*models.Property, error) {
	p, err := tx.Properties().GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock property: %w", err)
	}
	if p == nil {
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

// refreshBestOffer recomputes and stores the best offer of a locked property.
func refreshBestOffer(ctx context.Context, tx repository.Store, p *models.Property) ([]models.Offer, error) {
	offers, err := tx.Offers().ListByProperty(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	p.RecomputeBestOffer(offers)
	return offers, nil
}

func isDomainError(err error) bool {
	return errors.Is(err, models.ErrConstraint) || errors.Is(err, models.ErrBusinessRule)
}
