package repository

import (
	"context"

	"github.com/stwalsh4118/estate/internal/models"
)

// PropertyFilter narrows a property listing. Zero values mean "any".
type PropertyFilter struct {
	Active        *bool
	SalespersonID *int64
	States        []models.PropertyState
	Limit         int
	Offset        int
}

// PropertyRepository defines data access for properties.
// Get methods return nil, nil when the record does not exist.
type PropertyRepository interface {
	// Create inserts p and fills in its ID and timestamps.
	Create(ctx context.Context, p *models.Property) error

	// Get loads a property with its tag ids. Offers are not loaded.
	Get(ctx context.Context, id int64) (*models.Property, error)

	// GetForUpdate is Get plus an exclusive lock on the property held until
	// the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*models.Property, error)

	// List returns properties ordered by id descending.
	List(ctx context.Context, filter PropertyFilter) ([]models.Property, error)

	// Update writes every column of p and replaces its tags.
	Update(ctx context.Context, p *models.Property) error

	// Delete removes a property and its offers. Reports whether a row existed.
	Delete(ctx context.Context, id int64) (bool, error)
}

// OfferRepository defines data access for offers.
type OfferRepository interface {
	Create(ctx context.Context, o *models.Offer) error
	Get(ctx context.Context, id int64) (*models.Offer, error)

	// ListByProperty returns all offers of a property ordered by price descending.
	ListByProperty(ctx context.Context, propertyID int64) ([]models.Offer, error)

	Update(ctx context.Context, o *models.Offer) error
	Delete(ctx context.Context, id int64) (bool, error)

	// CountByType counts offers whose denormalized property type is typeID.
	CountByType(ctx context.Context, typeID int64) (int, error)

	// SetPropertyType propagates a property's type to all of its offers.
	SetPropertyType(ctx context.Context, propertyID int64, typeID *int64) error
}

// PropertyTypeRepository defines data access for property types.
// Duplicate names fail with a models.ErrConstraint error.
type PropertyTypeRepository interface {
	Create(ctx context.Context, t *models.PropertyType) error
	Get(ctx context.Context, id int64) (*models.PropertyType, error)
	GetByName(ctx context.Context, name string) (*models.PropertyType, error)
	// List returns types ordered by sequence, name.
	List(ctx context.Context) ([]models.PropertyType, error)
	Update(ctx context.Context, t *models.PropertyType) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// PropertyTagRepository defines data access for property tags.
// Duplicate names fail with a models.ErrConstraint error.
type PropertyTagRepository interface {
	Create(ctx context.Context, t *models.PropertyTag) error
	Get(ctx context.Context, id int64) (*models.PropertyTag, error)
	GetByName(ctx context.Context, name string) (*models.PropertyTag, error)
	// List returns tags ordered by name.
	List(ctx context.Context) ([]models.PropertyTag, error)
	Update(ctx context.Context, t *models.PropertyTag) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// Store aggregates the repositories of one record store.
type Store interface {
	Properties() PropertyRepository
	Offers() OfferRepository
	Types() PropertyTypeRepository
	Tags() PropertyTagRepository

	// InTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling InTx on a transaction-bound Store reuses the transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
