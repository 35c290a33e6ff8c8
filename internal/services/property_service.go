package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/stwalsh4118/estate/internal/identity"
	"github.com/stwalsh4118/estate/internal/models"
	"github.com/stwalsh4118/estate/internal/repository"
)

// CreatePropertyInput carries the fields accepted when creating a property.
// Nil pointers take the creation defaults.
type CreatePropertyInput struct {
	Name              string
	Description       string
	Postcode          string
	ExpectedPrice     float64
	DateAvailability  *time.Time
	Bedrooms          *int
	Facades           int
	LivingArea        int
	Garage            bool
	Garden            bool
	GardenArea        *float64
	GardenOrientation *models.Orientation
	Active            *bool
	OwnerID           *int64
	PropertyTypeID    *int64
	SalespersonID     *int64
	TagIDs            []int64
}

// PropertyPatch is a partial update. Nil fields are left untouched.
type PropertyPatch struct {
	Name              *string
	Description       *string
	Postcode          *string
	ExpectedPrice     *float64
	DateAvailability  *time.Time
	Bedrooms          *int
	Facades           *int
	LivingArea        *int
	Garage            *bool
	Garden            *bool
	GardenArea        *float64
	GardenOrientation *models.Orientation
	Active            *bool
	OwnerID           *int64
	PropertyTypeID    *int64
	ClearPropertyType bool
	SalespersonID     *int64
	TagIDs            *[]int64
}

// ListPropertiesInput filters a property listing.
type ListPropertiesInput struct {
	States []models.PropertyState
	Active *bool
	Limit  int
	Offset int
}

// PropertyService defines the property lifecycle operations.
type PropertyService interface {
	// Create applies the creation defaults, validates and stores a property.
	// Returns a models.ErrConstraint error for invalid data.
	Create(ctx context.Context, in CreatePropertyInput) (*models.Property, error)

	// Get returns a property with its offers and a freshly computed best offer.
	// Returns ErrPropertyNotFound if it does not exist.
	Get(ctx context.Context, id int64) (*models.Property, error)

	// List returns properties ordered by id descending.
	List(ctx context.Context, in ListPropertiesInput) ([]models.Property, error)

	// ListBySalesperson returns the properties of a salesperson that are
	// still open for offers (new, offer_received).
	ListBySalesperson(ctx context.Context, userID int64) ([]models.Property, error)

	// Update applies patch. Toggling the garden applies the garden defaults,
	// and a type change propagates to the property's offers.
	Update(ctx context.Context, id int64, patch PropertyPatch) (*models.Property, error)

	// Delete removes a property with its offers.
	Delete(ctx context.Context, id int64) error

	// Cancel moves a property to cancelled. Fails with a business rule
	// error when the property is sold.
	Cancel(ctx context.Context, id int64) (*models.Property, error)

	// Sell moves a property to sold. Fails with a business rule error when
	// the property is cancelled.
	Sell(ctx context.Context, id int64) (*models.Property, error)
}

// propertyService is the concrete implementation of PropertyService.
type propertyService struct {
	Deps
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(deps Deps) PropertyService {
	return &propertyService{Deps: deps.withDefaults()}
}

func (s *propertyService) Create(ctx context.Context, in CreatePropertyInput) (*models.Property, error) {
	today := s.Clock.Now()

	salesperson := in.SalespersonID
	if salesperson == nil {
		salesperson = identity.UserFrom(ctx)
	}

	p := models.NewProperty(in.Name, in.ExpectedPrice, today, salesperson)
	p.DateAvailability = models.Date(today).AddDate(0, 0, s.Settings.AvailabilityDays)
	if in.DateAvailability != nil {
		p.DateAvailability = models.Date(*in.DateAvailability)
	}
	p.Description = in.Description
	p.Postcode = in.Postcode
	if in.Bedrooms != nil {
		p.Bedrooms = *in.Bedrooms
	}
	p.Facades = in.Facades
	p.LivingArea = in.LivingArea
	p.Garage = in.Garage
	if in.Active != nil {
		p.Active = *in.Active
	}
	p.OwnerID = in.OwnerID
	p.PropertyTypeID = in.PropertyTypeID
	if in.TagIDs != nil {
		p.TagIDs = in.TagIDs
	}
	if in.Garden {
		p.ToggleGarden(true)
	}
	if in.GardenArea != nil {
		p.GardenArea = *in.GardenArea
	}
	if in.GardenOrientation != nil {
		p.GardenOrientation = *in.GardenOrientation
	}
	p.RecomputeTotalArea()

	if err := p.Validate(); err != nil {
		s.Log.Warn("Rejected property", map[string]interface{}{
			"name":  in.Name,
			"error": err.Error(),
		})
		return nil, err
	}

	if err := s.Store.Properties().Create(ctx, p); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.Log.Error("Failed to create property", err, map[string]interface{}{"name": in.Name})
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.Log.Info("Property created", map[string]interface{}{
		"property_id":    p.ID,
		"expected_price": p.ExpectedPrice,
	})
	return p, nil
}

func (s *propertyService) Get(ctx context.Context, id int64) (*models.Property, error) {
	p, err := s.Store.Properties().Get(ctx, id)
	if err != nil {
		s.Log.Error("Failed to query property", err, map[string]interface{}{"property_id": id})
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	if p == nil {
		return nil, ErrPropertyNotFound
	}

	offers, err := s.Store.Offers().ListByProperty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	p.Offers = offers
	p.RecomputeBestOffer(offers)
	p.RecomputeTotalArea()
	return p, nil
}

func (s *propertyService) List(ctx context.Context, in ListPropertiesInput) ([]models.Property, error) {
	for _, st := range in.States {
		if !st.Valid() {
			return nil, &models.ConstraintError{Field: "state", Message: fmt.Sprintf("Unknown property state %q.", st)}
		}
	}

	props, err := s.Store.Properties().List(ctx, repository.PropertyFilter{
		Active: in.Active,
		States: in.States,
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		s.Log.Error("Failed to list properties", err, nil)
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return props, nil
}

func (s *propertyService) ListBySalesperson(ctx context.Context, userID int64) ([]models.Property, error) {
	props, err := s.Store.Properties().List(ctx, repository.PropertyFilter{
		SalespersonID: &userID,
		States:        []models.PropertyState{models.StateNew, models.StateOfferReceived},
	})
	if err != nil {
		s.Log.Error("Failed to list salesperson properties", err, map[string]interface{}{"user_id": userID})
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return props, nil
}

func (s *propertyService) Update(ctx context.Context, id int64, patch PropertyPatch) (*models.Property, error) {
	var (
		result      *models.Property
		typeChanged bool
	)

	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		p, err := lockProperty(ctx, tx, id)
		if err != nil {
			return err
		}

		oldType := p.PropertyTypeID
		applyPropertyPatch(p, patch)
		typeChanged = !sameID(oldType, p.PropertyTypeID)

		if err := p.Validate(); err != nil {
			return err
		}

		offers, err := refreshBestOffer(ctx, tx, p)
		if err != nil {
			return err
		}

		if err := tx.Properties().Update(ctx, p); err != nil {
			return err
		}

		if typeChanged {
			if err := tx.Offers().SetPropertyType(ctx, p.ID, p.PropertyTypeID); err != nil {
				return err
			}
			models.SyncPropertyType(offers, p.PropertyTypeID)
		}

		p.Offers = offers
		result = p
		return nil
	})
	if err != nil {
		return nil, s.fail("update", id, err)
	}

	if typeChanged {
		invalidateTypes(ctx, s.Cache, s.Log)
	}

	s.Log.Info("Property updated", map[string]interface{}{
		"property_id":  id,
		"type_changed": typeChanged,
	})
	return result, nil
}

func applyPropertyPatch(p *models.Property, patch PropertyPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Postcode != nil {
		p.Postcode = *patch.Postcode
	}
	if patch.ExpectedPrice != nil {
		p.ExpectedPrice = *patch.ExpectedPrice
	}
	if patch.DateAvailability != nil {
		p.DateAvailability = models.Date(*patch.DateAvailability)
	}
	if patch.Bedrooms != nil {
		p.Bedrooms = *patch.Bedrooms
	}
	if patch.Facades != nil {
		p.Facades = *patch.Facades
	}
	if patch.LivingArea != nil {
		p.LivingArea = *patch.LivingArea
	}
	if patch.Garage != nil {
		p.Garage = *patch.Garage
	}
	// Garden defaults apply only on an explicit toggle; explicit values win.
	if patch.Garden != nil && *patch.Garden != p.Garden {
		p.ToggleGarden(*patch.Garden)
	}
	if patch.GardenArea != nil {
		p.GardenArea = *patch.GardenArea
	}
	if patch.GardenOrientation != nil {
		p.GardenOrientation = *patch.GardenOrientation
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	if patch.OwnerID != nil {
		p.OwnerID = patch.OwnerID
	}
	if patch.ClearPropertyType {
		p.PropertyTypeID = nil
	} else if patch.PropertyTypeID != nil {
		p.PropertyTypeID = patch.PropertyTypeID
	}
	if patch.SalespersonID != nil {
		p.SalespersonID = patch.SalespersonID
	}
	if patch.TagIDs != nil {
		p.TagIDs = slices.Clone(*patch.TagIDs)
	}
	p.RecomputeTotalArea()
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *propertyService) Delete(ctx context.Context, id int64) error {
	var hadOffers bool

	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		p, err := lockProperty(ctx, tx, id)
		if err != nil {
			return err
		}
		offers, err := tx.Offers().ListByProperty(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to load offers: %w", err)
		}
		hadOffers = len(offers) > 0

		if _, err := tx.Properties().Delete(ctx, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return s.fail("delete", id, err)
	}

	if hadOffers {
		invalidateTypes(ctx, s.Cache, s.Log)
	}

	s.Log.Info("Property deleted", map[string]interface{}{"property_id": id})
	return nil
}

func (s *propertyService) Cancel(ctx context.Context, id int64) (*models.Property, error) {
	return s.transition(ctx, id, "cancel", (*models.Property).Cancel)
}

func (s *propertyService) Sell(ctx context.Context, id int64) (*models.Property, error) {
	return s.transition(ctx, id, "sell", (*models.Property).MarkSold)
}

// transition applies a state change to a locked property and stores it.
// On failure the stored property is left unchanged.
func (s *propertyService) transition(ctx context.Context, id int64, action string, apply func(*models.Property) error) (*models.Property, error) {
	var result *models.Property

	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		p, err := lockProperty(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := apply(p); err != nil {
			return err
		}
		if err := tx.Properties().Update(ctx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, s.fail(action, id, err)
	}

	s.Log.Info("Property state changed", map[string]interface{}{
		"property_id": id,
		"action":      action,
		"state":       result.State,
	})
	return result, nil
}

// fail logs and classifies an error raised inside a property transaction.
func (s *propertyService) fail(action string, id int64, err error) error {
	fields := map[string]interface{}{"property_id": id, "action": action}
	switch {
	case errors.Is(err, ErrPropertyNotFound):
		return err
	case isDomainError(err):
		fields["error"] = err.Error()
		s.Log.Warn("Property operation rejected", fields)
		return err
	}
	s.Log.Error("Property operation failed", err, fields)
	return fmt.Errorf("failed to %s property: %w", action, err)
}
