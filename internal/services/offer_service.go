package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stwalsh4118/estate/internal/models"
	"github.com/stwalsh4118/estate/internal/repository"
)

// CreateOfferInput carries the fields of a new offer. A nil Validity takes
// the configured default; a DateDeadline overrides Validity.
type CreateOfferInput struct {
	PropertyID   int64
	PartnerID    int64
	Price        float64
	Validity     *int
	DateDeadline *time.Time
}

// OfferPatch is a partial offer update. DateDeadline wins over Validity.
type OfferPatch struct {
	Price        *float64
	Validity     *int
	DateDeadline *time.Time
}

// OfferService defines the offer engine operations. Every operation that
// touches an offer serializes on the owning property.
type OfferService interface {
	// Create places an offer. Fails with a business rule error when a higher
	// offer exists or the property is sold or cancelled.
	Create(ctx context.Context, in CreateOfferInput) (*models.Offer, error)

	// Get returns an offer. Returns ErrOfferNotFound if it does not exist.
	Get(ctx context.Context, id int64) (*models.Offer, error)

	// ListForProperty returns the offers of a property, highest price first.
	ListForProperty(ctx context.Context, propertyID int64) ([]models.Offer, error)

	// Accept accepts an offer, making its partner the buyer. At most one
	// offer per property can be accepted.
	Accept(ctx context.Context, id int64) (*models.Offer, error)

	// Refuse marks an offer refused. It never fails on state.
	Refuse(ctx context.Context, id int64) (*models.Offer, error)

	// Update changes price, validity or deadline of an offer.
	Update(ctx context.Context, id int64, patch OfferPatch) (*models.Offer, error)

	// Delete removes an offer and recomputes the property's best offer.
	Delete(ctx context.Context, id int64) error
}

// offerService is the concrete implementation of OfferService.
type offerService struct {
	Deps
}

// NewOfferService creates a new instance of OfferService.
func NewOfferService(deps Deps) OfferService {
	return &offerService{Deps: deps.withDefaults()}
}

func (s *offerService) Create(ctx context.Context, in CreateOfferInput) (*models.Offer, error) {
	var offer *models.Offer
	today := s.Clock.Now()

	err := s.Store.InTx(ctx, func(tx repository.Store) error {
		p, err := lockProperty(ctx, tx, in.PropertyID)
		if err != nil {
			return err
		}

		existing, err := tx.Offers().ListByProperty(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to load offers: %w", err)
		}
		if err := models.CheckNewOffer(p, existing, in.Price); err != nil {
			return err
		}

		o := &models.Offer{
			Price:          in.Price,
			PartnerID:      in.PartnerID,
			PropertyID:     p.ID,
			Validity:       s.Settings.OfferValidityDays,
			CreateDate:     today,
			PropertyTypeID: p.PropertyTypeID,
		}
		if in.Validity != nil {
			o.Validity = *in.Validity
		}
		if in.DateDeadline != nil {
			o.SetDeadline(*in.DateDeadline, today)
		} else {
			o.RecomputeDeadline(today)
		}
		if err := o.Validate(); err != nil {
			return err
		}

		if err := tx.Offers().Create(ctx, o); err != nil {
			return err
		}

		p.ReceiveOffer()
		p.RecomputeBestOffer(append(existing, *o))
		if err := tx.Properties().Update(ctx, p); err != nil {
			return err
		}

		offer = o
		return nil
	})
	if err != nil {
		return nil, s.fail("create", 0, err, map[string]interface{}{
			"property_id": in.PropertyID,
			"price":       in.Price,
		})
	}

	if offer.PropertyTypeID != nil {
		invalidateTypes(ctx, s.Cache, s.Log)
	}

	s.Log.Info("Offer created", map[string]interface{}{
		"offer_id":    offer.ID,
		"property_id": offer.PropertyID,
		"price":       offer.Price,
	})
	return offer, nil
}

func (s *offerService) Get(ctx context.Context, id int64) (*models.Offer, error) {
	o, err := s.Store.Offers().Get(ctx, id)
	if err != nil {
		s.Log.Error("Failed to query offer", err, map[string]interface{}{"offer_id": id})
		return nil, fmt.Errorf("failed to query offer: %w", err)
	}
	if o == nil {
		return nil, ErrOfferNotFound
	}
	return o, nil
}

func (s *offerService) ListForProperty(ctx context.Context, propertyID int64) ([]models.Offer, error) {
	p, err := s.Store.Properties().Get(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	if p == nil {
		return nil, ErrPropertyNotFound
	}

	offers, err := s.Store.Offers().ListByProperty(ctx, propertyID)
	if err != nil {
		s.Log.Error("Failed to list offers", err, map[string]interface{}{"property_id": propertyID})
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

func (s *offerService) Accept(ctx context.Context, id int64) (*models.Offer, error) {
	var result *models.Offer

	err := s.withLockedOffer(ctx, id, func(tx repository.Store, p *models.Property, offer *models.Offer, siblings []models.Offer) error {
		if err := models.AcceptOffer(p, offer, siblings); err != nil {
			return err
		}
		if err := tx.Offers().Update(ctx, offer); err != nil {
			return err
		}
		if err := tx.Properties().Update(ctx, p); err != nil {
			return err
		}
		result = offer
		return nil
	})
	if err != nil {
		return nil, s.fail("accept", id, err, nil)
	}

	s.Log.Info("Offer accepted", map[string]interface{}{
		"offer_id":      id,
		"property_id":   result.PropertyID,
		"selling_price": result.Price,
		"buyer_id":      result.PartnerID,
	})
	return result, nil
}

func (s *offerService) Refuse(ctx context.Context, id int64) (*models.Offer, error) {
	var result *models.Offer

	err := s.withLockedOffer(ctx, id, func(tx repository.Store, _ *models.Property, offer *models.Offer, _ []models.Offer) error {
		offer.Refuse()
		if err := tx.Offers().Update(ctx, offer); err != nil {
			return err
		}
		result = offer
		return nil
	})
	if err != nil {
		return nil, s.fail("refuse", id, err, nil)
	}

	s.Log.Info("Offer refused", map[string]interface{}{
		"offer_id":    id,
		"property_id": result.PropertyID,
	})
	return result, nil
}

func (s *offerService) Update(ctx context.Context, id int64, patch OfferPatch) (*models.Offer, error) {
	var result *models.Offer
	today := s.Clock.Now()

	err := s.withLockedOffer(ctx, id, func(tx repository.Store, p *models.Property, offer *models.Offer, siblings []models.Offer) error {
		if patch.Price != nil {
			if err := models.CheckPriceChange(offer, siblings, *patch.Price); err != nil {
				return err
			}
			offer.Price = *patch.Price
		}
		switch {
		case patch.DateDeadline != nil:
			offer.SetDeadline(*patch.DateDeadline, today)
		case patch.Validity != nil:
			offer.Validity = *patch.Validity
			offer.RecomputeDeadline(today)
		}
		if err := offer.Validate(); err != nil {
			return err
		}
		if err := tx.Offers().Update(ctx, offer); err != nil {
			return err
		}

		if patch.Price != nil {
			for i := range siblings {
				if siblings[i].ID == offer.ID {
					siblings[i] = *offer
				}
			}
			p.RecomputeBestOffer(siblings)
			if err := tx.Properties().Update(ctx, p); err != nil {
				return err
			}
		}

		result = offer
		return nil
	})
	if err != nil {
		return nil, s.fail("update", id, err, nil)
	}

	s.Log.Info("Offer updated", map[string]interface{}{
		"offer_id": id,
		"price":    result.Price,
		"validity": result.Validity,
	})
	return result, nil
}

func (s *offerService) Delete(ctx context.Context, id int64) error {
	var typed bool

	err := s.withLockedOffer(ctx, id, func(tx repository.Store, p *models.Property, offer *models.Offer, siblings []models.Offer) error {
		if _, err := tx.Offers().Delete(ctx, offer.ID); err != nil {
			return err
		}
		remaining := make([]models.Offer, 0, len(siblings))
		for _, o := range siblings {
			if o.ID != offer.ID {
				remaining = append(remaining, o)
			}
		}
		p.RecomputeBestOffer(remaining)
		if err := tx.Properties().Update(ctx, p); err != nil {
			return err
		}
		typed = offer.PropertyTypeID != nil
		return nil
	})
	if err != nil {
		return s.fail("delete", id, err, nil)
	}

	if typed {
		invalidateTypes(ctx, s.Cache, s.Log)
	}

	s.Log.Info("Offer deleted", map[string]interface{}{"offer_id": id})
	return nil
}

// withLockedOffer runs fn inside a transaction holding the lock of the
// offer's property. offer points into a fresh read taken under the lock and
// siblings holds every offer of the property, offer included.
func (s *offerService) withLockedOffer(ctx context.Context, id int64, fn func(tx repository.Store, p *models.Property, offer *models.Offer, siblings []models.Offer) error) error {
	return s.Store.InTx(ctx, func(tx repository.Store) error {
		o, err := tx.Offers().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to query offer: %w", err)
		}
		if o == nil {
			return ErrOfferNotFound
		}

		p, err := lockProperty(ctx, tx, o.PropertyID)
		if err != nil {
			return err
		}

		siblings, err := tx.Offers().ListByProperty(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to load offers: %w", err)
		}

		var offer *models.Offer
		for i := range siblings {
			if siblings[i].ID == id {
				fresh := siblings[i]
				offer = &fresh
			}
		}
		if offer == nil {
			return ErrOfferNotFound
		}

		return fn(tx, p, offer, siblings)
	})
}

// fail logs and classifies an error raised inside an offer transaction.
func (s *offerService) fail(action string, id int64, err error, fields map[string]interface{}) error {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["action"] = action
	if id != 0 {
		fields["offer_id"] = id
	}

	switch {
	case errors.Is(err, ErrOfferNotFound), errors.Is(err, ErrPropertyNotFound):
		return err
	case isDomainError(err):
		fields["error"] = err.Error()
		s.Log.Warn("Offer operation rejected", fields)
		return err
	}
	s.Log.Error("Offer operation failed", err, fields)
	return fmt.Errorf("failed to %s offer: %w", action, err)
}
