package models

import (
	"sort"
	"time"
)

// OfferStatus is the decision taken on an offer. The zero value means undecided.
type OfferStatus string

const (
	OfferPending  OfferStatus = ""
	OfferAccepted OfferStatus = "accepted"
	OfferRefused  OfferStatus = "refused"
)

// DefaultValidityDays is the validity given to offers created without one.
const DefaultValidityDays = 7

// Offer is a bid from a partner against a property.
type Offer struct {
	CreateDate     time.Time   `json:"createDate"`
	DateDeadline   time.Time   `json:"dateDeadline"`
	PropertyTypeID *int64      `json:"propertyTypeId,omitempty"`
	Status         OfferStatus `json:"status,omitempty"`
	Price          float64     `json:"price"`
	ID             int64       `json:"id"`
	PartnerID      int64       `json:"partnerId"`
	PropertyID     int64       `json:"propertyId"`
	Validity       int         `json:"validity"`
}

// Deadline returns the creation date plus the validity in days.
// An unsaved offer without a creation date counts from today.
func (o *Offer) Deadline(today time.Time) time.Time {
	return o.baseDate(today).AddDate(0, 0, o.Validity)
}

// RecomputeDeadline stores Deadline(today) in DateDeadline.
func (o *Offer) RecomputeDeadline(today time.Time) {
	o.DateDeadline = o.Deadline(today)
}

// SetDeadline is the inverse of Deadline: validity becomes the number of
// whole days between the creation date and deadline, clamped at zero.
func (o *Offer) SetDeadline(deadline, today time.Time) {
	days := daysBetween(o.baseDate(today), Date(deadline))
	if days < 0 {
		days = 0
	}
	o.Validity = days
	o.RecomputeDeadline(today)
}

func (o *Offer) baseDate(today time.Time) time.Time {
	if o.CreateDate.IsZero() {
		return Date(today)
	}
	return Date(o.CreateDate)
}

// daysBetween counts whole calendar days from one date to another. It works
// on Unix seconds so spans beyond the range of time.Duration stay exact.
func daysBetween(from, to time.Time) int {
	const secondsPerDay = 24 * 60 * 60
	return int((Date(to).Unix() - Date(from).Unix()) / secondsPerDay)
}

// Validate checks the data-level invariants of an offer.
func (o *Offer) Validate() error {
	if o.Price <= 0 {
		return constraintf("price", "The offer price must be strictly positive!")
	}
	if o.PartnerID == 0 {
		return constraintf("partnerId", "The offer partner is required.")
	}
	if o.PropertyID == 0 {
		return constraintf("propertyId", "The offer property is required.")
	}
	if o.Validity < 0 {
		return constraintf("validity", "The offer validity cannot be negative.")
	}
	switch o.Status {
	case OfferPending, OfferAccepted, OfferRefused:
	default:
		return constraintf("status", "Unknown offer status %q.", o.Status)
	}
	return nil
}

// Refuse marks the offer refused. It has no effect on the property.
func (o *Offer) Refuse() {
	o.Status = OfferRefused
}

// CheckNewOffer verifies that an offer of the given price may be placed on p
// whose current offers are existing.
func CheckNewOffer(p *Property, existing []Offer, price float64) error {
	if price <= 0 {
		return constraintf("price", "The offer price must be strictly positive!")
	}
	if p.Closed() {
		return businessRule("Cannot create an offer on a sold or cancelled property.")
	}
	for _, o := range existing {
		if o.Price > price {
			return businessRule("You cannot create an offer lower than an existing one.")
		}
	}
	return nil
}

// CheckPriceChange verifies that offer may be repriced to price. The price of
// an accepted offer is fixed, and a pending offer cannot drop below another
// offer of the same property. siblings may include offer itself.
func CheckPriceChange(offer *Offer, siblings []Offer, price float64) error {
	if price == offer.Price {
		return nil
	}
	if offer.Status == OfferAccepted {
		return businessRule("The price of an accepted offer cannot be changed.")
	}
	if price < offer.Price {
		for _, o := range siblings {
			if o.ID != offer.ID && o.Price > price {
				return businessRule("You cannot lower an offer below an existing one.")
			}
		}
	}
	return nil
}

// ReceiveOffer advances the property after a new offer was placed. An
// accepted offer keeps the property in offer_accepted.
func (p *Property) ReceiveOffer() {
	if p.State == StateOfferAccepted {
		return
	}
	p.State = StateOfferReceived
}

// AcceptOffer accepts offer on behalf of p. siblings are all offers of p,
// which may include offer itself. On failure neither p nor offer is modified.
func AcceptOffer(p *Property, offer *Offer, siblings []Offer) error {
	switch p.State {
	case StateSold:
		return businessRule("This property is already sold.")
	case StateCancelled:
		return businessRule("A cancelled property cannot accept offers.")
	}
	for _, o := range siblings {
		if o.Status == OfferAccepted {
			return businessRule("Only one offer can be accepted per property.")
		}
	}

	next := *p
	next.SellingPrice = offer.Price
	partner := offer.PartnerID
	next.BuyerID = &partner
	next.State = StateOfferAccepted
	if err := next.Validate(); err != nil {
		return err
	}

	*p = next
	offer.Status = OfferAccepted
	return nil
}

// SyncPropertyType copies the owning property's type onto each offer.
func SyncPropertyType(offers []Offer, typeID *int64) {
	for i := range offers {
		if typeID == nil {
			offers[i].PropertyTypeID = nil
			continue
		}
		id := *typeID
		offers[i].PropertyTypeID = &id
	}
}

// SortOffers orders offers by descending price, then by id.
func SortOffers(offers []Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		if offers[i].Price != offers[j].Price {
			return offers[i].Price > offers[j].Price
		}
		return offers[i].ID < offers[j].ID
	})
}
