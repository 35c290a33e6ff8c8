package models

import (
	"math"
	"strings"
	"time"
)

// PropertyState is a step of the property sale lifecycle.
type PropertyState string

const (
	StateNew           PropertyState = "new"
	StateOfferReceived PropertyState = "offer_received"
	StateOfferAccepted PropertyState = "offer_accepted"
	StateSold          PropertyState = "sold"
	StateCancelled     PropertyState = "cancelled"
)

// Valid reports whether s is a known state.
func (s PropertyState) Valid() bool {
	switch s {
	case StateNew, StateOfferReceived, StateOfferAccepted, StateSold, StateCancelled:
		return true
	}
	return false
}

// Orientation is the compass direction a garden faces. The zero value means unset.
type Orientation string

const (
	OrientationNone  Orientation = ""
	OrientationNorth Orientation = "north"
	OrientationSouth Orientation = "south"
	OrientationEast  Orientation = "east"
	OrientationWest  Orientation = "west"
)

// Valid reports whether o is unset or a known direction.
func (o Orientation) Valid() bool {
	switch o {
	case OrientationNone, OrientationNorth, OrientationSouth, OrientationEast, OrientationWest:
		return true
	}
	return false
}

// Lifecycle defaults.
const (
	DefaultAvailabilityDays = 90
	DefaultBedrooms         = 2
	DefaultGardenArea       = 10
	DefaultGardenOrient     = OrientationNorth

	// MinSellingRatio is the lowest fraction of the expected price a
	// non-zero selling price may reach.
	MinSellingRatio = 0.90

	pricePrecision = 2
)

// Property is a real-estate listing being sold.
// Nullable references use pointers to distinguish unset from zero.
type Property struct {
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	DateAvailability  time.Time     `json:"dateAvailability"`
	OwnerID           *int64        `json:"ownerId,omitempty"`
	PropertyTypeID    *int64        `json:"propertyTypeId,omitempty"`
	SalespersonID     *int64        `json:"salespersonId,omitempty"`
	BuyerID           *int64        `json:"buyerId,omitempty"`
	Name              string        `json:"name"`
	Description       string        `json:"description,omitempty"`
	Postcode          string        `json:"postcode,omitempty"`
	State             PropertyState `json:"state"`
	GardenOrientation Orientation   `json:"gardenOrientation,omitempty"`
	TagIDs            []int64       `json:"tagIds"`
	Offers            []Offer       `json:"offers,omitempty"`
	ExpectedPrice     float64       `json:"expectedPrice"`
	SellingPrice      float64       `json:"sellingPrice"`
	BestOffer         float64       `json:"bestOffer"`
	GardenArea        float64       `json:"gardenArea"`
	TotalArea         float64       `json:"totalArea"`
	ID                int64         `json:"id"`
	Bedrooms          int           `json:"bedrooms"`
	Facades           int           `json:"facades"`
	LivingArea        int           `json:"livingArea"`
	Active            bool          `json:"active"`
	Garage            bool          `json:"garage"`
	Garden            bool          `json:"garden"`
}

// NewProperty builds a property with creation-time defaults applied:
// availability 90 days after today, active, two bedrooms, state new and
// the acting user as salesperson.
func NewProperty(name string, expectedPrice float64, today time.Time, actingUser *int64) *Property {
	p := &Property{
		Name:             name,
		ExpectedPrice:    expectedPrice,
		DateAvailability: Date(today).AddDate(0, 0, DefaultAvailabilityDays),
		Active:           true,
		Bedrooms:         DefaultBedrooms,
		State:            StateNew,
		SalespersonID:    actingUser,
		TagIDs:           []int64{},
	}
	p.RecomputeTotalArea()
	return p
}

// RecomputeTotalArea sets TotalArea to LivingArea + GardenArea.
func (p *Property) RecomputeTotalArea() {
	p.TotalArea = float64(p.LivingArea) + p.GardenArea
}

// RecomputeBestOffer sets BestOffer to the highest price among offers, or 0.
func (p *Property) RecomputeBestOffer(offers []Offer) {
	p.BestOffer = BestOffer(offers)
}

// BestOffer returns the highest offer price, or 0 when there are none.
func BestOffer(offers []Offer) float64 {
	best := 0.0
	for _, o := range offers {
		if o.Price > best {
			best = o.Price
		}
	}
	return best
}

// ToggleGarden applies the suggested garden defaults for an explicit toggle.
// Callers invoke it only when the garden flag actually changes.
func (p *Property) ToggleGarden(on bool) {
	p.Garden = on
	if on {
		p.GardenArea = DefaultGardenArea
		p.GardenOrientation = DefaultGardenOrient
	} else {
		p.GardenArea = 0
		p.GardenOrientation = OrientationNone
	}
	p.RecomputeTotalArea()
}

// Cancel moves the property to cancelled. A sold property cannot be cancelled.
func (p *Property) Cancel() error {
	if p.State == StateSold {
		return businessRule("A sold property cannot be cancelled.")
	}
	p.State = StateCancelled
	return nil
}

// MarkSold moves the property to sold. A cancelled property cannot be sold.
func (p *Property) MarkSold() error {
	if p.State == StateCancelled {
		return businessRule("A cancelled property cannot be sold.")
	}
	p.State = StateSold
	return nil
}

// Closed reports whether the property left the bidding phase for good.
func (p *Property) Closed() bool {
	return p.State == StateSold || p.State == StateCancelled
}

// Validate checks the data-level invariants of a property.
func (p *Property) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return constraintf("name", "The property name is required.")
	}
	if !p.State.Valid() {
		return constraintf("state", "Unknown property state %q.", p.State)
	}
	if !p.GardenOrientation.Valid() {
		return constraintf("gardenOrientation", "Unknown garden orientation %q.", p.GardenOrientation)
	}
	if p.ExpectedPrice <= 0 {
		return constraintf("expectedPrice", "The expected price must be strictly positive!")
	}
	if p.SellingPrice < 0 {
		return constraintf("sellingPrice", "The selling price must be positive or zero!")
	}
	return CheckSellingPrice(p.SellingPrice, p.ExpectedPrice)
}

// CheckSellingPrice enforces that a non-zero selling price reaches at least
// 90% of the expected price. Comparison is made at two decimal places.
func CheckSellingPrice(selling, expected float64) error {
	if floatIsZero(selling) {
		return nil
	}
	minAcceptable := expected * MinSellingRatio
	if floatCompare(selling, minAcceptable) < 0 {
		return constraintf("sellingPrice", "Selling price cannot be lower than 90%% of the expected price.")
	}
	return nil
}

func roundPrice(v float64) float64 {
	scale := math.Pow10(pricePrecision)
	return math.Round(v*scale) / scale
}

func floatIsZero(v float64) bool {
	return roundPrice(v) == 0
}

func floatCompare(a, b float64) int {
	ra, rb := roundPrice(a), roundPrice(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

// Date truncates t to a calendar day in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
