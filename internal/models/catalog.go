package models

import (
	"sort"
	"strings"
	"time"
)

// PropertyType classifies properties (house, apartment, ...).
type PropertyType struct {
	CreatedAt  time.Time `json:"createdAt"`
	Name       string    `json:"name"`
	ID         int64     `json:"id"`
	Sequence   int       `json:"sequence"`
	OfferCount int       `json:"offerCount"`
}

// Validate checks that the type has a name.
func (t *PropertyType) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return constraintf("name", "The property type name is required.")
	}
	return nil
}

// SortPropertyTypes orders types by sequence, then name.
func SortPropertyTypes(types []PropertyType) {
	sort.SliceStable(types, func(i, j int) bool {
		if types[i].Sequence != types[j].Sequence {
			return types[i].Sequence < types[j].Sequence
		}
		return types[i].Name < types[j].Name
	})
}

// PropertyTag is a free label attached to properties.
type PropertyTag struct {
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
	ID        int64     `json:"id"`
	Color     int       `json:"color"`
}

// Validate checks that the tag has a name.
func (t *PropertyTag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return constraintf("name", "The tag name is required.")
	}
	return nil
}

// SortPropertyTags orders tags by name.
func SortPropertyTags(tags []PropertyTag) {
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})
}

// DuplicateNameError reports a violated uniqueness constraint on a name.
func DuplicateNameError(entity string) error {
	return constraintf("name", "The %s name must be unique!", entity)
}
