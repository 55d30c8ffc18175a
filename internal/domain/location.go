package domain

import "fmt"

// LocationType is the kind of place stock can sit
type LocationType string

const (
	LocationWarehouse LocationType = "WAREHOUSE"
	LocationSite      LocationType = "SITE"
	LocationVehicle   LocationType = "VEHICLE"
)

// IsValid checks if the location type is valid
func (t LocationType) IsValid() bool {
	switch t {
	case LocationWarehouse, LocationSite, LocationVehicle:
		return true
	default:
		return false
	}
}

// Location identifies a stock location. CompanyID is the owning company when
// one is known; sites are shared and carry none.
type Location struct {
	ID        string       `json:"locationId"`
	Type      LocationType `json:"locationType"`
	CompanyID string       `json:"companyId,omitempty"`
}

// NewLocation creates a location without an owning company
func NewLocation(id string, locationType LocationType) Location {
	return Location{ID: id, Type: locationType}
}

// IsZero reports whether no location is set
func (l Location) IsZero() bool {
	return l.ID == "" && l.Type == ""
}

// Validate checks that the location is fully specified
func (l Location) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: locationId is required", ErrInvalidInput)
	}
	if !l.Type.IsValid() {
		return fmt.Errorf("%w: invalid location type %q", ErrInvalidInput, l.Type)
	}
	return nil
}

// SameAs compares id and type, ignoring the owning company
func (l Location) SameAs(other Location) bool {
	return l.ID == other.ID && l.Type == other.Type
}

func (l Location) String() string {
	return string(l.Type) + ":" + l.ID
}

// Normalize fills the owning company of a warehouse, which is keyed by its
// company id.
func (l Location) Normalize() Location {
	if l.Type == LocationWarehouse && l.CompanyID == "" {
		l.CompanyID = l.ID
	}
	return l
}
