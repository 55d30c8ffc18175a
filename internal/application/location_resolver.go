package application

import (
	"context"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/logging"
)

// LocationResolver computes request destinations and display names
type LocationResolver struct {
	directory Directory
	cache     NameCache
	logger    *logging.Logger
}

// NewLocationResolver creates a resolver. cache may be nil.
func NewLocationResolver(directory Directory, cache NameCache, logger *logging.Logger) *LocationResolver {
	return &LocationResolver{
		directory: directory,
		cache:     cache,
		logger:    logger.WithComponent("location-resolver"),
	}
}

// ResolveDestination returns the work order's site when it has one,
// otherwise the requester's own company acting as a warehouse.
func (r *LocationResolver) ResolveDestination(workOrder, requester *domain.DirectoryEntry) domain.Location {
	if workOrder.SiteID != "" {
		return domain.NewLocation(workOrder.SiteID, domain.LocationSite)
	}
	return domain.Location{
		ID:        requester.CompanyID,
		Type:      domain.LocationWarehouse,
		CompanyID: requester.CompanyID,
	}
}

// ResolveName returns a display name for loc. Lookup failures are logged and
// fall back to the raw id.
func (r *LocationResolver) ResolveName(ctx context.Context, loc domain.Location) string {
	if loc.Type == domain.LocationVehicle || loc.ID == "" {
		return loc.ID
	}
	if r.cache != nil {
		if name, ok := r.cache.Get(ctx, loc); ok {
			return name
		}
	}

	var (
		entry *domain.DirectoryEntry
		err   error
	)
	switch loc.Type {
	case domain.LocationSite:
		entry, err = r.directory.Site(ctx, loc.ID)
	case domain.LocationWarehouse:
		entry, err = r.directory.Company(ctx, loc.ID)
	default:
		return loc.ID
	}

	if err != nil || entry == nil || entry.Name == "" {
		r.logger.WithContext(ctx).Warn("Location name lookup failed, using id",
			"locationId", loc.ID,
			"locationType", loc.Type,
			"error", err,
		)
		return loc.ID
	}

	if r.cache != nil {
		r.cache.Set(ctx, loc, entry.Name)
	}
	return entry.Name
}
