package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/logging"
)

type mapCache map[string]string

func (c mapCache) Get(_ context.Context, loc domain.Location) (string, bool) {
	name, ok := c[loc.String()]
	return name, ok
}

func (c mapCache) Set(_ context.Context, loc domain.Location, name string) {
	c[loc.String()] = name
}

func TestLocationResolver_ResolveDestination(t *testing.T) {
	r := NewLocationResolver(&fakeDirectory{}, nil, logging.NewNop())
	requester := &domain.DirectoryEntry{ID: "u1", CompanyID: "acme"}

	assert.Equal(t, site("site-9"), r.ResolveDestination(&domain.DirectoryEntry{ID: "wo", SiteID: "site-9"}, requester))
	assert.Equal(t, warehouse("acme"), r.ResolveDestination(&domain.DirectoryEntry{ID: "wo"}, requester))
}

func TestLocationResolver_ResolveName(t *testing.T) {
	h := newHarness(t)
	cache := mapCache{}
	r := NewLocationResolver(h.directory, cache, logging.NewNop())
	ctx := testContext()

	assert.Equal(t, "North Plant", r.ResolveName(ctx, site("site-1")))
	assert.Equal(t, "Beta Supply", r.ResolveName(ctx, warehouse("beta")))
	assert.Equal(t, "van-3", r.ResolveName(ctx, domain.NewLocation("van-3", domain.LocationVehicle)))
	assert.Equal(t, "site-404", r.ResolveName(ctx, site("site-404")))
	assert.Equal(t, "North Plant", cache[site("site-1").String()])

	h.directory.down = errors.New("connection refused")
	assert.Equal(t, "North Plant", r.ResolveName(ctx, site("site-1")))
	assert.Equal(t, "acme", r.ResolveName(ctx, warehouse("acme")))
}
