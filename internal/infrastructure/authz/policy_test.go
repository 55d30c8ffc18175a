package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantenix/inventory-service/internal/domain"
)

func TestAuthorizer_DefaultPolicy(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	a := NewAuthorizer(p)
	ctx := context.Background()

	tests := []struct {
		role       string
		capability string
		want       bool
	}{
		{"ADMIN", domain.CapApproveRequest, true},
		{"admin", "ANYTHING_AT_ALL", true},
		{"SUPERVISOR", domain.CapApproveRequest, true},
		{"SUPERVISOR", domain.CapDeliverFromSource, false},
		{"WAREHOUSE", domain.CapReceiveAtDest, true},
		{"TECHNICIAN", domain.CapCreateRequest, true},
		{"TECHNICIAN", domain.CapApproveRequest, false},
		{"TECHNICIAN", domain.CapConfirmReceipt, true},
		{"UNKNOWN", domain.CapCreateRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.capability, func(t *testing.T) {
			ok, err := a.HasCapability(ctx, domain.Session{Role: tt.role}, tt.capability)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAuthorizer_RequireCapability(t *testing.T) {
	p, err := ParsePolicy([]byte("roles:\n  viewer: []\n  clerk: [CREATE_INVENTORY_ITEM]\n"))
	require.NoError(t, err)
	a := NewAuthorizer(p)

	err = a.RequireCapability(context.Background(), domain.Session{Role: "viewer"}, domain.CapCreateItem)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Contains(t, err.Error(), domain.CapCreateItem)

	assert.NoError(t, a.RequireCapability(context.Background(), domain.Session{Role: "CLERK"}, domain.CapCreateItem))
}

func TestParsePolicy_RejectsEmpty(t *testing.T) {
	_, err := ParsePolicy([]byte("roles: {}\n"))
	assert.Error(t, err)

	_, err = ParsePolicy([]byte("roles: [not, a, map]"))
	assert.Error(t, err)
}
