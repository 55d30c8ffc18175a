package tenant

import (
	"context"
	"errors"
)

type contextKey string

const scopeKey contextKey = "tenantScope"

// Errors for tenant scope operations
var (
	ErrMissingScope       = errors.New("tenant scope is required")
	ErrMissingCompanyID   = errors.New("companyId is required")
	ErrUnauthorizedAccess = errors.New("unauthorized access to tenant resource")
)

// Scope identifies the set of tenant data a caller may see.
//
// Every list and query call takes a Scope explicitly. A scope with a GroupID
// widens visibility to every company in that group; it never widens what the
// caller may mutate, which stays gated by capability checks per company.
type Scope struct {
	CompanyID string `json:"companyId"`
	GroupID   string `json:"companyGroupId,omitempty"`
}

// NewScope builds a scope for a company, optionally widened to its group
func NewScope(companyID, groupID string) Scope {
	return Scope{CompanyID: companyID, GroupID: groupID}
}

// Validate reports whether the scope can be used to filter queries
func (s Scope) Validate() error {
	if s.CompanyID == "" {
		return ErrMissingCompanyID
	}
	return nil
}

// IsEmpty returns true when no tenant information is present
func (s Scope) IsEmpty() bool {
	return s.CompanyID == "" && s.GroupID == ""
}

// HasGroup reports whether the scope covers a company group
func (s Scope) HasGroup() bool {
	return s.GroupID != ""
}

// Covers reports whether a resource owned by companyID (member of groupID)
// is visible within the scope.
func (s Scope) Covers(companyID, groupID string) bool {
	if companyID != "" && companyID == s.CompanyID {
		return true
	}
	return s.GroupID != "" && groupID == s.GroupID
}

// ValidateOwnership returns ErrUnauthorizedAccess when the resource falls outside the scope
func (s Scope) ValidateOwnership(companyID, groupID string) error {
	if !s.Covers(companyID, groupID) {
		return ErrUnauthorizedAccess
	}
	return nil
}

// ToContext stores the scope on ctx. Only the HTTP layer uses this to hand the
// scope from middleware to handlers; services receive it as an argument.
func ToContext(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// FromContext extracts a scope previously stored with ToContext
func FromContext(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(scopeKey).(Scope)
	if !ok || s.IsEmpty() {
		return Scope{}, ErrMissingScope
	}
	return s, nil
}
