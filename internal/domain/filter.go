package domain

import (
	"strings"
	"time"

	"github.com/mantenix/inventory-service/pkg/tenant"
)

// Filter is an optional-field query over one collection
type Filter interface {
	clauses() []Predicate
}

// BuildPredicate combines the set fields of f with the tenant scope. Unset
// fields are ignored; the scope clause is always present.
func BuildPredicate(f Filter, scope tenant.Scope) Predicate {
	return All(append([]Predicate{ScopePredicate(scope)}, f.clauses()...)...)
}

// ScopePredicate restricts results to the company, or to the whole group when
// the scope has one.
func ScopePredicate(scope tenant.Scope) Predicate {
	if scope.HasGroup() {
		return Any(Eq("companyId", scope.CompanyID), Eq("companyGroupId", scope.GroupID))
	}
	return Eq("companyId", scope.CompanyID)
}

// RequestFilter selects inventory requests
type RequestFilter struct {
	Statuses        []RequestStatus
	Urgency         Urgency
	InventoryItemID string
	RequestedBy     string
	WorkOrderID     string
	From            *time.Time
	To              *time.Time
	Search          string
}

func (f RequestFilter) clauses() []Predicate {
	var ps []Predicate
	if len(f.Statuses) == 1 {
		ps = append(ps, Eq("status", f.Statuses[0]))
	} else if len(f.Statuses) > 1 {
		values := make([]any, len(f.Statuses))
		for i, s := range f.Statuses {
			values[i] = s
		}
		ps = append(ps, In("status", values...))
	}
	if f.Urgency != "" {
		ps = append(ps, Eq("urgency", f.Urgency))
	}
	if f.InventoryItemID != "" {
		ps = append(ps, Eq("inventoryItemId", f.InventoryItemID))
	}
	if f.RequestedBy != "" {
		ps = append(ps, Eq("requestedBy", f.RequestedBy))
	}
	if f.WorkOrderID != "" {
		ps = append(ps, Eq("workOrderId", f.WorkOrderID))
	}
	ps = append(ps, dateRange("createdAt", f.From, f.To)...)
	if text := strings.TrimSpace(f.Search); text != "" {
		ps = append(ps, Any(
			Contains("itemCode", text),
			Contains("itemName", text),
			Contains("notes", text),
			Contains("reviewNotes", text),
			Eq("workOrderId", text),
		))
	}
	return ps
}

// MovementFilter selects movements. CompanyID matches the causing tenant or
// either side of the movement.
type MovementFilter struct {
	Type            MovementType
	InventoryItemID string
	CompanyID       string
	WorkOrderID     string
	RequestID       string
	From            *time.Time
	To              *time.Time
}

func (f MovementFilter) clauses() []Predicate {
	var ps []Predicate
	if f.Type != "" {
		ps = append(ps, Eq("type", f.Type))
	}
	if f.InventoryItemID != "" {
		ps = append(ps, Eq("inventoryItemId", f.InventoryItemID))
	}
	if f.CompanyID != "" {
		ps = append(ps, Any(
			Eq("companyId", f.CompanyID),
			Eq("fromCompanyId", f.CompanyID),
			Eq("toCompanyId", f.CompanyID),
		))
	}
	if f.WorkOrderID != "" {
		ps = append(ps, Eq("workOrderId", f.WorkOrderID))
	}
	if f.RequestID != "" {
		ps = append(ps, Eq("requestId", f.RequestID))
	}
	return append(ps, dateRange("createdAt", f.From, f.To)...)
}

// ItemFilter selects catalog items
type ItemFilter struct {
	Search   string
	Category string
	IsActive *bool
}

func (f ItemFilter) clauses() []Predicate {
	var ps []Predicate
	if text := strings.TrimSpace(f.Search); text != "" {
		ps = append(ps, Any(Contains("code", text), Contains("name", text)))
	}
	if f.Category != "" {
		ps = append(ps, Eq("category", f.Category))
	}
	if f.IsActive != nil {
		ps = append(ps, Eq("isActive", *f.IsActive))
	}
	return ps
}

func dateRange(field string, from, to *time.Time) []Predicate {
	var ps []Predicate
	if from != nil {
		ps = append(ps, Gte(field, *from))
	}
	if to != nil {
		ps = append(ps, Lte(field, *to))
	}
	return ps
}
