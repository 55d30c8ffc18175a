package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is a catalog entry owned by one company. Items are never
// deleted once created; Deactivate hides them from new requests.
type InventoryItem struct {
	ID             string          `json:"id"`
	CompanyID      string          `json:"companyId"`
	CompanyGroupID string          `json:"companyGroupId,omitempty"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Category       string          `json:"category,omitempty"`
	Unit           string          `json:"unit"`
	MinStock       int64           `json:"minStock"`
	MaxStock       int64           `json:"maxStock"`
	ReorderPoint   int64           `json:"reorderPoint"`
	UnitCost       decimal.Decimal `json:"unitCost"`
	LastCost       decimal.Decimal `json:"lastCost"`
	AverageCost    decimal.Decimal `json:"averageCost"`
	IsActive       bool            `json:"isActive"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ItemAttributes are the mutable catalog fields
type ItemAttributes struct {
	Code         string
	Name         string
	Description  string
	Category     string
	Unit         string
	MinStock     int64
	MaxStock     int64
	ReorderPoint int64
	UnitCost     decimal.Decimal
}

// DefaultUnit is used when an item is created without a unit
const DefaultUnit = "unit"

// NewInventoryItem creates an active item for a company
func NewInventoryItem(companyID, groupID, createdBy string, attrs ItemAttributes, now time.Time) (*InventoryItem, error) {
	item := &InventoryItem{
		ID:             uuid.NewString(),
		CompanyID:      companyID,
		CompanyGroupID: groupID,
		IsActive:       true,
		CreatedBy:      createdBy,
		CreatedAt:      now,
	}
	if err := item.apply(attrs, now); err != nil {
		return nil, err
	}
	item.LastCost = item.UnitCost
	item.AverageCost = item.UnitCost
	return item, nil
}

// Update replaces the catalog attributes. A changed unit cost becomes the
// last cost and is folded into the running average.
func (i *InventoryItem) Update(attrs ItemAttributes, now time.Time) error {
	previous := i.UnitCost
	if err := i.apply(attrs, now); err != nil {
		return err
	}
	if !i.UnitCost.Equal(previous) {
		i.LastCost = i.UnitCost
		i.AverageCost = i.AverageCost.Add(i.UnitCost).Div(decimal.NewFromInt(2)).Round(4)
	}
	return nil
}

func (i *InventoryItem) apply(attrs ItemAttributes, now time.Time) error {
	code := strings.TrimSpace(attrs.Code)
	name := strings.TrimSpace(attrs.Name)
	if code == "" || name == "" {
		return fmt.Errorf("%w: code and name are required", ErrInvalidInput)
	}
	if attrs.MinStock < 0 || attrs.MaxStock < 0 || attrs.ReorderPoint < 0 {
		return fmt.Errorf("%w: stock thresholds must not be negative", ErrInvalidQuantity)
	}
	if attrs.MaxStock > 0 && attrs.MinStock > attrs.MaxStock {
		return fmt.Errorf("%w: minStock exceeds maxStock", ErrInvalidQuantity)
	}
	if attrs.UnitCost.IsNegative() {
		return fmt.Errorf("%w: unitCost must not be negative", ErrInvalidInput)
	}

	unit := strings.TrimSpace(attrs.Unit)
	if unit == "" {
		unit = DefaultUnit
	}

	i.Code = strings.ToUpper(code)
	i.Name = name
	i.Description = attrs.Description
	i.Category = attrs.Category
	i.Unit = unit
	i.MinStock = attrs.MinStock
	i.MaxStock = attrs.MaxStock
	i.ReorderPoint = attrs.ReorderPoint
	i.UnitCost = attrs.UnitCost
	i.UpdatedAt = now
	return nil
}

// Deactivate soft-deletes the item
func (i *InventoryItem) Deactivate(now time.Time) {
	i.IsActive = false
	i.UpdatedAt = now
}

// StockLevel reports whether qty is below the minimum and at or below the reorder point.
// Zero thresholds are treated as unset.
func (i *InventoryItem) StockLevel(qty int64) (belowMinimum, belowReorderPoint bool) {
	belowMinimum = i.MinStock > 0 && qty < i.MinStock
	belowReorderPoint = i.ReorderPoint > 0 && qty <= i.ReorderPoint
	return belowMinimum, belowReorderPoint
}
