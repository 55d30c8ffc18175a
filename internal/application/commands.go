package application

import (
	"github.com/mantenix/inventory-service/internal/domain"
)

// CreateRequestCommand opens a request for a work order. Source is optional.
type CreateRequestCommand struct {
	WorkOrderID     string
	InventoryItemID string
	Quantity        int64
	Urgency         domain.Urgency
	Source          domain.Location
	Notes           string
}

// ApproveRequestCommand approves a request, optionally for fewer units
type ApproveRequestCommand struct {
	RequestID        string
	QuantityApproved *int64
	Notes            string
}

// ReviewCommand rejects or cancels a request
type ReviewCommand struct {
	RequestID string
	Notes     string
}

// TransferStockCommand is a manual move between two locations
type TransferStockCommand struct {
	InventoryItemID string
	From            domain.Location
	To              domain.Location
	Quantity        int64
	Reason          string
	WorkOrderID     string
}

// RequestDetail is a request with display names for its locations
type RequestDetail struct {
	*domain.InventoryRequest
	SourceLocationName      string `json:"sourceLocationName,omitempty"`
	DestinationLocationName string `json:"destinationLocationName"`
}

// StockView is a stock row with low-stock flags from its item
type StockView struct {
	*domain.InventoryStock
	BelowMinimum      bool `json:"belowMinimum"`
	BelowReorderPoint bool `json:"belowReorderPoint"`
}

func newStockView(stock *domain.InventoryStock, item *domain.InventoryItem) StockView {
	view := StockView{InventoryStock: stock}
	if item != nil {
		view.BelowMinimum, view.BelowReorderPoint = item.StockLevel(stock.Quantity)
	}
	return view
}
