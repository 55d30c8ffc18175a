package domain

import "github.com/mantenix/inventory-service/pkg/tenant"

// Capability names checked before each mutating operation
const (
	CapCreateItem        = "CREATE_INVENTORY_ITEM"
	CapUpdateItem        = "UPDATE_INVENTORY_ITEM"
	CapDeleteItem        = "DELETE_INVENTORY_ITEM"
	CapAdjustStock       = "ADJUST_INVENTORY_STOCK"
	CapTransferStock     = "TRANSFER_INVENTORY_STOCK"
	CapCreateRequest     = "CREATE_INVENTORY_REQUEST"
	CapUpdateRequest     = "UPDATE_INVENTORY_REQUEST"
	CapApproveRequest    = "APPROVE_INVENTORY_REQUEST"
	CapRejectRequest     = "REJECT_INVENTORY_REQUEST"
	CapDeleteRequest     = "DELETE_INVENTORY_REQUEST"
	CapDeliverFromSource = "DELIVER_FROM_WAREHOUSE"
	CapReceiveAtDest     = "RECEIVE_AT_DESTINATION"
	CapConfirmReceipt    = "CONFIRM_INVENTORY_RECEIPT"
)

// Session identifies the acting user
type Session struct {
	UserID         string
	Role           string
	CompanyID      string
	CompanyGroupID string
}

// Scope returns the tenant scope the session may read
func (s Session) Scope() tenant.Scope {
	return tenant.NewScope(s.CompanyID, s.CompanyGroupID)
}

// DirectoryEntry is a read-only record from the work order, site, company or
// user directory. Optional fields are empty when not applicable.
type DirectoryEntry struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SiteID         string `json:"siteId,omitempty"`
	CompanyID      string `json:"companyId,omitempty"`
	CompanyGroupID string `json:"companyGroupId,omitempty"`
}
