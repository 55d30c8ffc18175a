package cloudevents

import (
	"encoding/json"
	"time"
)

// Event types emitted by the inventory service
const (
	RequestCreated   = "inventory.request.created"
	RequestApproved  = "inventory.request.approved"
	RequestRejected  = "inventory.request.rejected"
	RequestCancelled = "inventory.request.cancelled"
	RequestInTransit = "inventory.request.dispatched"
	RequestReceived  = "inventory.request.received"
	RequestDelivered = "inventory.request.delivered"

	StockTransferred = "inventory.stock.transferred"
	StockAdjusted    = "inventory.stock.adjusted"
)

// SourceInventory is the CloudEvents source of this service
const SourceInventory = "/mantenix/inventory-service"

// Extension attribute names, also used as ce- prefixed Kafka headers
const (
	ExtCorrelationID  = "correlationid"
	ExtCompanyID      = "companyid"
	ExtCompanyGroupID = "companygroupid"
	ExtTraceParent    = "traceparent"
	ExtTraceState     = "tracestate"
)

// Event is a CloudEvents v1.0 envelope in structured JSON mode
type Event struct {
	SpecVersion     string          `json:"specversion"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	ID              string          `json:"id"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`

	CorrelationID  string `json:"correlationid,omitempty"`
	CompanyID      string `json:"companyid,omitempty"`
	CompanyGroupID string `json:"companygroupid,omitempty"`
	TraceParent    string `json:"traceparent,omitempty"`
	TraceState     string `json:"tracestate,omitempty"`
}

// Headers returns the binary-mode ce- headers for the envelope attributes
func (e *Event) Headers() map[string]string {
	h := map[string]string{
		"ce-specversion": e.SpecVersion,
		"ce-type":        e.Type,
		"ce-source":      e.Source,
		"ce-id":          e.ID,
		"ce-time":        e.Time.Format(time.RFC3339Nano),
		"content-type":   e.DataContentType,
	}
	if e.Subject != "" {
		h["ce-subject"] = e.Subject
	}
	for k, v := range map[string]string{
		ExtCorrelationID:  e.CorrelationID,
		ExtCompanyID:      e.CompanyID,
		ExtCompanyGroupID: e.CompanyGroupID,
		ExtTraceParent:    e.TraceParent,
		ExtTraceState:     e.TraceState,
	} {
		if v != "" {
			h["ce-"+k] = v
		}
	}
	return h
}
