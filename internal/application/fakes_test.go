package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/tenant"
)

type txKey struct{}

// memoryStore backs every repository port. Transactions are serialised and
// roll back by restoring a snapshot taken when they began.
type memoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	items     map[string]domain.InventoryItem
	stock     map[string]domain.InventoryStock
	movements map[string]domain.InventoryMovement
	requests  map[string]domain.InventoryRequest
	events    []domain.DomainEvent

	failIncrement error
	failAppend    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		items:     map[string]domain.InventoryItem{},
		stock:     map[string]domain.InventoryStock{},
		movements: map[string]domain.InventoryMovement{},
		requests:  map[string]domain.InventoryRequest{},
	}
}

type snapshot struct {
	items     map[string]domain.InventoryItem
	stock     map[string]domain.InventoryStock
	movements map[string]domain.InventoryMovement
	requests  map[string]domain.InventoryRequest
	events    []domain.DomainEvent
}

func (s *memoryStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		items:     make(map[string]domain.InventoryItem, len(s.items)),
		stock:     make(map[string]domain.InventoryStock, len(s.stock)),
		movements: make(map[string]domain.InventoryMovement, len(s.movements)),
		requests:  make(map[string]domain.InventoryRequest, len(s.requests)),
		events:    append([]domain.DomainEvent(nil), s.events...),
	}
	for k, v := range s.items {
		snap.items[k] = v
	}
	for k, v := range s.stock {
		snap.stock[k] = v
	}
	for k, v := range s.movements {
		snap.movements[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	return snap
}

func (s *memoryStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items, s.stock, s.movements, s.requests, s.events = snap.items, snap.stock, snap.movements, snap.requests, snap.events
}

func (s *memoryStore) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memoryStore) Publish(_ context.Context, events ...domain.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *memoryStore) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, len(s.events))
	for i, e := range s.events {
		types[i] = e.EventType()
	}
	return types
}

func (s *memoryStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

func (s *memoryStore) allStock() []domain.InventoryStock {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]domain.InventoryStock, 0, len(s.stock))
	for _, row := range s.stock {
		rows = append(rows, row)
	}
	return rows
}

func (s *memoryStore) totalQuantity(itemID string) int64 {
	var total int64
	for _, row := range s.allStock() {
		if row.InventoryItemID == itemID {
			total += row.Quantity
		}
	}
	return total
}

func page[T any](rows []T, p domain.Page) []T {
	start := p.Offset()
	if start >= int64(len(rows)) {
		return []T{}
	}
	end := int64(len(rows))
	if p.Size > 0 && start+p.Size < end {
		end = start + p.Size
	}
	return rows[start:end]
}

// items

type memoryItems struct{ s *memoryStore }

func (r memoryItems) Create(_ context.Context, item *domain.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.items {
		if existing.CompanyID == item.CompanyID && existing.Code == item.Code {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateCode, item.Code)
		}
	}
	r.s.items[item.ID] = *item
	return nil
}

func (r memoryItems) Update(_ context.Context, item *domain.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[item.ID]; !ok {
		return domain.NewNotFoundError("inventory item", item.ID)
	}
	r.s.items[item.ID] = *item
	return nil
}

func (r memoryItems) FindByID(_ context.Context, id string) (*domain.InventoryItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("inventory item", id)
	}
	return &item, nil
}

func (r memoryItems) List(_ context.Context, f domain.ItemFilter, scope tenant.Scope, p domain.Page) ([]*domain.InventoryItem, int64, error) {
	pred := domain.BuildPredicate(f, scope)
	r.s.mu.Lock()
	var out []*domain.InventoryItem
	for _, item := range r.s.items {
		item := item
		if pred.Matches(itemField(&item)) {
			out = append(out, &item)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, p), int64(len(out)), nil
}

func itemField(i *domain.InventoryItem) domain.FieldGetter {
	return func(field string) any {
		switch field {
		case "companyId":
			return i.CompanyID
		case "companyGroupId":
			return i.CompanyGroupID
		case "code":
			return i.Code
		case "name":
			return i.Name
		case "category":
			return i.Category
		case "isActive":
			return i.IsActive
		}
		return nil
	}
}

// stock

type memoryStock struct{ s *memoryStore }

func stockKey(itemID string, loc domain.Location) string {
	return itemID + "|" + loc.String()
}

func (r memoryStock) Get(_ context.Context, itemID string, loc domain.Location) (*domain.InventoryStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.stock[stockKey(itemID, loc)]
	if !ok {
		return nil, domain.NewNotFoundError("inventory stock", stockKey(itemID, loc))
	}
	return &row, nil
}

func (r memoryStock) FindAllForItem(_ context.Context, itemID string) ([]*domain.InventoryStock, error) {
	return r.filter(func(row domain.InventoryStock) bool { return row.InventoryItemID == itemID }), nil
}

func (r memoryStock) FindByLocation(_ context.Context, loc domain.Location) ([]*domain.InventoryStock, error) {
	return r.filter(func(row domain.InventoryStock) bool { return row.Location().SameAs(loc) }), nil
}

func (r memoryStock) filter(keep func(domain.InventoryStock) bool) []*domain.InventoryStock {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.InventoryStock
	for _, row := range r.s.stock {
		row := row
		if keep(row) {
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out
}

func (r memoryStock) Increment(_ context.Context, itemID string, loc domain.Location, name string, qty int64) (*domain.InventoryStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failIncrement != nil {
		return nil, r.s.failIncrement
	}
	key := stockKey(itemID, loc)
	row, ok := r.s.stock[key]
	if !ok {
		row = *domain.NewInventoryStock(itemID, loc, name, testNow)
	}
	if err := row.Increment(qty, testNow); err != nil {
		return nil, err
	}
	r.s.stock[key] = row
	return &row, nil
}

func (r memoryStock) Decrement(_ context.Context, itemID string, loc domain.Location, qty int64) (*domain.InventoryStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := stockKey(itemID, loc)
	row, ok := r.s.stock[key]
	if !ok {
		return nil, domain.NewInsufficientStockError(itemID, loc, qty, 0)
	}
	if err := row.Decrement(qty, testNow); err != nil {
		return nil, err
	}
	r.s.stock[key] = row
	return &row, nil
}

func (r memoryStock) Save(_ context.Context, stock *domain.InventoryStock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := stockKey(stock.InventoryItemID, stock.Location())
	stored, ok := r.s.stock[key]
	switch {
	case !ok && stock.Version != 1:
		return domain.ErrConcurrentModification
	case ok && stored.Version != stock.Version-1:
		return domain.ErrConcurrentModification
	}
	r.s.stock[key] = *stock
	return nil
}

// movements

type memoryMovements struct{ s *memoryStore }

func (r memoryMovements) Append(_ context.Context, m *domain.InventoryMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAppend != nil {
		return r.s.failAppend
	}
	if m.RequestID != "" {
		for _, existing := range r.s.movements {
			if existing.RequestID == m.RequestID {
				return fmt.Errorf("%w: transfer already recorded for request %s", domain.ErrRequestNotEditable, m.RequestID)
			}
		}
	}
	r.s.movements[m.ID] = *m
	return nil
}

func (r memoryMovements) FindByID(_ context.Context, id string) (*domain.InventoryMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.movements[id]
	if !ok {
		return nil, domain.NewNotFoundError("inventory movement", id)
	}
	return &m, nil
}

func (r memoryMovements) FindTransferByRequest(_ context.Context, requestID string) (*domain.InventoryMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.movements {
		if m.RequestID == requestID && m.Type == domain.MovementTransfer {
			return &m, nil
		}
	}
	return nil, domain.NewNotFoundError("inventory movement", requestID)
}

func (r memoryMovements) List(_ context.Context, f domain.MovementFilter, scope tenant.Scope, p domain.Page) ([]*domain.InventoryMovement, int64, error) {
	pred := domain.BuildPredicate(f, scope)
	r.s.mu.Lock()
	var out []*domain.InventoryMovement
	for _, m := range r.s.movements {
		m := m
		if pred.Matches(movementField(&m)) {
			out = append(out, &m)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, p), int64(len(out)), nil
}

func movementField(m *domain.InventoryMovement) domain.FieldGetter {
	return func(field string) any {
		switch field {
		case "type":
			return m.Type
		case "inventoryItemId":
			return m.InventoryItemID
		case "companyId":
			return m.CompanyID
		case "companyGroupId":
			return m.CompanyGroupID
		case "fromCompanyId":
			return m.FromCompanyID
		case "toCompanyId":
			return m.ToCompanyID
		case "workOrderId":
			return m.WorkOrderID
		case "requestId":
			return m.RequestID
		case "createdAt":
			return m.CreatedAt
		}
		return nil
	}
}

// requests

type memoryRequests struct{ s *memoryStore }

func cloneRequest(r domain.InventoryRequest) domain.InventoryRequest {
	r.StatusHistory = append([]domain.StatusChange(nil), r.StatusHistory...)
	r.ClearDomainEvents()
	return r
}

func (r memoryRequests) Create(_ context.Context, req *domain.InventoryRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.requests[req.ID] = cloneRequest(*req)
	return nil
}

func (r memoryRequests) Update(_ context.Context, req *domain.InventoryRequest, pre domain.Precondition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.requests[req.ID]
	if !ok {
		return domain.NewNotFoundError("inventory request", req.ID)
	}
	if stored.Status != pre.Status || stored.Version != pre.Version {
		return domain.ErrConcurrentModification
	}
	r.s.requests[req.ID] = cloneRequest(*req)
	return nil
}

func (r memoryRequests) FindByID(_ context.Context, id string) (*domain.InventoryRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.requests[id]
	if !ok {
		return nil, domain.NewNotFoundError("inventory request", id)
	}
	req := cloneRequest(stored)
	return &req, nil
}

func (r memoryRequests) FindByStatus(_ context.Context, status domain.RequestStatus, limit int64) ([]*domain.InventoryRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.InventoryRequest
	for _, stored := range r.s.requests {
		if stored.Status == status && int64(len(out)) < limit {
			req := cloneRequest(stored)
			out = append(out, &req)
		}
	}
	return out, nil
}

func (r memoryRequests) List(_ context.Context, f domain.RequestFilter, scope tenant.Scope, p domain.Page) ([]*domain.InventoryRequest, int64, error) {
	pred := domain.BuildPredicate(f, scope)
	r.s.mu.Lock()
	var out []*domain.InventoryRequest
	for _, stored := range r.s.requests {
		req := cloneRequest(stored)
		if pred.Matches(requestField(&req)) {
			out = append(out, &req)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, p), int64(len(out)), nil
}

func requestField(r *domain.InventoryRequest) domain.FieldGetter {
	return func(field string) any {
		switch field {
		case "companyId":
			return r.CompanyID
		case "companyGroupId":
			return r.CompanyGroupID
		case "status":
			return r.Status
		case "urgency":
			return r.Urgency
		case "inventoryItemId":
			return r.InventoryItemID
		case "requestedBy":
			return r.RequestedBy
		case "workOrderId":
			return r.WorkOrderID
		case "itemCode":
			return r.ItemCode
		case "itemName":
			return r.ItemName
		case "notes":
			return r.Notes
		case "reviewNotes":
			return r.ReviewNotes
		case "createdAt":
			return r.CreatedAt
		}
		return nil
	}
}

// directory

type fakeDirectory struct {
	workOrders map[string]*domain.DirectoryEntry
	sites      map[string]*domain.DirectoryEntry
	companies  map[string]*domain.DirectoryEntry
	users      map[string]*domain.DirectoryEntry
	down       error
}

func lookup(entries map[string]*domain.DirectoryEntry, resource, id string) (*domain.DirectoryEntry, error) {
	entry, ok := entries[id]
	if !ok {
		return nil, domain.NewNotFoundError(resource, id)
	}
	return entry, nil
}

func (d *fakeDirectory) WorkOrder(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	return lookup(d.workOrders, "work order", id)
}

func (d *fakeDirectory) Site(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	if d.down != nil {
		return nil, d.down
	}
	return lookup(d.sites, "site", id)
}

func (d *fakeDirectory) Company(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	if d.down != nil {
		return nil, d.down
	}
	return lookup(d.companies, "company", id)
}

func (d *fakeDirectory) User(_ context.Context, id string) (*domain.DirectoryEntry, error) {
	return lookup(d.users, "user", id)
}

// authorization

type fakeAuthorizer map[string][]string

func (a fakeAuthorizer) HasCapability(_ context.Context, session domain.Session, capability string) (bool, error) {
	for _, c := range a[session.Role] {
		if c == capability || c == "*" {
			return true, nil
		}
	}
	return false, nil
}

func (a fakeAuthorizer) RequireCapability(ctx context.Context, session domain.Session, capability string) error {
	ok, err := a.HasCapability(ctx, session, capability)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: role %s lacks %s", domain.ErrForbidden, session.Role, capability)
	}
	return nil
}

// metrics

type recordingMetrics struct {
	mu          sync.Mutex
	transfers   map[string]int
	transitions map[string]int
	reconciled  int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{transfers: map[string]int{}, transitions: map[string]int{}}
}

func (m *recordingMetrics) RecordTransfer(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[outcome]++
}

func (m *recordingMetrics) RecordAdjustment(int64) {}

func (m *recordingMetrics) RecordRequestTransition(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[status]++
}

func (m *recordingMetrics) RecordReconciled(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciled += count
}
