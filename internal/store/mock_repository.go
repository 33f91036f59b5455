// Package store provides an in-memory mock of the Store interface for tests.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Voxel07/inventory/internal/models"
	"github.com/Voxel07/inventory/internal/uuid"
)

// MockStore is an in-memory implementation of Store for testing.
// Errors can be injected per method; call counts are tracked.
type MockStore struct {
	mu      sync.RWMutex
	items   map[string]*models.Item
	stock   map[string]*models.StockEvent
	nextSeq int64

	ListItemsErr        error
	GetItemErr          error
	CreateItemErr       error
	UpdateItemErr       error
	DeleteItemErr       error
	ListStockErr        error
	LatestStockErr      error
	CreateStockErr      error
	DeleteStockErr      error
	LatestStockErrFor   map[string]error // per-item latest lookup failures
	DeleteStockErrFor   map[string]error // per-event deletion failures

	ListItemsCalls   int
	GetItemCalls     int
	CreateItemCalls  int
	UpdateItemCalls  int
	DeleteItemCalls  int
	ListStockCalls   int
	LatestStockCalls int
	CreateStockCalls int
	DeleteStockCalls int
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		items:             make(map[string]*models.Item),
		stock:             make(map[string]*models.StockEvent),
		LatestStockErrFor: make(map[string]error),
		DeleteStockErrFor: make(map[string]error),
	}
}

// SeedItem inserts an item directly, bypassing call accounting.
func (m *MockStore) SeedItem(item *models.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *item
	m.items[item.ID.String()] = &cp
}

// SeedStockEvent inserts a stock event directly, assigning a sequence.
func (m *MockStore) SeedStockEvent(ev *models.StockEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.ID == "" {
		ev.ID = models.UUID(uuid.New())
	}
	m.nextSeq++
	ev.Seq = m.nextSeq
	cp := *ev
	m.stock[cp.ID.String()] = &cp
}

// StockEventCount reports how many stock events remain.
func (m *MockStore) StockEventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stock)
}

func (m *MockStore) ListItems(ctx context.Context, limit int) ([]*models.Item, error) {
	m.mu.Lock()
	m.ListItemsCalls++
	m.mu.Unlock()
	if m.ListItemsErr != nil {
		return nil, m.ListItemsErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []*models.Item
	for _, item := range m.items {
		cp := *item
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt < items[j].CreatedAt
		}
		return items[i].ID < items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MockStore) GetItem(ctx context.Context, id string) (*models.Item, error) {
	m.mu.Lock()
	m.GetItemCalls++
	m.mu.Unlock()
	if m.GetItemErr != nil {
		return nil, m.GetItemErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (m *MockStore) CreateItem(ctx context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateItemCalls++
	if m.CreateItemErr != nil {
		return m.CreateItemErr
	}

	now := time.Now().Unix()
	item.ID = models.UUID(uuid.New())
	item.CreatedAt = now
	item.UpdatedAt = now
	cp := *item
	m.items[item.ID.String()] = &cp
	return nil
}

func (m *MockStore) UpdateItem(ctx context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateItemCalls++
	if m.UpdateItemErr != nil {
		return m.UpdateItemErr
	}

	if _, ok := m.items[item.ID.String()]; !ok {
		return ErrNotExist
	}
	item.Touch()
	cp := *item
	m.items[item.ID.String()] = &cp
	return nil
}

func (m *MockStore) DeleteItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteItemCalls++
	if m.DeleteItemErr != nil {
		return m.DeleteItemErr
	}

	if _, ok := m.items[id]; !ok {
		return ErrNotExist
	}
	delete(m.items, id)
	return nil
}

// eventsForItem returns the item's events newest first.
func (m *MockStore) eventsForItem(itemID string) []*models.StockEvent {
	var events []*models.StockEvent
	for _, ev := range m.stock {
		if ev.ItemID.String() == itemID {
			cp := *ev
			events = append(events, &cp)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[j].Before(events[i])
	})
	return events
}

func (m *MockStore) ListStockEvents(ctx context.Context, itemID string, limit int) ([]*models.StockEvent, error) {
	m.mu.Lock()
	m.ListStockCalls++
	m.mu.Unlock()
	if m.ListStockErr != nil {
		return nil, m.ListStockErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	events := m.eventsForItem(itemID)
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (m *MockStore) LatestStockEvent(ctx context.Context, itemID string) (*models.StockEvent, error) {
	m.mu.Lock()
	m.LatestStockCalls++
	m.mu.Unlock()
	if m.LatestStockErr != nil {
		return nil, m.LatestStockErr
	}
	if err, ok := m.LatestStockErrFor[itemID]; ok {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	events := m.eventsForItem(itemID)
	if len(events) == 0 {
		return nil, nil
	}
	return events[0], nil
}

func (m *MockStore) CreateStockEvent(ctx context.Context, ev *models.StockEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateStockCalls++
	if m.CreateStockErr != nil {
		return m.CreateStockErr
	}

	ev.ID = models.UUID(uuid.New())
	if ev.CreatedAt == 0 {
		ev.CreatedAt = time.Now().Unix()
	}
	m.nextSeq++
	ev.Seq = m.nextSeq
	cp := *ev
	m.stock[ev.ID.String()] = &cp
	return nil
}

func (m *MockStore) DeleteStockEvent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteStockCalls++
	if m.DeleteStockErr != nil {
		return m.DeleteStockErr
	}
	if err, ok := m.DeleteStockErrFor[id]; ok {
		return err
	}

	if _, ok := m.stock[id]; !ok {
		return ErrNotExist
	}
	delete(m.stock, id)
	return nil
}

// Ensure MockStore implements the interfaces at compile time.
var _ Store = (*MockStore)(nil)
