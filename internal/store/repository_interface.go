// Package store provides repository interfaces for the persistence surface.
package store

import (
	"context"

	"github.com/Voxel07/inventory/internal/models"
)

// ItemRepository defines operations for item persistence.
// This interface allows mocking for testing.
type ItemRepository interface {
	// ListItems returns up to limit items in creation order.
	ListItems(ctx context.Context, limit int) ([]*models.Item, error)

	// GetItem retrieves an item by ID, or (nil, nil) when absent.
	GetItem(ctx context.Context, id string) (*models.Item, error)

	// CreateItem creates a new item and assigns its ID.
	CreateItem(ctx context.Context, item *models.Item) error

	// UpdateItem updates an existing item's fields.
	UpdateItem(ctx context.Context, item *models.Item) error

	// DeleteItem deletes an item by ID.
	DeleteItem(ctx context.Context, id string) error
}

// StockEventRepository defines operations for stock event persistence.
type StockEventRepository interface {
	// ListStockEvents returns up to limit events for an item, newest first.
	ListStockEvents(ctx context.Context, itemID string, limit int) ([]*models.StockEvent, error)

	// LatestStockEvent returns the newest event for an item, or (nil, nil).
	LatestStockEvent(ctx context.Context, itemID string) (*models.StockEvent, error)

	// CreateStockEvent appends a new stock event.
	CreateStockEvent(ctx context.Context, ev *models.StockEvent) error

	// DeleteStockEvent deletes a single stock event by ID.
	DeleteStockEvent(ctx context.Context, id string) error
}

// Store combines the repositories the inventory services need.
type Store interface {
	ItemRepository
	StockEventRepository
}

// Ensure *Repository implements the interfaces at compile time.
var (
	_ ItemRepository       = (*Repository)(nil)
	_ StockEventRepository = (*Repository)(nil)
	_ Store                = (*Repository)(nil)
)
