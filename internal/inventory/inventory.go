// Package inventory implements the item list synchronizer, the entry
// form operations, and the item detail loader on top of the store and
// the change feed.
package inventory

import (
	"github.com/Voxel07/inventory/internal/feed"
	"github.com/Voxel07/inventory/internal/models"
)

// Fetch caps, matching what the store backends accept per query.
const (
	// MaxListItems bounds the top-level item listing.
	MaxListItems = 1000
	// MaxStockFetch bounds stock history fetches and the delete cascade.
	MaxStockFetch = 5000
)

// ItemWithStock is the list projection: an item plus its latest stock
// event, or nil when the item has no stock history (or its lookup failed).
type ItemWithStock struct {
	Item        models.Item        `json:"item"`
	LatestStock *models.StockEvent `json:"latest_stock,omitempty"`
}

// StockValue returns the latest stock count, or 0 when absent.
func (iw ItemWithStock) StockValue() int {
	if iw.LatestStock == nil {
		return 0
	}
	return iw.LatestStock.StockValue
}

// Feed is the subscription surface the synchronizer needs from the
// change feed hub.
type Feed interface {
	Subscribe(collection string, handler feed.Handler) func()
}
