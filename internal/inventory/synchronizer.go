package inventory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Voxel07/inventory/internal/cache"
	apperrors "github.com/Voxel07/inventory/internal/errors"
	"github.com/Voxel07/inventory/internal/feed"
	"github.com/Voxel07/inventory/internal/logging"
	"github.com/Voxel07/inventory/internal/models"
	"github.com/Voxel07/inventory/internal/store"
)

// Synchronizer keeps an in-memory list of items with their latest stock
// consistent with the store, both on explicit loads and as the change
// feed delivers item mutations.
type Synchronizer struct {
	store store.Store
	cache cache.LatestStockCache // may be nil

	mu   sync.RWMutex
	list []ItemWithStock
}

// NewSynchronizer creates a Synchronizer. c may be nil to disable the
// latest-stock cache.
func NewSynchronizer(st store.Store, c cache.LatestStockCache) *Synchronizer {
	return &Synchronizer{store: st, cache: c}
}

// latestStock resolves an item's latest stock event, consulting the
// cache before the store and filling it afterwards.
func (s *Synchronizer) latestStock(ctx context.Context, itemID string) (*models.StockEvent, error) {
	if s.cache != nil {
		ev, ok, err := s.cache.Get(ctx, itemID)
		if err != nil {
			logging.Warn("latest stock cache read failed", map[string]interface{}{
				"item_id": itemID, "error": err.Error(),
			})
		} else if ok {
			return ev, nil
		}
	}

	ev, err := s.store.LatestStockEvent(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if ev != nil && s.cache != nil {
		if err := s.cache.Set(ctx, ev); err != nil {
			logging.Warn("latest stock cache write failed", map[string]interface{}{
				"item_id": itemID, "error": err.Error(),
			})
		}
	}
	return ev, nil
}

// LoadAll fetches up to MaxListItems items and resolves each one's
// latest stock concurrently. A failed per-item lookup degrades that
// item's latest stock to absent; a failed listing aborts the load.
// The result also becomes the new held snapshot.
func (s *Synchronizer) LoadAll(ctx context.Context) ([]ItemWithStock, error) {
	items, err := s.store.ListItems(ctx, MaxListItems)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, "failed to list items", err)
	}

	out := make([]ItemWithStock, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item *models.Item) {
			defer wg.Done()
			latest, err := s.latestStock(ctx, item.ID.String())
			if err != nil {
				logging.Warn("latest stock lookup failed, listing item without stock", map[string]interface{}{
					"item_id": item.ID.String(), "error": err.Error(),
				})
				latest = nil
			}
			out[i] = ItemWithStock{Item: *item, LatestStock: latest}
		}(i, item)
	}
	wg.Wait()

	s.mu.Lock()
	s.list = append([]ItemWithStock(nil), out...)
	s.mu.Unlock()
	return out, nil
}

// Snapshot returns a copy of the currently held list.
func (s *Synchronizer) Snapshot() []ItemWithStock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ItemWithStock(nil), s.list...)
}

// ListEvent is a change-feed event resolved for list application: the
// mutation plus the latest stock looked up for it.
type ListEvent struct {
	Type        feed.EventType
	ID          string
	Item        *models.Item // nil for delete
	LatestStock *models.StockEvent
}

// Apply reduces a list against one resolved event and returns the new
// list. The input list is not mutated.
//
// Create is idempotent against duplicate delivery: an entry whose ID is
// already present leaves the list unchanged. Update replaces the
// matching entry and ignores unknown IDs. Delete removes the matching
// entry. Cross-event ordering stays last-processed-wins.
func Apply(list []ItemWithStock, ev ListEvent) []ItemWithStock {
	switch ev.Type {
	case feed.EventCreate:
		for _, entry := range list {
			if entry.Item.ID.String() == ev.ID {
				return list
			}
		}
		out := append([]ItemWithStock(nil), list...)
		return append(out, ItemWithStock{Item: *ev.Item, LatestStock: ev.LatestStock})

	case feed.EventUpdate:
		out := append([]ItemWithStock(nil), list...)
		for i, entry := range out {
			if entry.Item.ID.String() == ev.ID {
				out[i] = ItemWithStock{Item: *ev.Item, LatestStock: ev.LatestStock}
			}
		}
		return out

	case feed.EventDelete:
		out := make([]ItemWithStock, 0, len(list))
		for _, entry := range list {
			if entry.Item.ID.String() != ev.ID {
				out = append(out, entry)
			}
		}
		return out
	}
	return list
}

// Run subscribes to the item change feed and keeps the held snapshot
// consistent until ctx is done, then unsubscribes. Callers run it in
// its own goroutine for the lifetime of the list view; letting it leak
// past that keeps stale updates flowing into a dead snapshot.
func (s *Synchronizer) Run(ctx context.Context, f Feed) {
	unsubscribe := f.Subscribe(feed.CollectionItems, func(ev feed.Event) {
		s.handleEvent(ctx, ev)
	})
	<-ctx.Done()
	unsubscribe()
}

// handleEvent resolves one raw feed event and applies it to the snapshot.
// Create and update re-fetch the item's latest stock before applying.
func (s *Synchronizer) handleEvent(ctx context.Context, ev feed.Event) {
	le := ListEvent{Type: ev.Type, ID: ev.ID}

	if ev.Type == feed.EventCreate || ev.Type == feed.EventUpdate {
		item := itemFromPayload(ev.Payload)
		if item == nil {
			var err error
			item, err = s.store.GetItem(ctx, ev.ID)
			if err != nil || item == nil {
				logging.Warn("feed event for unresolvable item dropped", map[string]interface{}{
					"item_id": ev.ID, "type": string(ev.Type),
				})
				return
			}
		}
		le.Item = item

		latest, err := s.latestStock(ctx, ev.ID)
		if err != nil {
			logging.Warn("latest stock lookup failed on feed event", map[string]interface{}{
				"item_id": ev.ID, "error": err.Error(),
			})
			latest = nil
		}
		le.LatestStock = latest
	}

	s.mu.Lock()
	s.list = Apply(s.list, le)
	s.mu.Unlock()
}

// itemFromPayload recovers the item carried in a feed event payload.
func itemFromPayload(payload interface{}) *models.Item {
	switch v := payload.(type) {
	case *models.Item:
		cp := *v
		return &cp
	case models.Item:
		return &v
	case []byte:
		var item models.Item
		if err := json.Unmarshal(v, &item); err == nil && item.ID != "" {
			return &item
		}
	}
	return nil
}

// DeleteItem removes an item and all its stock events. The stock events
// are listed (up to MaxStockFetch) and deleted concurrently first; if
// any deletion fails the item is left in place and a store error is
// returned. If the deletions succeed but the item deletion then fails,
// the store is left inconsistent and a partial failure is reported; no
// rollback is attempted.
func (s *Synchronizer) DeleteItem(ctx context.Context, id string) error {
	events, err := s.store.ListStockEvents(ctx, id, MaxStockFetch)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, "failed to list stock events for delete", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, ev := range events {
		wg.Add(1)
		go func(eventID string) {
			defer wg.Done()
			if err := s.store.DeleteStockEvent(ctx, eventID); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(ev.ID.String())
	}
	wg.Wait()
	if firstErr != nil {
		return apperrors.Wrap(apperrors.ErrStore, "failed to delete stock events", firstErr)
	}

	if err := s.store.DeleteItem(ctx, id); err != nil {
		return apperrors.Wrap(apperrors.ErrPartialFailure,
			"stock events deleted but item deletion failed", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			logging.Warn("latest stock cache invalidation failed", map[string]interface{}{
				"item_id": id, "error": err.Error(),
			})
		}
	}
	return nil
}
