// Package inventory tests for the item list synchronizer.
package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Voxel07/inventory/internal/errors"
	"github.com/Voxel07/inventory/internal/feed"
	"github.com/Voxel07/inventory/internal/models"
	"github.com/Voxel07/inventory/internal/store"
)

func entry(id string, stock int) ItemWithStock {
	return ItemWithStock{
		Item:        models.Item{ID: models.UUID(id), Name: "Item " + id},
		LatestStock: &models.StockEvent{ItemID: models.UUID(id), StockValue: stock},
	}
}

func TestApply_CreateAppends(t *testing.T) {
	list := []ItemWithStock{entry("a", 1)}
	item := models.Item{ID: "b", Name: "Item b"}

	got := Apply(list, ListEvent{Type: feed.EventCreate, ID: "b", Item: &item})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].Item.ID != "b" {
		t.Errorf("appended id = %s, want b", got[1].Item.ID)
	}
}

func TestApply_CreateIdempotent(t *testing.T) {
	list := []ItemWithStock{entry("a", 1)}
	item := models.Item{ID: "a", Name: "Item a"}
	ev := ListEvent{Type: feed.EventCreate, ID: "a", Item: &item}

	got := Apply(Apply(list, ev), ev)
	if len(got) != 1 {
		t.Errorf("len = %d, want 1 (duplicate create delivery must not duplicate the entry)", len(got))
	}
}

func TestApply_UpdateReplaces(t *testing.T) {
	list := []ItemWithStock{entry("a", 1), entry("b", 2)}
	item := models.Item{ID: "b", Name: "Renamed"}
	latest := &models.StockEvent{ItemID: "b", StockValue: 9}

	got := Apply(list, ListEvent{Type: feed.EventUpdate, ID: "b", Item: &item, LatestStock: latest})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].Item.Name != "Renamed" || got[1].StockValue() != 9 {
		t.Errorf("replaced entry = %+v, want Renamed/9", got[1])
	}
	if got[0].Item.ID != "a" {
		t.Error("unrelated entry was touched")
	}
}

func TestApply_UpdateUnknownIDIsNoop(t *testing.T) {
	list := []ItemWithStock{entry("a", 1)}
	item := models.Item{ID: "z", Name: "Ghost"}

	got := Apply(list, ListEvent{Type: feed.EventUpdate, ID: "z", Item: &item})
	if len(got) != 1 || got[0].Item.ID != "a" {
		t.Errorf("list changed on update for unknown id: %+v", got)
	}
}

func TestApply_DeleteRemoves(t *testing.T) {
	list := []ItemWithStock{entry("a", 1), entry("b", 2)}

	got := Apply(list, ListEvent{Type: feed.EventDelete, ID: "a"})
	if len(got) != 1 || got[0].Item.ID != "b" {
		t.Errorf("got %+v, want only b", got)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	list := []ItemWithStock{entry("a", 1)}
	item := models.Item{ID: "a", Name: "Changed"}

	Apply(list, ListEvent{Type: feed.EventUpdate, ID: "a", Item: &item})
	if list[0].Item.Name != "Item a" {
		t.Error("input list was mutated")
	}
}

func TestLoadAll(t *testing.T) {
	mock := store.NewMockStore()
	a := &models.Item{Name: "Alpha"}
	mock.CreateItem(context.Background(), a)
	b := &models.Item{Name: "Beta"}
	mock.CreateItem(context.Background(), b)
	mock.SeedStockEvent(&models.StockEvent{ItemID: a.ID, StockValue: 10, CreatedAt: 100})
	mock.SeedStockEvent(&models.StockEvent{ItemID: a.ID, StockValue: 15, CreatedAt: 200})

	sync := NewSynchronizer(mock, nil)
	list, err := sync.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}

	byID := map[string]ItemWithStock{}
	for _, e := range list {
		byID[e.Item.ID.String()] = e
	}
	if got := byID[a.ID.String()]; got.StockValue() != 15 {
		t.Errorf("alpha stock = %d, want 15 (latest event)", got.StockValue())
	}
	if got := byID[b.ID.String()]; got.LatestStock != nil {
		t.Errorf("beta latest = %+v, want nil (no history)", got.LatestStock)
	}
}

func TestLoadAll_DegradedLookup(t *testing.T) {
	mock := store.NewMockStore()
	a := &models.Item{Name: "Alpha"}
	mock.CreateItem(context.Background(), a)
	mock.SeedStockEvent(&models.StockEvent{ItemID: a.ID, StockValue: 10, CreatedAt: 100})
	mock.LatestStockErrFor[a.ID.String()] = errors.New("backend hiccup")

	sync := NewSynchronizer(mock, nil)
	list, err := sync.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v (a single lookup failure must not fail the load)", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	if list[0].LatestStock != nil {
		t.Errorf("latest = %+v, want nil (degraded to absent)", list[0].LatestStock)
	}
}

func TestLoadAll_ListErrorAborts(t *testing.T) {
	mock := store.NewMockStore()
	mock.ListItemsErr = errors.New("connection refused")

	sync := NewSynchronizer(mock, nil)
	_, err := sync.LoadAll(context.Background())
	if !apperrors.Is(err, apperrors.ErrStore) {
		t.Errorf("err = %v, want STORE_ERROR", err)
	}
}

func TestDeleteItem_Cascade(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()
	item := &models.Item{Name: "Widget"}
	mock.CreateItem(ctx, item)
	for i := 0; i < 3; i++ {
		mock.SeedStockEvent(&models.StockEvent{ItemID: item.ID, StockValue: i, CreatedAt: int64(i)})
	}

	sync := NewSynchronizer(mock, nil)
	if err := sync.DeleteItem(ctx, item.ID.String()); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	if n := mock.StockEventCount(); n != 0 {
		t.Errorf("stock events remaining = %d, want 0", n)
	}
	got, _ := mock.GetItem(ctx, item.ID.String())
	if got != nil {
		t.Error("item still present after delete")
	}
}

func TestDeleteItem_StockDeleteFailureKeepsItem(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()
	item := &models.Item{Name: "Widget"}
	mock.CreateItem(ctx, item)
	ev := &models.StockEvent{ItemID: item.ID, StockValue: 1, CreatedAt: 1}
	mock.SeedStockEvent(ev)
	mock.DeleteStockErrFor[ev.ID.String()] = errors.New("locked")

	sync := NewSynchronizer(mock, nil)
	err := sync.DeleteItem(ctx, item.ID.String())
	if !apperrors.Is(err, apperrors.ErrStore) {
		t.Fatalf("err = %v, want STORE_ERROR", err)
	}
	if mock.DeleteItemCalls != 0 {
		t.Error("item deletion attempted after stock deletion failed")
	}
}

func TestDeleteItem_PartialFailure(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()
	item := &models.Item{Name: "Widget"}
	mock.CreateItem(ctx, item)
	mock.SeedStockEvent(&models.StockEvent{ItemID: item.ID, StockValue: 1, CreatedAt: 1})
	mock.DeleteItemErr = errors.New("permission denied")

	sync := NewSynchronizer(mock, nil)
	err := sync.DeleteItem(ctx, item.ID.String())
	if !apperrors.Is(err, apperrors.ErrPartialFailure) {
		t.Fatalf("err = %v, want PARTIAL_FAILURE", err)
	}
	if n := mock.StockEventCount(); n != 0 {
		t.Errorf("stock events remaining = %d, want 0 (deleted before the item failed)", n)
	}
}

// waitForSnapshot polls until the snapshot satisfies the predicate or
// the deadline passes.
func waitForSnapshot(t *testing.T, sync *Synchronizer, pred func([]ItemWithStock) bool) []ItemWithStock {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := sync.Snapshot()
		if pred(snap) {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("snapshot never reached expected state: %+v", sync.Snapshot())
	return nil
}

func TestRun_AppliesFeedEvents(t *testing.T) {
	mock := store.NewMockStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := feed.NewHub()
	sync := NewSynchronizer(mock, nil)
	if _, err := sync.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	go sync.Run(ctx, hub)

	// Wait for the subscription to be live before publishing.
	deadline := time.Now().Add(2 * time.Second)
	mock.SeedItem(&models.Item{ID: "probe", Name: "probe"})
	for time.Now().Before(deadline) {
		hub.Publish(feed.Event{
			Collection: feed.CollectionItems,
			Type:       feed.EventCreate,
			ID:         "probe",
			Payload:    &models.Item{ID: "probe", Name: "probe"},
		})
		if len(sync.Snapshot()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	waitForSnapshot(t, sync, func(s []ItemWithStock) bool { return len(s) == 1 })

	// Update replaces the entry and re-resolves its latest stock.
	mock.SeedStockEvent(&models.StockEvent{ItemID: "probe", StockValue: 7, CreatedAt: 100})
	hub.Publish(feed.Event{
		Collection: feed.CollectionItems,
		Type:       feed.EventUpdate,
		ID:         "probe",
		Payload:    &models.Item{ID: "probe", Name: "probe renamed"},
	})
	snap := waitForSnapshot(t, sync, func(s []ItemWithStock) bool {
		return len(s) == 1 && s[0].Item.Name == "probe renamed"
	})
	if snap[0].StockValue() != 7 {
		t.Errorf("stock after update event = %d, want 7", snap[0].StockValue())
	}

	// Delete removes the entry.
	hub.Publish(feed.Event{Collection: feed.CollectionItems, Type: feed.EventDelete, ID: "probe"})
	waitForSnapshot(t, sync, func(s []ItemWithStock) bool { return len(s) == 0 })
}
