// Package inventory tests for the entry form submissions.
package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/Voxel07/inventory/internal/errors"
	"github.com/Voxel07/inventory/internal/models"
	"github.com/Voxel07/inventory/internal/store"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		values    FormValues
		wantField string
	}{
		{"valid", FormValues{Name: "Widget", Stock: 10}, ""},
		{"name missing", FormValues{Stock: 10}, "name"},
		{"name too short", FormValues{Name: "abc", Stock: 10}, "name"},
		{"name too long", FormValues{Name: strings.Repeat("x", 51), Stock: 10}, "name"},
		{"name at max", FormValues{Name: strings.Repeat("x", 50), Stock: 10}, ""},
		{"negative stock", FormValues{Name: "Widget", Stock: -1}, "stock"},
		{"zero stock ok", FormValues{Name: "Widget", Stock: 0}, ""},
		{"location too long", FormValues{Name: "Widget", Stock: 1, Location: strings.Repeat("x", 51)}, "location"},
		{"position too long", FormValues{Name: "Widget", Stock: 1, Position: strings.Repeat("x", 51)}, "position"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := Validate(tt.values)
			if tt.wantField == "" {
				if fe != nil {
					t.Errorf("Validate() = %v, want nil", fe)
				}
				return
			}
			if fe == nil {
				t.Fatalf("Validate() = nil, want error on %q", tt.wantField)
			}
			if _, ok := fe[tt.wantField]; !ok {
				t.Errorf("Validate() = %v, want error on %q", fe, tt.wantField)
			}
		})
	}
}

func TestSubmitAdd(t *testing.T) {
	mock := store.NewMockStore()
	svc := NewEntryService(mock, nil)

	entry, outcome, err := svc.SubmitAdd(context.Background(), FormValues{
		Name: "Widget", Stock: 10, Location: "A1", Position: "Shelf3",
	})
	if err != nil {
		t.Fatalf("SubmitAdd: %v", err)
	}
	if !outcome.ItemCreated || !outcome.StockRecorded {
		t.Errorf("outcome = %+v, want both halves written", outcome)
	}
	if entry.Item.Name != "Widget" || entry.Item.Location != "A1" {
		t.Errorf("item = %+v", entry.Item)
	}
	if entry.LatestStock == nil || entry.LatestStock.StockValue != 10 {
		t.Fatalf("latest stock = %+v, want 10", entry.LatestStock)
	}
	if entry.LatestStock.Reason != ReasonRestock {
		t.Errorf("reason = %q, want %q", entry.LatestStock.Reason, ReasonRestock)
	}

	// The stored event must match what the detail view would load.
	latest, _ := mock.LatestStockEvent(context.Background(), entry.Item.ID.String())
	if latest == nil || latest.StockValue != 10 {
		t.Errorf("stored latest = %+v, want 10", latest)
	}
}

func TestSubmitAdd_Invalid(t *testing.T) {
	mock := store.NewMockStore()
	svc := NewEntryService(mock, nil)

	_, _, err := svc.SubmitAdd(context.Background(), FormValues{Name: "ab", Stock: 1})
	if !apperrors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
	if mock.CreateItemCalls != 0 {
		t.Error("store was called despite validation failure")
	}
}

func TestSubmitAdd_ItemCreateFails(t *testing.T) {
	mock := store.NewMockStore()
	mock.CreateItemErr = errors.New("insert failed")
	svc := NewEntryService(mock, nil)

	_, outcome, err := svc.SubmitAdd(context.Background(), FormValues{Name: "Widget", Stock: 1})
	if !apperrors.Is(err, apperrors.ErrStore) {
		t.Fatalf("err = %v, want STORE_ERROR", err)
	}
	if outcome.ItemCreated {
		t.Error("outcome claims item created")
	}
	if mock.CreateStockCalls != 0 {
		t.Error("stock creation attempted after item creation failed")
	}
}

func TestSubmitAdd_StockCreateFails(t *testing.T) {
	mock := store.NewMockStore()
	mock.CreateStockErr = errors.New("insert failed")
	svc := NewEntryService(mock, nil)

	entry, outcome, err := svc.SubmitAdd(context.Background(), FormValues{Name: "Widget", Stock: 1})
	if !apperrors.Is(err, apperrors.ErrPartialFailure) {
		t.Fatalf("err = %v, want PARTIAL_FAILURE", err)
	}
	if !outcome.ItemCreated || outcome.StockRecorded {
		t.Errorf("outcome = %+v, want item created without stock", outcome)
	}
	if entry == nil || entry.Item.ID == "" {
		t.Error("created item not returned alongside the partial failure")
	}
}

func TestSubmitUpdate_LocationOnly(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()
	item := &models.Item{Name: "Widget", Location: "A1"}
	mock.CreateItem(ctx, item)
	original := ItemWithStock{
		Item:        *item,
		LatestStock: &models.StockEvent{ItemID: item.ID, StockValue: 10},
	}
	mock.CreateItemCalls = 0

	svc := NewEntryService(mock, nil)
	outcome, err := svc.SubmitUpdate(ctx, original, FormValues{
		Name: "Widget", Location: "B2", Stock: 10,
	})
	if err != nil {
		t.Fatalf("SubmitUpdate: %v", err)
	}
	if !outcome.ItemUpdated || outcome.StockRecorded {
		t.Errorf("outcome = %+v, want item update only", outcome)
	}
	if mock.UpdateItemCalls != 1 {
		t.Errorf("update calls = %d, want exactly 1", mock.UpdateItemCalls)
	}
	if mock.CreateStockCalls != 0 {
		t.Errorf("stock create calls = %d, want 0 (stock unchanged)", mock.CreateStockCalls)
	}

	got, _ := mock.GetItem(ctx, item.ID.String())
	if got.Location != "B2" {
		t.Errorf("location = %q, want B2", got.Location)
	}
}

func TestSubmitUpdate_StockOnly(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()
	item := &models.Item{Name: "Widget"}
	mock.CreateItem(ctx, item)
	original := ItemWithStock{
		Item:        *item,
		LatestStock: &models.StockEvent{ItemID: item.ID, StockValue: 10},
	}

	svc := NewEntryService(mock, nil)
	outcome, err := svc.SubmitUpdate(ctx, original, FormValues{Name: "Widget", Stock: 15})
	if err != nil {
		t.Fatalf("SubmitUpdate: %v", err)
	}
	if outcome.ItemUpdated || !outcome.StockRecorded {
		t.Errorf("outcome = %+v, want stock record only", outcome)
	}
	if mock.UpdateItemCalls != 0 {
		t.Errorf("update calls = %d, want 0", mock.UpdateItemCalls)
	}

	latest, _ := mock.LatestStockEvent(ctx, item.ID.String())
	if latest == nil || latest.StockValue != 15 {
		t.Fatalf("latest = %+v, want 15", latest)
	}
	if latest.Reason != ReasonAdjustment {
		t.Errorf("reason = %q, want %q (past events are never edited)", latest.Reason, ReasonAdjustment)
	}
}

func TestSubmitUpdate_NoChange(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()
	item := &models.Item{Name: "Widget", Location: "A1"}
	mock.CreateItem(ctx, item)
	original := ItemWithStock{
		Item:        *item,
		LatestStock: &models.StockEvent{ItemID: item.ID, StockValue: 10},
	}

	svc := NewEntryService(mock, nil)
	outcome, err := svc.SubmitUpdate(ctx, original, FormValues{
		Name: "Widget", Location: "A1", Stock: 10,
	})
	if err != nil {
		t.Fatalf("SubmitUpdate: %v (a no-op is a success, not an error)", err)
	}
	if !outcome.NoChange() {
		t.Errorf("outcome = %+v, want no change", outcome)
	}
	if mock.UpdateItemCalls != 0 || mock.CreateStockCalls != 0 {
		t.Error("writes fired for a no-op submission")
	}
}

func TestSubmitUpdate_FirstStockEvent(t *testing.T) {
	// An item without history records its first event on update.
	mock := store.NewMockStore()
	ctx := context.Background()
	item := &models.Item{Name: "Widget"}
	mock.CreateItem(ctx, item)
	original := ItemWithStock{Item: *item}

	svc := NewEntryService(mock, nil)
	outcome, err := svc.SubmitUpdate(ctx, original, FormValues{Name: "Widget", Stock: 5})
	if err != nil {
		t.Fatalf("SubmitUpdate: %v", err)
	}
	if !outcome.StockRecorded {
		t.Errorf("outcome = %+v, want stock recorded", outcome)
	}
}

func TestSubmitUpdate_PartialFailure(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()
	item := &models.Item{Name: "Widget"}
	mock.CreateItem(ctx, item)
	original := ItemWithStock{
		Item:        *item,
		LatestStock: &models.StockEvent{ItemID: item.ID, StockValue: 10},
	}
	mock.CreateStockErr = errors.New("insert failed")

	svc := NewEntryService(mock, nil)
	outcome, err := svc.SubmitUpdate(ctx, original, FormValues{
		Name: "Widget", Location: "B2", Stock: 15,
	})
	if !apperrors.Is(err, apperrors.ErrPartialFailure) {
		t.Fatalf("err = %v, want PARTIAL_FAILURE", err)
	}
	if !outcome.ItemUpdated || outcome.StockRecorded {
		t.Errorf("outcome = %+v, want item updated and stock missing", outcome)
	}
}

func TestSubmitUpdate_ItemFailsStockSucceeds(t *testing.T) {
	mock := store.NewMockStore()
	ctx := context.Background()
	item := &models.Item{Name: "Widget"}
	mock.CreateItem(ctx, item)
	original := ItemWithStock{
		Item:        *item,
		LatestStock: &models.StockEvent{ItemID: item.ID, StockValue: 10},
	}
	mock.UpdateItemErr = errors.New("update failed")

	svc := NewEntryService(mock, nil)
	outcome, err := svc.SubmitUpdate(ctx, original, FormValues{
		Name: "Widget", Location: "B2", Stock: 15,
	})
	if !apperrors.Is(err, apperrors.ErrPartialFailure) {
		t.Fatalf("err = %v, want PARTIAL_FAILURE (the independent stock half still fired)", err)
	}
	if outcome.ItemUpdated || !outcome.StockRecorded {
		t.Errorf("outcome = %+v, want stock recorded and item not updated", outcome)
	}
}
