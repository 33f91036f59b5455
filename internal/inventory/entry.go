package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Voxel07/inventory/internal/cache"
	apperrors "github.com/Voxel07/inventory/internal/errors"
	"github.com/Voxel07/inventory/internal/logging"
	"github.com/Voxel07/inventory/internal/models"
	"github.com/Voxel07/inventory/internal/store"
)

// Form field limits.
const (
	nameMinLen  = 4
	nameMaxLen  = 50
	fieldMaxLen = 50

	// ReasonRestock is recorded on the stock event created with a new item.
	ReasonRestock = "restock"
	// ReasonAdjustment is recorded when an update changes the stock count.
	ReasonAdjustment = "adjustment"
)

// FormValues are the entry form fields after boundary parsing.
type FormValues struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Position string `json:"position"`
	Stock    int    `json:"stock"`
}

// FieldErrors maps form field names to validation messages.
type FieldErrors map[string]string

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, fe[f]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks the form values against the field schema. It returns
// nil when everything passes. No store call is made before this passes.
func Validate(v FormValues) FieldErrors {
	fe := FieldErrors{}

	name := strings.TrimSpace(v.Name)
	switch {
	case name == "":
		fe["name"] = "required"
	case utf8.RuneCountInString(name) < nameMinLen:
		fe["name"] = fmt.Sprintf("must be at least %d characters", nameMinLen)
	case utf8.RuneCountInString(name) > nameMaxLen:
		fe["name"] = fmt.Sprintf("must be at most %d characters", nameMaxLen)
	}

	if v.Stock < 0 {
		fe["stock"] = "must not be negative"
	}
	if utf8.RuneCountInString(v.Location) > fieldMaxLen {
		fe["location"] = fmt.Sprintf("must be at most %d characters", fieldMaxLen)
	}
	if utf8.RuneCountInString(v.Position) > fieldMaxLen {
		fe["position"] = fmt.Sprintf("must be at most %d characters", fieldMaxLen)
	}

	if len(fe) == 0 {
		return nil
	}
	return fe
}

// SubmitOutcome reports which halves of a submission actually wrote.
// A no-op update reports neither half and is still a success.
type SubmitOutcome struct {
	ItemCreated   bool `json:"item_created"`
	ItemUpdated   bool `json:"item_updated"`
	StockRecorded bool `json:"stock_recorded"`
}

// NoChange reports whether nothing was written.
func (o SubmitOutcome) NoChange() bool {
	return !o.ItemCreated && !o.ItemUpdated && !o.StockRecorded
}

// EntryService implements the entry form submissions.
type EntryService struct {
	store store.Store
	cache cache.LatestStockCache // may be nil
}

// NewEntryService creates an EntryService. c may be nil.
func NewEntryService(st store.Store, c cache.LatestStockCache) *EntryService {
	return &EntryService{store: st, cache: c}
}

// SubmitAdd creates a new item and its initial stock event.
//
// If item creation fails nothing else is attempted. If the item is
// created but the stock event fails, the item is kept without stock
// history and both the created entry and a partial-failure error are
// returned; the caller surfaces it as a warning.
func (s *EntryService) SubmitAdd(ctx context.Context, v FormValues) (*ItemWithStock, SubmitOutcome, error) {
	var outcome SubmitOutcome

	if fe := Validate(v); fe != nil {
		return nil, outcome, apperrors.Wrap(apperrors.ErrValidation, "invalid entry", fe)
	}

	item := &models.Item{
		Name:     strings.TrimSpace(v.Name),
		Location: v.Location,
		Position: v.Position,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, outcome, apperrors.Wrap(apperrors.ErrStore, "failed to create item", err)
	}
	outcome.ItemCreated = true

	ev := &models.StockEvent{
		ItemID:     item.ID,
		StockValue: v.Stock,
		Reason:     ReasonRestock,
	}
	if err := s.store.CreateStockEvent(ctx, ev); err != nil {
		return &ItemWithStock{Item: *item}, outcome, apperrors.Wrap(apperrors.ErrPartialFailure,
			"item created but initial stock could not be recorded", err)
	}
	outcome.StockRecorded = true
	s.fillCache(ctx, ev)

	return &ItemWithStock{Item: *item, LatestStock: ev}, outcome, nil
}

// SubmitUpdate applies the entry form to an existing item.
//
// The item fields are diffed against the original and updated only when
// at least one differs. The stock value is compared against the
// original's latest stock; a difference appends a new stock event (past
// events are never edited). Either, both, or neither write may fire;
// when neither fires the outcome reports no change and the error is nil.
// When both fire and only the second fails, the outcome keeps the first
// half's success and the error is a partial failure.
func (s *EntryService) SubmitUpdate(ctx context.Context, original ItemWithStock, v FormValues) (SubmitOutcome, error) {
	var outcome SubmitOutcome

	if fe := Validate(v); fe != nil {
		return outcome, apperrors.Wrap(apperrors.ErrValidation, "invalid entry", fe)
	}

	name := strings.TrimSpace(v.Name)
	needsItemUpdate := name != original.Item.Name ||
		v.Location != original.Item.Location ||
		v.Position != original.Item.Position

	// With no stock history yet, any submitted value is a change worth
	// recording as the first event.
	needsStockUpdate := original.LatestStock == nil ||
		v.Stock != original.LatestStock.StockValue

	if !needsItemUpdate && !needsStockUpdate {
		logging.Info("entry submitted without changes", map[string]interface{}{
			"item_id": original.Item.ID.String(),
		})
		return outcome, nil
	}

	if needsItemUpdate {
		updated := original.Item
		updated.Name = name
		updated.Location = v.Location
		updated.Position = v.Position
		if err := s.store.UpdateItem(ctx, &updated); err != nil {
			if needsStockUpdate {
				// Attempt the independent stock half anyway so one
				// transport failure doesn't swallow the other write.
				if stockErr := s.recordStock(ctx, original.Item.ID, v.Stock); stockErr == nil {
					outcome.StockRecorded = true
					return outcome, apperrors.Wrap(apperrors.ErrPartialFailure,
						"stock recorded but item fields could not be updated", err)
				}
			}
			return outcome, apperrors.Wrap(apperrors.ErrStore, "failed to update item", err)
		}
		outcome.ItemUpdated = true
	}

	if needsStockUpdate {
		if err := s.recordStock(ctx, original.Item.ID, v.Stock); err != nil {
			if outcome.ItemUpdated {
				return outcome, apperrors.Wrap(apperrors.ErrPartialFailure,
					"item updated but stock change could not be recorded", err)
			}
			return outcome, apperrors.Wrap(apperrors.ErrStore, "failed to record stock change", err)
		}
		outcome.StockRecorded = true
	}

	return outcome, nil
}

// recordStock appends an adjustment event and refreshes the cache.
func (s *EntryService) recordStock(ctx context.Context, itemID models.UUID, value int) error {
	ev := &models.StockEvent{
		ItemID:     itemID,
		StockValue: value,
		Reason:     ReasonAdjustment,
	}
	if err := s.store.CreateStockEvent(ctx, ev); err != nil {
		return err
	}
	s.fillCache(ctx, ev)
	return nil
}

// fillCache writes the new latest event through to the cache, best effort.
func (s *EntryService) fillCache(ctx context.Context, ev *models.StockEvent) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, ev); err != nil {
		logging.Warn("latest stock cache write failed", map[string]interface{}{
			"item_id": ev.ItemID.String(), "error": err.Error(),
		})
	}
}
