package inventory

import (
	"context"

	apperrors "github.com/Voxel07/inventory/internal/errors"
	"github.com/Voxel07/inventory/internal/models"
	"github.com/Voxel07/inventory/internal/store"
)

// ItemDetail is an item together with its full stock history, newest
// first as fetched; display ordering belongs to the history package.
type ItemDetail struct {
	Item    models.Item          `json:"item"`
	History []*models.StockEvent `json:"history"`
}

// LatestStock returns the newest event of the history, or nil.
func (d *ItemDetail) LatestStock() *models.StockEvent {
	if len(d.History) == 0 {
		return nil
	}
	return d.History[0]
}

// DetailService loads single items with their stock history.
type DetailService struct {
	store store.Store
}

// NewDetailService creates a DetailService.
func NewDetailService(st store.Store) *DetailService {
	return &DetailService{store: st}
}

// LoadOne fetches an item by ID plus its stock history. A missing or
// unknown ID yields an ITEM_NOT_FOUND error, distinct from store errors,
// so callers can render an empty state instead of an alert.
func (s *DetailService) LoadOne(ctx context.Context, id string) (*ItemDetail, error) {
	if id == "" {
		return nil, apperrors.New(apperrors.ErrItemNotFound, "no item id provided")
	}

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, "failed to load item", err)
	}
	if item == nil {
		return nil, apperrors.New(apperrors.ErrItemNotFound, "item not found")
	}

	events, err := s.store.ListStockEvents(ctx, id, MaxStockFetch)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, "failed to load stock history", err)
	}

	return &ItemDetail{Item: *item, History: events}, nil
}
