package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/Voxel07/inventory/internal/errors"
	"github.com/Voxel07/inventory/internal/inventory"
	"github.com/Voxel07/inventory/internal/store"
)

// ItemsHandler handles the item list operations.
type ItemsHandler struct {
	sync   *inventory.Synchronizer
	entry  *inventory.EntryService
	detail *inventory.DetailService
}

// NewItemsHandler creates a new ItemsHandler.
func NewItemsHandler(sync *inventory.Synchronizer, entry *inventory.EntryService, detail *inventory.DetailService) *ItemsHandler {
	return &ItemsHandler{sync: sync, entry: entry, detail: detail}
}

// List handles GET /api/items
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.sync.LoadAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// Create handles POST /api/items
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var values inventory.FormValues
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrInvalid, "invalid request body", err))
		return
	}

	entry, outcome, err := h.entry.SubmitAdd(r.Context(), values)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrPartialFailure) {
			// The item exists without stock history; surface the half
			// that made it as data and the half that didn't as a warning.
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"item":    entry,
				"outcome": outcome,
				"warning": err.Error(),
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"item":    entry,
		"outcome": outcome,
	})
}

// Update handles PUT /api/items/{id}
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var values inventory.FormValues
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrInvalid, "invalid request body", err))
		return
	}

	detail, err := h.detail.LoadOne(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	original := inventory.ItemWithStock{
		Item:        detail.Item,
		LatestStock: detail.LatestStock(),
	}

	outcome, err := h.entry.SubmitUpdate(r.Context(), original, values)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrPartialFailure) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"outcome": outcome,
				"warning": err.Error(),
			})
			return
		}
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{"outcome": outcome}
	if outcome.NoChange() {
		resp["message"] = "no changes to save"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/items/{id}
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.sync.DeleteItem(r.Context(), id); err != nil {
		// An unknown id is reported as not found, not as a store failure.
		if errors.Is(err, store.ErrNotExist) {
			writeError(w, apperrors.New(apperrors.ErrItemNotFound, "item not found"))
			return
		}
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
