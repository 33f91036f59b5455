package handlers

import (
	"net/http"

	"github.com/Voxel07/inventory/internal/history"
	"github.com/Voxel07/inventory/internal/inventory"
)

// DetailHandler handles the item detail view.
type DetailHandler struct {
	detail *inventory.DetailService
}

// NewDetailHandler creates a new DetailHandler.
func NewDetailHandler(detail *inventory.DetailService) *DetailHandler {
	return &DetailHandler{detail: detail}
}

// Get handles GET /api/items/{id}
//
// The response carries the item, its raw history, the per-period deltas
// and the chart series. The series is omitted when there is no history;
// the client renders its no-data state instead of an empty chart.
func (h *DetailHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.detail.LoadOne(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{
		"item":         detail.Item,
		"history":      detail.History,
		"deltas":       history.Deltas(detail.History),
		"latest_stock": detail.LatestStock(),
	}
	if series, ok := history.BuildSeries(detail.History); ok {
		resp["series"] = series
	}

	writeJSON(w, http.StatusOK, resp)
}
