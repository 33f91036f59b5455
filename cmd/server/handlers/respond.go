// Package handlers provides the REST API handlers for the inventory service.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/Voxel07/inventory/internal/errors"
	"github.com/Voxel07/inventory/internal/inventory"
	"github.com/Voxel07/inventory/internal/logging"
)

// errorResponse is the JSON shape for failed requests.
type errorResponse struct {
	Error  string                `json:"error"`
	Code   apperrors.ErrorCode   `json:"code"`
	Fields inventory.FieldErrors `json:"fields,omitempty"`
}

// writeJSON encodes payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("failed to encode response", err)
	}
}

// writeError maps an application error onto an HTTP status and JSON body.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.Code(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrValidation, apperrors.ErrInvalid:
		status = http.StatusBadRequest
	case apperrors.ErrNotFound, apperrors.ErrItemNotFound:
		status = http.StatusNotFound
	case apperrors.ErrDuplicate:
		status = http.StatusConflict
	}

	resp := errorResponse{Error: err.Error(), Code: code}
	var fe inventory.FieldErrors
	if errors.As(err, &fe) {
		resp.Fields = fe
	}
	writeJSON(w, status, resp)
}
