package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nmehta6/splitledger/internal/ledger"
	"github.com/nmehta6/splitledger/internal/money"
)

// apiError is the JSON error body. Successful responses carry the payload
// directly (no envelope) because the existing frontend decodes them as
// plain arrays and objects.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	var body apiError
	body.Error.Code = code
	body.Error.Message = message
	respondJSON(w, status, body)
}

// respondEngineError maps engine sentinel errors to HTTP statuses. The
// error message is included so the frontend can render it.
func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidSplit):
		respondError(w, http.StatusBadRequest, "INVALID_SPLIT", err.Error())
	case errors.Is(err, ledger.ErrInvalidMembership):
		respondError(w, http.StatusBadRequest, "INVALID_MEMBERSHIP", err.Error())
	case errors.Is(err, ledger.ErrInvalidSettlement):
		respondError(w, http.StatusBadRequest, "INVALID_SETTLEMENT", err.Error())
	case errors.Is(err, money.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		slog.Error("unhandled engine error", "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL", "an unexpected error occurred")
	}
}
