package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/blacktop-engine/internal/service"
)

type errorBody struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	WriteJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	WriteJSON(w, http.StatusNotFound, errorBody{Error: msg})
}

// EngineError writes the response for an error returned by the engine services.
// Anything it does not recognise is a 500.
func EngineError(w http.ResponseWriter, msg string, err error) {
	status := StatusFor(err)
	switch status {
	case http.StatusInternalServerError:
		InternalServerError(w, msg, err)
	case http.StatusNotFound:
		NotFound(w, err.Error(), err)
	case http.StatusBadRequest:
		BadRequest(w, err.Error(), err)
	default:
		slog.Warn(msg, "status", status, "error", err)
		WriteJSON(w, status, errorBody{Error: err.Error()})
	}
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrTournamentNotFound), errors.Is(err, service.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrPhaseIncomplete),
		errors.Is(err, service.ErrInvalidPhase),
		errors.Is(err, service.ErrMatchAlreadyFinished),
		errors.Is(err, service.ErrMatchNotReady),
		errors.Is(err, service.ErrSlotConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrTiedResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInsufficientGroups),
		errors.Is(err, service.ErrNotEnoughQualifiers),
		errors.Is(err, service.ErrInvalidResult):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
