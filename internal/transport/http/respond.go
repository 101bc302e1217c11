package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tagbanwa/salontime-backend/internal/service/reviews"
	"github.com/tagbanwa/salontime-backend/internal/service/scheduling"
	"github.com/tagbanwa/salontime-backend/internal/service/waitlist"
	"github.com/tagbanwa/salontime-backend/internal/store"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// writeServiceError maps service and store errors onto stable HTTP error
// codes. Unknown errors are logged and surfaced as an opaque 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		schedulingInvalid *scheduling.ValidationError
		waitlistInvalid   *waitlist.ValidationError
		reviewsInvalid    *reviews.ValidationError
	)
	switch {
	case errors.As(err, &schedulingInvalid),
		errors.As(err, &waitlistInvalid),
		errors.As(err, &reviewsInvalid):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "TIME_SLOT_CONFLICT", "the requested time slot is no longer available")
	case errors.Is(err, store.ErrIdempotencyConflict):
		writeError(w, http.StatusConflict, "IDEMPOTENCY_CONFLICT", "idempotency key was already used with a different request")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", "the reservation's current status does not allow this change")
	case errors.Is(err, scheduling.ErrForbidden),
		errors.Is(err, waitlist.ErrForbidden),
		errors.Is(err, reviews.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "you are not allowed to perform this operation")
	default:
		s.log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
