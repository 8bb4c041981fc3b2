package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/notifyhub/event-fanout/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// mapError translates domain sentinel errors to HTTP status codes.
// All mapping lives here so individual handlers stay concise.
//
// Downstream failures keep their own statuses: a *domain.ResponseError (the
// endpoint rejected a call) and a transport-level *url.Error both surface as
// 502, a deadline as 504, so API clients can tell "our validation failed"
// (422) apart from "the downstream endpoint failed".
func mapError(w http.ResponseWriter, err error) {
	var respErr *domain.ResponseError
	var transportErr *url.Error

	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrMissingURL),
		errors.Is(err, domain.ErrInvalidMethod),
		errors.Is(err, domain.ErrMissingTemplate),
		errors.Is(err, domain.ErrMissingRecipients),
		errors.Is(err, domain.ErrTooManyRecipients):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &respErr), errors.As(err, &transportErr):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
