// Package api holds the JSON response envelope, request decoding and error mapping
// shared by the HTTP handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/graphs"
	"github.com/aristath/qdo/internal/modules/maxcut"
	"github.com/aristath/qdo/internal/modules/qaoa"
	"github.com/aristath/qdo/internal/modules/runs"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Metadata accompanies every enveloped response.
type Metadata struct {
	Timestamp string `json:"timestamp"`
}

// Envelope is the {"data": ..., "metadata": ...} response shape.
type Envelope struct {
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
}

// ErrorBody is the error response shape.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// WriteJSON writes v as a JSON response
func WriteJSON(w http.ResponseWriter, status int, v interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteData wraps data in the envelope and writes it.
func WriteData(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	WriteJSON(w, status, Envelope{
		Data:     data,
		Metadata: Metadata{Timestamp: time.Now().Format(time.RFC3339)},
	}, log)
}

// WriteError maps err to a status code, logs server-side failures and writes the error body.
func WriteError(w http.ResponseWriter, err error, log zerolog.Logger) {
	status, kind := Classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Str("kind", kind).Msg("Request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Str("kind", kind).Msg("Request rejected")
	}
	WriteJSON(w, status, ErrorBody{Error: err.Error(), Kind: kind}, log)
}

// Classify maps domain errors to HTTP status codes.
func Classify(err error) (int, string) {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, graph.ErrInvalidGraph):
		return http.StatusBadRequest, "invalid_graph"
	case errors.Is(err, qaoa.ErrInvalidParams):
		return http.StatusBadRequest, "invalid_params"
	case errors.Is(err, graphs.ErrSourceNotAllowed):
		return http.StatusBadRequest, "invalid_source"
	case errors.Is(err, graphs.ErrNotFound), errors.Is(err, runs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, graphs.ErrSourceUnavailable):
		return http.StatusServiceUnavailable, "source_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "cancelled"
	case errors.Is(err, qaoa.ErrOptimizationFailed):
		return http.StatusInternalServerError, "optimization_failed"
	case errors.Is(err, maxcut.ErrMalformedOutput):
		return http.StatusInternalServerError, "optimization_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// DecodeJSON reads a size-limited JSON body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid request body: %v", err)}
	}
	return nil
}
