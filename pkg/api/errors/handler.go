// Package errors provides HTTP error handling utilities for the API.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/printrelay/printgw/pkg/errors"
	"github.com/printrelay/printgw/pkg/logger"
)

// HandlerWithError is an HTTP handler that can return an error.
// This signature allows handlers to return errors instead of manually
// writing error responses, enabling centralized error handling.
type HandlerWithError func(http.ResponseWriter, *http.Request) error

// errorResponse is the JSON body written for every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Handler converts errors returned by handlers into JSON error responses.
// In debug mode 5xx responses carry the underlying error detail; otherwise
// only a generic message is returned to the client.
type Handler struct {
	debug bool
}

// NewHandler creates an error handler for the API routes.
func NewHandler(debug bool) *Handler {
	return &Handler{debug: debug}
}

// Wrap decorates a HandlerWithError and converts returned errors into
// appropriate HTTP responses.
//
// The decorator:
//   - Returns early if no error is returned (handler already wrote response)
//   - Extracts HTTP status code from the error using errors.Code()
//   - For 5xx errors: logs full error details, returns a generic message
//   - For 4xx errors: returns the error message to the client
//
// Usage:
//
//	r.Get("/{printerId}/jobs", eh.Wrap(routes.listPrinterJobs))
func (h *Handler) Wrap(fn HandlerWithError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			// No error returned, handler already wrote the response
			return
		}

		code := errors.Code(err)

		resp := errorResponse{Error: err.Error()}
		if code >= http.StatusInternalServerError {
			// For 5xx errors, log the full error but return a generic message
			logger.Errorf("Internal server error: %v", err)
			resp.Error = http.StatusText(code)
			if h.debug {
				resp.Message = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
			logger.Errorf("Failed to write error response: %v", encErr)
		}
	}
}
