// Package v1 contains the HTTP route handlers for the print gateway API.
package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/printrelay/printgw/pkg/auth"
	"github.com/printrelay/printgw/pkg/errors"
	"github.com/printrelay/printgw/pkg/logger"
	"github.com/printrelay/printgw/pkg/printing"
)

// PrintService is the upstream surface the route handlers depend on.
// *printing.Client satisfies it.
type PrintService interface {
	ListPrinters(ctx context.Context, userToken string) ([]printing.Printer, error)
	CreatePrintJob(ctx context.Context, userToken string, req printing.PrintJobRequest) (*printing.CreateJobResponse, error)
	UploadDocument(ctx context.Context, uploadURL string, data []byte, contentType string) error
	GetJobStatus(ctx context.Context, userToken, printerID, jobID string) (*printing.PrintJob, error)
	ListPrintJobs(ctx context.Context, userToken, printerID string) ([]printing.PrintJob, error)
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to write response: %v", err)
	}
	return nil
}

// userTokenFromRequest returns the raw bearer token of the authenticated
// caller. The authentication middleware guarantees an identity is present
// on every /api route; a missing one means the route was mounted without it.
func userTokenFromRequest(r *http.Request) (string, error) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil || identity.Token == "" {
		return "", errors.NewUnauthenticatedError("User not authenticated", nil)
	}
	return identity.Token, nil
}
