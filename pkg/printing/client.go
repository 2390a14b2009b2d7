package printing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/printrelay/printgw/pkg/errors"
	"github.com/printrelay/printgw/pkg/logger"
)

const (
	// defaultTimeout bounds the regular API calls against the upstream.
	defaultTimeout = 30 * time.Second

	// uploadTimeout bounds document uploads, which carry larger payloads.
	uploadTimeout = 60 * time.Second

	// maxResponseBodySize caps how much of an upstream response we read.
	maxResponseBodySize = 10 * 1024 * 1024
)

// TokenExchanger trades the caller's token for a downstream access token.
// Implementations must perform a fresh exchange on every call.
type TokenExchanger interface {
	ExchangeOnBehalfOf(ctx context.Context, userToken string) (string, error)
}

// Client talks to the upstream print API on behalf of an authenticated user.
// It holds no per-user state; the user's token is passed into every
// operation and exchanged just-in-time.
type Client struct {
	baseURL      string
	exchanger    TokenExchanger
	httpClient   *http.Client
	uploadClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the client used for API calls.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUploadClient overrides the client used for document uploads.
func WithUploadClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.uploadClient = c
	}
}

// NewClient creates a print API client rooted at baseURL.
func NewClient(baseURL string, exchanger TokenExchanger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      baseURL,
		exchanger:    exchanger,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		uploadClient: &http.Client{Timeout: uploadTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPrinters returns the printers shared with the calling user.
func (c *Client) ListPrinters(ctx context.Context, userToken string) ([]Printer, error) {
	var env collection[Printer]
	if err := c.getJSON(ctx, userToken, "/print/printers", &env); err != nil {
		return nil, errors.NewUpstreamError("failed to retrieve printers", err)
	}
	if env.Value == nil {
		return []Printer{}, nil
	}
	return env.Value, nil
}

// ListPrintJobs returns the jobs known upstream for the given printer share.
func (c *Client) ListPrintJobs(ctx context.Context, userToken, printerID string) ([]PrintJob, error) {
	path := fmt.Sprintf("/print/printers/%s/jobs", url.PathEscape(printerID))
	var env collection[PrintJob]
	if err := c.getJSON(ctx, userToken, path, &env); err != nil {
		return nil, errors.NewUpstreamError("failed to retrieve print jobs", err)
	}
	if env.Value == nil {
		return []PrintJob{}, nil
	}
	return env.Value, nil
}

// GetJobStatus returns the current state of a single print job.
func (c *Client) GetJobStatus(ctx context.Context, userToken, printerID, jobID string) (*PrintJob, error) {
	path := fmt.Sprintf("/print/printers/%s/jobs/%s", url.PathEscape(printerID), url.PathEscape(jobID))
	var job PrintJob
	if err := c.getJSON(ctx, userToken, path, &job); err != nil {
		return nil, errors.NewUpstreamError("failed to retrieve job status", err)
	}
	return &job, nil
}

// CreatePrintJob registers a new job upstream and returns its identity along
// with the pre-signed upload destination for the document payload.
func (c *Client) CreatePrintJob(ctx context.Context, userToken string, req PrintJobRequest) (*CreateJobResponse, error) {
	accessToken, err := c.exchanger.ExchangeOnBehalfOf(ctx, userToken)
	if err != nil {
		return nil, errors.NewTokenExchangeError("failed to acquire downstream token", err)
	}

	cfg := req.Configuration
	if cfg == nil {
		cfg = &JobConfiguration{}
	}
	body, err := json.Marshal(map[string]any{
		"displayName":   req.DisplayName,
		"configuration": cfg,
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to encode job request", err)
	}

	path := fmt.Sprintf("/print/printers/%s/jobs", url.PathEscape(req.PrinterID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError("failed to build job request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	var job CreateJobResponse
	if err := c.doJSON(c.httpClient, httpReq, &job); err != nil {
		return nil, errors.NewUpstreamError("failed to create print job", err)
	}
	logger.Debugw("created print job", "job_id", job.ID, "printer_id", req.PrinterID)
	return &job, nil
}

// UploadDocument sends the document payload to the pre-signed upload URL
// returned by CreatePrintJob. The URL carries its own authorization, so no
// bearer token is attached and no token exchange happens here.
func (c *Client) UploadDocument(ctx context.Context, uploadURL string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/pdf"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return errors.NewInternalError("failed to build upload request", err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", contentType)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return errors.NewUpstreamError("failed to upload document", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.NewUpstreamError(
			fmt.Sprintf("document upload failed with status %d: %s", resp.StatusCode, string(body)), nil)
	}
	logger.Debugw("uploaded document", "size", len(data), "content_type", contentType)
	return nil
}

// getJSON performs an authenticated GET against the upstream API, exchanging
// the user's token first, and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, userToken, path string, out any) error {
	accessToken, err := c.exchanger.ExchangeOnBehalfOf(ctx, userToken)
	if err != nil {
		return errors.NewTokenExchangeError("failed to acquire downstream token", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return c.doJSON(c.httpClient, req, out)
}

func (c *Client) doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
