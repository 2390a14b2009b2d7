package printing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printrelay/printgw/pkg/errors"
)

// stubExchanger records exchange calls and hands back a fixed token.
type stubExchanger struct {
	token string
	err   error
	calls int
}

func (s *stubExchanger) ExchangeOnBehalfOf(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func TestListPrinters(t *testing.T) {
	t.Parallel()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/print/printers", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[{"id":"p1","name":"Front Desk","manufacturer":"Acme","model":"X100","isShared":true,"status":{"state":"ready"}}]}`))
	}))
	defer server.Close()

	exchanger := &stubExchanger{token: "downstream-token"}
	client := NewClient(server.URL, exchanger)

	printers, err := client.ListPrinters(context.Background(), "user-token")
	require.NoError(t, err)
	require.Len(t, printers, 1)
	assert.Equal(t, "p1", printers[0].ID)
	assert.Equal(t, "Front Desk", printers[0].Name)
	assert.True(t, printers[0].IsShared)
	require.NotNil(t, printers[0].Status)
	assert.Equal(t, "ready", printers[0].Status.State)
	assert.Equal(t, "Bearer downstream-token", gotAuth)
	assert.Equal(t, 1, exchanger.calls)
}

func TestListPrintersEmptyEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &stubExchanger{token: "tok"})

	printers, err := client.ListPrinters(context.Background(), "user-token")
	require.NoError(t, err)
	assert.NotNil(t, printers)
	assert.Empty(t, printers)
}

func TestListPrintersUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, &stubExchanger{token: "tok"})

	_, err := client.ListPrinters(context.Background(), "user-token")
	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err))
}

func TestExchangeFailureSkipsUpstream(t *testing.T) {
	t.Parallel()

	upstreamCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		upstreamCalled = true
	}))
	defer server.Close()

	exchanger := &stubExchanger{err: assert.AnError}
	client := NewClient(server.URL, exchanger)

	_, err := client.ListPrinters(context.Background(), "user-token")
	require.Error(t, err)
	assert.True(t, errors.IsTokenExchange(err))
	assert.False(t, upstreamCalled)
}

func TestFreshExchangePerOperation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer server.Close()

	exchanger := &stubExchanger{token: "tok"}
	client := NewClient(server.URL, exchanger)

	_, err := client.ListPrinters(context.Background(), "user-token")
	require.NoError(t, err)
	_, err = client.ListPrintJobs(context.Background(), "user-token", "p1")
	require.NoError(t, err)

	assert.Equal(t, 2, exchanger.calls)
}

func TestCreatePrintJob(t *testing.T) {
	t.Parallel()

	var gotBody map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/print/printers/p1/jobs", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"j1","status":{"state":"paused","description":"awaiting document"},"uploadUrl":"https://upload.example.com/presigned"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &stubExchanger{token: "tok"})

	copies := 2
	job, err := client.CreatePrintJob(context.Background(), "user-token", PrintJobRequest{
		DisplayName: "quarterly report",
		PrinterID:   "p1",
		Configuration: &JobConfiguration{
			Copies:    &copies,
			ColorMode: ColorModeGrayscale,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, "paused", job.Status.State)
	assert.Equal(t, "https://upload.example.com/presigned", job.UploadURL)

	assert.JSONEq(t, `"quarterly report"`, string(gotBody["displayName"]))
	assert.JSONEq(t, `{"copies":2,"colorMode":"grayscale"}`, string(gotBody["configuration"]))
}

func TestCreatePrintJobNilConfiguration(t *testing.T) {
	t.Parallel()

	var gotBody map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"id":"j2","status":{"state":"paused"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &stubExchanger{token: "tok"})

	job, err := client.CreatePrintJob(context.Background(), "user-token", PrintJobRequest{
		DisplayName: "plain job",
		PrinterID:   "p1",
	})
	require.NoError(t, err)
	assert.Equal(t, "j2", job.ID)
	assert.JSONEq(t, `{}`, string(gotBody["configuration"]))
}

func TestUploadDocumentOmitsBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth, gotContentType string
	var gotLength int64
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotLength = r.ContentLength
		assert.Equal(t, http.MethodPut, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = body
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	exchanger := &stubExchanger{token: "tok"}
	client := NewClient("http://unused.invalid", exchanger)

	data := []byte("%PDF-1.7 fake document")
	err := client.UploadDocument(context.Background(), server.URL+"/presigned", data, "application/pdf")
	require.NoError(t, err)

	assert.Empty(t, gotAuth, "pre-signed upload must not carry a bearer token")
	assert.Equal(t, 0, exchanger.calls, "upload must not trigger a token exchange")
	assert.Equal(t, "application/pdf", gotContentType)
	assert.Equal(t, int64(len(data)), gotLength)
	assert.Equal(t, data, gotBody)
}

func TestUploadEmptyDocument(t *testing.T) {
	t.Parallel()

	var gotLength int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient("http://unused.invalid", &stubExchanger{token: "tok"})

	err := client.UploadDocument(context.Background(), server.URL, []byte{}, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gotLength)
}

func TestUploadDocumentFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("signature expired"))
	}))
	defer server.Close()

	client := NewClient("http://unused.invalid", &stubExchanger{token: "tok"})

	err := client.UploadDocument(context.Background(), server.URL, []byte("data"), "text/plain")
	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err))
	assert.Contains(t, err.Error(), "403")
}

func TestGetJobStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/print/printers/p1/jobs/j1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"j1","displayName":"quarterly report","status":{"state":"completed"},"createdBy":{"userPrincipalName":"user@example.com"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &stubExchanger{token: "tok"})

	job, err := client.GetJobStatus(context.Background(), "user-token", "p1", "j1")
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, "completed", job.Status.State)
	assert.Equal(t, "user@example.com", job.CreatedBy.UserPrincipalName)

	// A repeated read is side-effect free and returns the same state.
	again, err := client.GetJobStatus(context.Background(), "user-token", "p1", "j1")
	require.NoError(t, err)
	assert.Equal(t, job, again)
}

func TestListPrintJobs(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/print/printers/p%201/jobs", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"value":[{"id":"j1","displayName":"a","status":{"state":"processing"}},{"id":"j2","displayName":"b","status":{"state":"completed"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &stubExchanger{token: "tok"})

	jobs, err := client.ListPrintJobs(context.Background(), "user-token", "p 1")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "processing", jobs[0].Status.State)
	assert.Equal(t, "completed", jobs[1].Status.State)
}

func TestEmptyConfigurationMarshalsToEmptyObject(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(&JobConfiguration{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestJobConfigurationRoundTrip(t *testing.T) {
	t.Parallel()

	copies := 3
	dpi := 600
	fit := true
	cfg := JobConfiguration{
		PageRanges:      []PageRange{{Start: 1, End: 4}, {Start: 9, End: 9}},
		Quality:         QualityHigh,
		FeedOrientation: OrientationLandscape,
		Orientation:     OrientationLandscape,
		Copies:          &copies,
		DPI:             &dpi,
		FitPdfToPage:    &fit,
		ColorMode:       ColorModeGrayscale,
		Duplex:          DuplexShortEdge,
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var got JobConfiguration
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, cfg, got)
}
