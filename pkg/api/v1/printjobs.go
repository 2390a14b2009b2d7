package v1

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/printrelay/printgw/pkg/api/errors"
	"github.com/printrelay/printgw/pkg/errors"
	"github.com/printrelay/printgw/pkg/logger"
	"github.com/printrelay/printgw/pkg/printing"
)

const (
	// maxUploadSize caps the document payload at 10 MB.
	maxUploadSize = 10 << 20

	// maxMultipartMemory is how much of a multipart body is held in memory
	// before spilling to disk.
	maxMultipartMemory = 1 << 20

	documentFormField = "document"
)

// allowedContentTypes is the document MIME allowlist. Anything else is
// rejected before the gateway is invoked.
var allowedContentTypes = map[string]struct{}{
	"application/pdf":    {},
	"text/plain":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// PrintJobsRoutes defines the routes for print job submission and tracking.
type PrintJobsRoutes struct {
	service PrintService
}

// PrintJobsRouter creates a new PrintJobsRoutes instance.
func PrintJobsRouter(service PrintService, debug bool) http.Handler {
	routes := PrintJobsRoutes{service: service}
	eh := apierrors.NewHandler(debug)

	r := chi.NewRouter()
	r.Post("/", eh.Wrap(routes.createJob))
	r.Post("/upload", eh.Wrap(routes.createJobWithDocument))
	r.Put("/{jobId}/upload", eh.Wrap(routes.uploadToJob))
	r.Get("/{printerId}/{jobId}", eh.Wrap(routes.getJob))

	return r
}

type printJobResponse struct {
	PrintJob *printing.CreateJobResponse `json:"printJob"`
}

type jobResponse struct {
	Job *printing.PrintJob `json:"job"`
}

type uploadResponse struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

// createJob
//
//	@Summary		Create a print job
//	@Description	Register a new print job and return its upload destination
//	@Tags			print-jobs
//	@Accept			json
//	@Produce		json
//	@Param			job	body		printing.PrintJobRequest	true	"Print job request"
//	@Success		201	{object}	printJobResponse
//	@Failure		400	{string}	string	"Bad Request"
//	@Failure		401	{string}	string	"Unauthorized"
//	@Failure		500	{string}	string	"Internal Server Error"
//	@Router			/api/print-jobs [post]
func (s *PrintJobsRoutes) createJob(w http.ResponseWriter, r *http.Request) error {
	userToken, err := userTokenFromRequest(r)
	if err != nil {
		return err
	}

	var req printing.PrintJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errors.NewInvalidArgumentError("Invalid request body", err)
	}
	if err := validateJobRequest(&req); err != nil {
		return err
	}

	job, err := s.service.CreatePrintJob(r.Context(), userToken, req)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, printJobResponse{PrintJob: job})
}

// createJobWithDocument
//
//	@Summary		Create a print job and upload its document
//	@Description	Register a new print job and send the document in one request
//	@Tags			print-jobs
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			document	formData	file	true	"Document to print"
//	@Param			displayName	formData	string	true	"Job display name"
//	@Param			printerId	formData	string	true	"Printer ID"
//	@Param			configuration	formData	string	false	"Print settings as JSON"
//	@Success		201	{object}	printJobResponse
//	@Failure		400	{string}	string	"Bad Request"
//	@Failure		401	{string}	string	"Unauthorized"
//	@Failure		500	{string}	string	"Internal Server Error"
//	@Router			/api/print-jobs/upload [post]
func (s *PrintJobsRoutes) createJobWithDocument(w http.ResponseWriter, r *http.Request) error {
	userToken, err := userTokenFromRequest(r)
	if err != nil {
		return err
	}

	data, contentType, err := readDocument(w, r)
	if err != nil {
		return err
	}

	req := printing.PrintJobRequest{
		DisplayName: r.FormValue("displayName"),
		PrinterID:   r.FormValue("printerId"),
	}
	if cfgJSON := r.FormValue("configuration"); cfgJSON != "" {
		var cfg printing.JobConfiguration
		if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
			return errors.NewInvalidArgumentError("Invalid configuration", err)
		}
		req.Configuration = &cfg
	}
	if err := validateJobRequest(&req); err != nil {
		return err
	}

	job, err := s.service.CreatePrintJob(r.Context(), userToken, req)
	if err != nil {
		return err
	}

	// The upstream may omit the upload destination. The job still exists,
	// so hand it back and let the caller attach the document later.
	if job.UploadURL != "" {
		if err := s.service.UploadDocument(r.Context(), job.UploadURL, data, contentType); err != nil {
			// The job already exists upstream; the caller can retry the
			// upload against it. No rollback happens here.
			logger.Errorf("Document upload failed for job %s: %v", job.ID, err)
			return err
		}
	}

	// The pre-signed URL is consumed and must never leave this tier.
	job.UploadURL = ""
	return writeJSON(w, http.StatusCreated, printJobResponse{PrintJob: job})
}

// uploadToJob
//
//	@Summary		Upload a document to an existing print job
//	@Description	Send the document for a previously created job
//	@Tags			print-jobs
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			jobId		path		string	true	"Job ID"
//	@Param			document	formData	file	true	"Document to print"
//	@Param			uploadUrl	formData	string	true	"Upload URL from job creation"
//	@Success		200	{object}	uploadResponse
//	@Failure		400	{string}	string	"Bad Request"
//	@Failure		401	{string}	string	"Unauthorized"
//	@Failure		500	{string}	string	"Internal Server Error"
//	@Router			/api/print-jobs/{jobId}/upload [put]
func (s *PrintJobsRoutes) uploadToJob(w http.ResponseWriter, r *http.Request) error {
	if _, err := userTokenFromRequest(r); err != nil {
		return err
	}

	data, contentType, err := readDocument(w, r)
	if err != nil {
		return err
	}

	uploadURL := r.FormValue("uploadUrl")
	if uploadURL == "" {
		return errors.NewInvalidArgumentError("Upload URL is required", nil)
	}

	jobID := chi.URLParam(r, "jobId")
	if err := s.service.UploadDocument(r.Context(), uploadURL, data, contentType); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, uploadResponse{
		Message: "Document uploaded successfully",
		JobID:   jobID,
	})
}

// getJob
//
//	@Summary		Get print job status
//	@Description	Get the current state of a print job
//	@Tags			print-jobs
//	@Produce		json
//	@Param			printerId	path		string	true	"Printer ID"
//	@Param			jobId		path		string	true	"Job ID"
//	@Success		200	{object}	jobResponse
//	@Failure		401	{string}	string	"Unauthorized"
//	@Failure		500	{string}	string	"Internal Server Error"
//	@Router			/api/print-jobs/{printerId}/{jobId} [get]
func (s *PrintJobsRoutes) getJob(w http.ResponseWriter, r *http.Request) error {
	userToken, err := userTokenFromRequest(r)
	if err != nil {
		return err
	}

	printerID := chi.URLParam(r, "printerId")
	jobID := chi.URLParam(r, "jobId")
	job, err := s.service.GetJobStatus(r.Context(), userToken, printerID, jobID)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, jobResponse{Job: job})
}

// validateJobRequest checks the caller-supplied required fields. This runs
// before any token exchange so malformed requests never touch the identity
// provider.
func validateJobRequest(req *printing.PrintJobRequest) error {
	if req.DisplayName == "" || req.PrinterID == "" {
		return errors.NewInvalidArgumentError("displayName and printerId are required", nil)
	}
	return nil
}

// readDocument extracts and validates the document part of a multipart
// request. The body is capped at the size ceiling before parsing, so
// oversized payloads fail fast.
func readDocument(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, "", errors.NewInvalidArgumentError("Invalid multipart request", err)
	}

	file, header, err := r.FormFile(documentFormField)
	if err != nil {
		return nil, "", errors.NewInvalidArgumentError("No document file provided", err)
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		return nil, "", errors.NewInvalidArgumentError(
			fmt.Sprintf("File too large. Documents are limited to %d MB", maxUploadSize>>20), nil)
	}

	contentType, err := documentContentType(header)
	if err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, "", errors.NewInvalidArgumentError("failed to read document", err)
	}
	if len(data) > maxUploadSize {
		return nil, "", errors.NewInvalidArgumentError(
			fmt.Sprintf("File too large. Documents are limited to %d MB", maxUploadSize>>20), nil)
	}

	return data, contentType, nil
}

// documentContentType validates the declared MIME type against the
// allowlist and returns it normalized, without parameters.
func documentContentType(header *multipart.FileHeader) (string, error) {
	declared := header.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", errors.NewInvalidArgumentError("document content type is missing or malformed", err)
	}
	if _, ok := allowedContentTypes[mediaType]; !ok {
		return "", errors.NewInvalidArgumentError(
			"Invalid file type. Only PDF, TXT, DOC, and DOCX files are allowed.", nil)
	}
	return mediaType, nil
}
