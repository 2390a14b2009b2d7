package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/printrelay/printgw/pkg/api/errors"
	"github.com/printrelay/printgw/pkg/printing"
)

// PrintersRoutes defines the routes for printer browsing.
type PrintersRoutes struct {
	service PrintService
}

// PrintersRouter creates a new PrintersRoutes instance.
func PrintersRouter(service PrintService, debug bool) http.Handler {
	routes := PrintersRoutes{service: service}
	eh := apierrors.NewHandler(debug)

	r := chi.NewRouter()
	r.Get("/", eh.Wrap(routes.listPrinters))
	r.Get("/{printerId}/jobs", eh.Wrap(routes.listPrinterJobs))

	return r
}

type printerListResponse struct {
	Printers []printing.Printer `json:"printers"`
}

type jobListResponse struct {
	Jobs []printing.PrintJob `json:"jobs"`
}

// listPrinters
//
//	@Summary		List printers
//	@Description	Get the printers shared with the calling user
//	@Tags			printers
//	@Produce		json
//	@Success		200	{object}	printerListResponse
//	@Failure		401	{string}	string	"Unauthorized"
//	@Failure		500	{string}	string	"Internal Server Error"
//	@Router			/api/printers [get]
func (s *PrintersRoutes) listPrinters(w http.ResponseWriter, r *http.Request) error {
	userToken, err := userTokenFromRequest(r)
	if err != nil {
		return err
	}

	printers, err := s.service.ListPrinters(r.Context(), userToken)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, printerListResponse{Printers: printers})
}

// listPrinterJobs
//
//	@Summary		List print jobs
//	@Description	Get the print jobs queued on a printer
//	@Tags			printers
//	@Produce		json
//	@Param			printerId	path		string	true	"Printer ID"
//	@Success		200			{object}	jobListResponse
//	@Failure		401			{string}	string	"Unauthorized"
//	@Failure		500			{string}	string	"Internal Server Error"
//	@Router			/api/printers/{printerId}/jobs [get]
func (s *PrintersRoutes) listPrinterJobs(w http.ResponseWriter, r *http.Request) error {
	userToken, err := userTokenFromRequest(r)
	if err != nil {
		return err
	}

	printerID := chi.URLParam(r, "printerId")
	jobs, err := s.service.ListPrintJobs(r.Context(), userToken, printerID)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, jobListResponse{Jobs: jobs})
}
