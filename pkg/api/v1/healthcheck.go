package v1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/printrelay/printgw/pkg/versions"
)

// HealthcheckRouter sets up the healthcheck route. It is mounted outside
// the authenticated API tree so load balancers can probe it anonymously.
func HealthcheckRouter() http.Handler {
	routes := &healthcheckRoutes{}
	r := chi.NewRouter()
	r.Get("/", routes.getHealthcheck)
	return r
}

type healthcheckRoutes struct{}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

//	 getHealthcheck
//		@Summary		Health check
//		@Description	Check if the API is healthy
//		@Tags			system
//		@Success		200	{object}	healthResponse
//		@Router			/health [get]
func (*healthcheckRoutes) getHealthcheck(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   versions.GetVersionInfo().Version,
	})
}
