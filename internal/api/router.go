// Package api assembles the HTTP routes and middleware of the statement service.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/upi-finance-tracker/internal/api/handlers"
	"github.com/dvloznov/upi-finance-tracker/internal/api/middleware"
	"github.com/dvloznov/upi-finance-tracker/internal/categorizer"
	"github.com/dvloznov/upi-finance-tracker/internal/jobs"
)

// Dependencies are the collaborators the routes need.
type Dependencies struct {
	Processor handlers.StatementProcessor
	Publisher jobs.Publisher
	Store     jobs.JobStore
	Taxonomy  *categorizer.Taxonomy
	AIEnabled bool
	MaxBytes  int64
	Logger    zerolog.Logger
}

// NewRouter builds the service handler with middleware applied.
func NewRouter(deps Dependencies) http.Handler {
	statements := handlers.NewStatementsHandler(deps.Processor, deps.Publisher, deps.MaxBytes)
	jobsHandler := handlers.NewJobsHandler(deps.Store)
	categories := handlers.NewCategoriesHandler(deps.Taxonomy)
	health := handlers.NewHealthHandler(deps.AIEnabled)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", statements.Upload)
	mux.HandleFunc("POST /api/debug-pdf", statements.DebugPDF)
	mux.HandleFunc("GET /api/status/{jobId}", jobsHandler.GetStatus)
	mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /api/categories", categories.ListCategories)
	mux.HandleFunc("GET /api/health", health.Health)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})

	return middleware.Chain(mux,
		middleware.Recovery(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logger(deps.Logger),
		middleware.CORS,
	)
}
