// Package handlers implements the HTTP endpoints for statement upload,
// job status, PDF inspection, categories and health.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dvloznov/upi-finance-tracker/internal/api/middleware"
	"github.com/dvloznov/upi-finance-tracker/internal/categorizer"
	"github.com/dvloznov/upi-finance-tracker/internal/extract"
	"github.com/dvloznov/upi-finance-tracker/internal/jobs"
	"github.com/dvloznov/upi-finance-tracker/internal/logger"
	"github.com/dvloznov/upi-finance-tracker/internal/pipeline"
)

// FormField is the multipart field holding the uploaded statement.
const FormField = "file"

// multipartOverhead leaves room for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 64 << 10

// StatementProcessor runs the statement pipeline on uploaded bytes.
type StatementProcessor interface {
	Process(ctx context.Context, fileName string, data []byte) (*pipeline.Result, error)
}

// StatementsHandler handles statement upload and inspection endpoints.
type StatementsHandler struct {
	processor StatementProcessor
	publisher jobs.Publisher
	maxBytes  int64
	now       func() time.Time
}

// NewStatementsHandler creates a new statements handler. publisher may be nil,
// in which case asynchronous uploads are rejected.
func NewStatementsHandler(processor StatementProcessor, publisher jobs.Publisher, maxBytes int64) *StatementsHandler {
	return &StatementsHandler{
		processor: processor,
		publisher: publisher,
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

type uploadResponse struct {
	*pipeline.Result
	ProcessedAt time.Time `json:"processedAt"`
}

type jobAccepted struct {
	JobID  string         `json:"jobId"`
	Status jobs.JobStatus `json:"status"`
}

// Upload handles POST /api/upload. With ?async=true the statement is queued
// and the job ID returned; otherwise the result is returned directly.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	fileName, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	if _, err := extract.FormatOf(fileName); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid file type. Only CSV, PDF, XLS, and XLSX files are allowed.")
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if h.publisher == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Asynchronous processing is not available")
			return
		}
		job := &jobs.ProcessStatementJob{FileName: fileName, Data: data}
		if err := h.publisher.PublishProcessStatement(ctx, job); err != nil {
			log.Error().Err(err).Str("file", fileName).Msg("Failed to enqueue statement")
			middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue statement")
			return
		}
		log.Info().Str("job_id", job.JobID).Str("file", fileName).Msg("Statement enqueued")
		middleware.WriteData(w, http.StatusAccepted, jobAccepted{JobID: job.JobID, Status: jobs.JobStatusPending})
		return
	}

	result, err := h.processor.Process(ctx, fileName, data)
	if err != nil {
		writeProcessError(w, err)
		return
	}
	middleware.WriteData(w, http.StatusOK, uploadResponse{Result: result, ProcessedAt: h.now().UTC()})
}

type inspectResponse struct {
	extract.Inspection
	FileName string `json:"fileName"`
}

// DebugPDF handles POST /api/debug-pdf.
func (h *StatementsHandler) DebugPDF(w http.ResponseWriter, r *http.Request) {
	fileName, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	if format, err := extract.FormatOf(fileName); err != nil || format != extract.FormatPDF {
		middleware.WriteError(w, http.StatusBadRequest, "Only PDF files can be inspected")
		return
	}

	doc, err := extract.ReadPDF(data)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Warn().Err(err).Str("file", fileName).Msg("PDF inspection failed")
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":   "Failed to read PDF",
			"message": err.Error(),
		})
		return
	}
	middleware.WriteData(w, http.StatusOK, inspectResponse{Inspection: extract.Inspect(doc), FileName: fileName})
}

// readUpload pulls the statement out of a multipart request. It writes the
// error response itself and reports false when the request is unusable.
func (h *StatementsHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(h.maxBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeTooLarge(w, h.maxBytes)
			return "", nil, false
		}
		middleware.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return "", nil, false
	}

	file, header, err := r.FormFile(FormField)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return "", nil, false
	}
	defer file.Close()

	if h.maxBytes > 0 && header.Size > h.maxBytes {
		writeTooLarge(w, h.maxBytes)
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return "", nil, false
	}
	return filepath.Base(header.Filename), data, true
}

func writeTooLarge(w http.ResponseWriter, maxBytes int64) {
	middleware.WriteError(w, http.StatusRequestEntityTooLarge,
		"File too large. Maximum size is "+strconv.FormatInt(maxBytes>>20, 10)+"MB.")
}

// writeProcessError maps pipeline failures onto HTTP statuses.
func writeProcessError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, extract.ErrUnsupportedFileType):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	middleware.WriteJSON(w, status, map[string]string{
		"error":   "Failed to process file",
		"message": err.Error(),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore) *JobsHandler {
	return &JobsHandler{store: store}
}

// GetStatus handles GET /api/status/{jobId}.
func (h *JobsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("jobId")

	job, err := h.store.GetJob(ctx, jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteData(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		FileName: query.Get("file_name"),
		Status:   jobs.JobStatus(query.Get("status")),
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil {
		filter.Offset = offset
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteData(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// CategoriesHandler serves the category taxonomy.
type CategoriesHandler struct {
	taxonomy *categorizer.Taxonomy
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(taxonomy *categorizer.Taxonomy) *CategoriesHandler {
	return &CategoriesHandler{taxonomy: taxonomy}
}

// ListCategories handles GET /api/categories.
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.WriteData(w, http.StatusOK, map[string]interface{}{
		"categories": h.taxonomy.Categories,
		"count":      len(h.taxonomy.Categories),
		"default":    h.taxonomy.Default().Name,
		"version":    h.taxonomy.Version,
	})
}

// HealthHandler reports service liveness.
type HealthHandler struct {
	aiEnabled bool
	now       func() time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(aiEnabled bool) *HealthHandler {
	return &HealthHandler{aiEnabled: aiEnabled, now: time.Now}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"aiEnabled": h.aiEnabled,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
