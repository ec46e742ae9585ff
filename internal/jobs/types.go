// Package jobs defines asynchronous statement processing jobs and the
// queue and store contracts that run them.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/upi-finance-tracker/internal/pipeline"
)

var (
	// ErrJobNotFound is returned when a job ID is unknown to the store.
	ErrJobNotFound = errors.New("job not found")
	// ErrQueueClosed is returned when publishing to or starting a stopped queue.
	ErrQueueClosed = errors.New("queue is closed")
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeProcessStatement represents a statement processing job.
	JobTypeProcessStatement JobType = "process_statement"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// Terminal reports whether no further transitions will happen.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ProcessStatementJob represents a job to process one uploaded statement.
type ProcessStatementJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"jobId"`

	// FileName is the uploaded file's name, used for type and source detection.
	FileName string `json:"fileName"`

	// Location is a gs:// URI or local path to fetch when Data is empty.
	Location string `json:"location,omitempty"`

	// Data holds the uploaded bytes. It is released once the job finishes.
	Data []byte `json:"-"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"createdAt"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"startedAt,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retryCount"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"maxRetries"`

	// Result is set when the job completes.
	Result *pipeline.Result `json:"result,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ProcessStatementJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ProcessStatementJob) GetType() JobType {
	return JobTypeProcessStatement
}

// GetStatus implements the Job interface.
func (j *ProcessStatementJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishProcessStatement enqueues a statement processing job. It fills in
	// JobID, Status and CreatedAt when they are unset.
	PublishProcessStatement(ctx context.Context, job *ProcessStatementJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job and records its output on it.
// A returned error marks the attempt failed and may trigger a retry.
type JobHandler func(ctx context.Context, job *ProcessStatementJob) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ProcessStatementJob) error

	// GetJob retrieves a job by ID. Unknown IDs yield ErrJobNotFound.
	GetJob(ctx context.Context, jobID string) (*ProcessStatementJob, error)

	// ListJobs retrieves jobs, oldest first, with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ProcessStatementJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// FileName filters jobs by uploaded file name.
	FileName string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}

// ProcessorHandler adapts a statement processor into a JobHandler.
func ProcessorHandler(p StatementProcessor) JobHandler {
	return func(ctx context.Context, job *ProcessStatementJob) error {
		var (
			result *pipeline.Result
			err    error
		)
		if len(job.Data) > 0 || job.Location == "" {
			result, err = p.Process(ctx, job.FileName, job.Data)
		} else {
			result, err = p.ProcessLocation(ctx, job.Location)
		}
		if err != nil {
			return err
		}
		job.Result = result
		return nil
	}
}

// StatementProcessor is the subset of pipeline.Processor used by jobs.
type StatementProcessor interface {
	Process(ctx context.Context, fileName string, data []byte) (*pipeline.Result, error)
	ProcessLocation(ctx context.Context, location string) (*pipeline.Result, error)
}
