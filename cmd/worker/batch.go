package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/upi-finance-tracker/internal/jobs"
)

const pollInterval = 100 * time.Millisecond

// runBatch enqueues one job per location and waits until every job has
// completed or failed. Jobs are returned in input order.
func runBatch(ctx context.Context, pub jobs.Publisher, store jobs.JobStore, locations []string) ([]*jobs.ProcessStatementJob, error) {
	ids := make([]string, 0, len(locations))
	for _, loc := range locations {
		job := &jobs.ProcessStatementJob{
			FileName: filepath.Base(filepath.FromSlash(loc)),
			Location: loc,
		}
		if err := pub.PublishProcessStatement(ctx, job); err != nil {
			return nil, fmt.Errorf("runBatch: enqueue %s: %w", loc, err)
		}
		ids = append(ids, job.JobID)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		finished, err := collect(ctx, store, ids)
		if err != nil {
			return nil, err
		}
		if finished != nil {
			return finished, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// collect returns the jobs once all are terminal, or nil while any is pending.
func collect(ctx context.Context, store jobs.JobStore, ids []string) ([]*jobs.ProcessStatementJob, error) {
	out := make([]*jobs.ProcessStatementJob, 0, len(ids))
	for _, id := range ids {
		job, err := store.GetJob(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}
		if !job.Status.Terminal() {
			return nil, nil
		}
		out = append(out, job)
	}
	return out, nil
}

// writeResults stores each completed job's result as NN-<file>.json and
// returns how many jobs failed.
func writeResults(dir string, finished []*jobs.ProcessStatementJob) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("writeResults: create %s: %w", dir, err)
	}
	failed := 0
	for i, job := range finished {
		if job.Status != jobs.JobStatusCompleted || job.Result == nil {
			failed++
			continue
		}
		name := fmt.Sprintf("%02d-%s.json", i+1, strings.TrimSuffix(job.FileName, filepath.Ext(job.FileName)))
		data, err := json.MarshalIndent(job.Result, "", "  ")
		if err != nil {
			return failed, fmt.Errorf("writeResults: encode %s: %w", job.FileName, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return failed, fmt.Errorf("writeResults: write %s: %w", name, err)
		}
	}
	return failed, nil
}

func printReport(w io.Writer, finished []*jobs.ProcessStatementJob) {
	for _, job := range finished {
		if job.Status != jobs.JobStatusCompleted || job.Result == nil {
			fmt.Fprintf(w, "FAILED  %s: %s\n", job.Location, job.Error)
			continue
		}
		res := job.Result
		fmt.Fprintf(w, "OK      %s: %d transactions (%s, %s, confidence %s)\n",
			job.Location, len(res.Transactions), res.Source, orDash(res.Strategy), res.Confidence)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
