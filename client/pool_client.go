// Package client talks to the external transcription worker pool. The pool
// owns its wire format; this client only needs to hand over a job id plus
// an audio reference, and to collect job outcomes. Delivery of outcomes is
// at-least-once, which the gateway's idempotency absorbs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mediscribe/contract"
	"mediscribe/domain"
)

// PoolClient submits jobs to the pool over HTTP and polls it for finished
// outcomes.
type PoolClient struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func NewPoolClient(baseURL string, timeout time.Duration, log *slog.Logger) *PoolClient {
	return &PoolClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

var _ contract.Transcriber = (*PoolClient)(nil)

// Transcribe hands one job to the pool. A non-2xx answer is an error so
// the dispatch worker requeues the job.
func (c *PoolClient) Transcribe(ctx context.Context, job domain.JobRequest) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.JobID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit job %s: %w", job.JobID, err)
	}
	defer closeBody(resp.Body, c.log)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("worker pool rejected job %s: %s", job.JobID, resp.Status)
	}
	return nil
}

// Poll fetches finished outcomes. The pool keeps redelivering a result
// until it decides the consumer has it; duplicates are expected.
func (c *PoolClient) Poll(ctx context.Context) ([]domain.JobResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/results", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll worker pool: %w", err)
	}
	defer closeBody(resp.Body, c.log)

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("worker pool poll failed: %s", resp.Status)
	}

	var results []domain.JobResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return results, nil
}

func closeBody(body io.ReadCloser, log *slog.Logger) {
	if err := body.Close(); err != nil {
		log.Debug("Failed to close response body", "error", err)
	}
}
