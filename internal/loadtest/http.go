package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTP status code constants.
const (
	statusOK        = 200
	statusCreated   = 201
	statusNoContent = 204
	statusConflict  = 409
)

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request and decodes the JSON response into out.
func (c *HTTPClient) Get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %s: %s", url, resp.Status, string(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Post performs a POST request with a JSON body. The response status is
// returned so callers can distinguish duplicates from failures.
func (c *HTTPClient) Post(ctx context.Context, url string, body, out interface{}) (int, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode, nil
}

// drainDesks completes every open folder concurrently using worker pools.
func drainDesks(ctx context.Context, config *Config, open []Assignment, stats *Stats) error {
	log.Printf("📤 Completing %d folders with %d workers...", len(open), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/complete"

	// Counters for statistics
	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	caseChan := make(chan Assignment, config.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for a := range caseChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddInt64(&submitted, 1)
				body := map[string]string{"case_id": a.CaseID, "outcome": "done"}
				status, err := client.Post(ctx, url, body, nil)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Printf("⚠️  completion failed for %s: %v", a.CaseID, err)
					}
				case status == statusConflict:
					atomic.AddInt64(&duplicate, 1)
				case status == statusOK:
					atomic.AddInt64(&successful, 1)
				default:
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Printf("⚠️  completion for %s returned status %d", a.CaseID, status)
					}
				}
			}
		}()
	}

	for _, a := range open {
		caseChan <- a
	}
	close(caseChan)
	wg.Wait()

	stats.CompletionsSubmitted = int(submitted)
	stats.CompletionsOK = int(successful)
	stats.CompletionsDuplicate = int(duplicate)
	stats.CompletionsFailed = int(failed)

	log.Printf("✅ Completions: %d ok, %d duplicate, %d failed", successful, duplicate, failed)
	return nil
}
