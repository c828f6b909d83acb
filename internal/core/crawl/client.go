// Package crawl talks to the crawl service that fetches brand website
// content. Crawled pages serve as ground truth for accuracy judgments.
package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxWait      = 60 * time.Second
	maxStartAttempts    = 3
)

// CrawlError distinguishes transient network faults, which are retried
// with backoff, from terminal failures, which stop the crawl.
type CrawlError struct {
	Transient  bool
	StatusCode int
	Message    string
}

func (e *CrawlError) Error() string {
	kind := "terminal"
	if e.Transient {
		kind = "transient"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("crawl %s error: status %d: %s", kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("crawl %s error: %s", kind, e.Message)
}

// IsTransient reports whether err is a retryable crawl failure.
func IsTransient(err error) bool {
	var cerr *CrawlError
	if errors.As(err, &cerr) {
		return cerr.Transient
	}
	return false
}

// Options tunes one crawl job.
type Options struct {
	Limit    int  `json:"limit,omitempty"`
	MainOnly bool `json:"main_content_only,omitempty"`
}

// Page is one crawled page.
type Page struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// Status is the state of one crawl job.
type Status struct {
	JobID  string `json:"job_id"`
	State  string `json:"status"`
	Pages  []Page `json:"pages,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Terminal reports whether the job reached an end state.
func (s *Status) Terminal() bool {
	switch s.State {
	case "completed", "failed", "cancelled":
		return true
	default:
		return false
	}
}

// Client is an HTTP client for the crawl service. The service is eventually
// consistent: Start returns a job id and callers poll CheckStatus or Wait.
type Client struct {
	BaseURL      string
	APIKey       string
	HTTPClient   *http.Client
	PollInterval time.Duration
	// MaxWait bounds GroundTruth polling; zero means the default.
	MaxWait time.Duration
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:  strings.TrimSpace(apiKey),
	}
}

// Start submits a crawl job. Transient network errors are retried with
// backoff; terminal errors return immediately.
func (c *Client) Start(ctx context.Context, url string, opts Options) (string, error) {
	if c == nil || c.BaseURL == "" {
		return "", &CrawlError{Message: "crawl service not configured"}
	}
	if strings.TrimSpace(url) == "" {
		return "", &CrawlError{Message: "url is required"}
	}

	payload, err := json.Marshal(struct {
		URL     string  `json:"url"`
		Options Options `json:"options"`
	}{URL: url, Options: opts})
	if err != nil {
		return "", &CrawlError{Message: fmt.Sprintf("encode request: %v", err)}
	}

	var jobID string
	var lastErr error
	for attempt := 0; attempt < maxStartAttempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * time.Second
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", lastErr
			case <-timer.C:
			}
		}

		var parsed struct {
			JobID string `json:"job_id"`
		}
		lastErr = c.do(ctx, http.MethodPost, "/crawl", payload, &parsed)
		if lastErr == nil {
			jobID = parsed.JobID
			break
		}
		if !IsTransient(lastErr) {
			return "", lastErr
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	if jobID == "" {
		return "", &CrawlError{Message: "crawl service returned no job id"}
	}
	return jobID, nil
}

// CheckStatus fetches the current state of a job.
func (c *Client) CheckStatus(ctx context.Context, jobID string) (*Status, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, &CrawlError{Message: "job id is required"}
	}
	var status Status
	if err := c.do(ctx, http.MethodGet, "/crawl/"+jobID, nil, &status); err != nil {
		return nil, err
	}
	if status.JobID == "" {
		status.JobID = jobID
	}
	return &status, nil
}

// Wait polls until the job reaches a terminal state or maxWait elapses.
// A timeout returns the last observed status with a transient error.
func (c *Client) Wait(ctx context.Context, jobID string, maxWait time.Duration) (*Status, error) {
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	interval := c.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	deadline := time.Now().Add(maxWait)
	var last *Status
	for {
		status, err := c.CheckStatus(ctx, jobID)
		if err != nil {
			if !IsTransient(err) {
				return last, err
			}
		} else {
			last = status
			if status.Terminal() {
				return status, nil
			}
		}

		if time.Now().After(deadline) {
			return last, &CrawlError{Transient: true, Message: "crawl did not finish within wait window"}
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last, &CrawlError{Transient: true, Message: ctx.Err().Error()}
		case <-timer.C:
		}
	}
}

// GroundTruth crawls a brand domain and concatenates the page content into
// one reference document.
func (c *Client) GroundTruth(ctx context.Context, domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return "", &CrawlError{Message: "domain is required"}
	}
	url := domain
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	jobID, err := c.Start(ctx, url, Options{Limit: 5, MainOnly: true})
	if err != nil {
		return "", err
	}

	status, err := c.Wait(ctx, jobID, c.MaxWait)
	if err != nil {
		return "", err
	}
	if status.State != "completed" {
		return "", &CrawlError{Message: fmt.Sprintf("crawl ended in state %q: %s", status.State, status.Detail)}
	}

	var parts []string
	for _, page := range status.Pages {
		if text := strings.TrimSpace(page.Markdown); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, v any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return &CrawlError{Message: fmt.Sprintf("build request: %v", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		// Context cancellation is terminal; other transport failures are
		// worth a retry.
		transient := !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		return &CrawlError{Transient: transient, Message: err.Error()}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CrawlError{Transient: true, Message: err.Error()}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &CrawlError{Transient: true, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	default:
		return &CrawlError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, v); err != nil {
		return &CrawlError{Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}
