// Package remote streams log lines from an HTTP log API, exposing it as a
// line source so remote logs flow through the same ingestion path as files
// and pipes.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultUserAgent = "loupe/0.1"
	requestTimeout   = 5 * time.Second
	pollInterval     = time.Second
	defaultBatchSize = 1000
)

// Client talks to a remote log HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limit     int
}

// NewClient builds a Client from a host:port or URL value.
func NewClient(endpoint string) (*Client, error) {
	base, err := parseBaseURL(endpoint)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		limit:     defaultBatchSize,
	}, nil
}

// LogBatch is one page of log lines from the remote API.
type LogBatch struct {
	Lines     []string `json:"lines"`
	NextSince uint64   `json:"next_since"`
	More      bool     `json:"more"`
}

// FetchLogs retrieves log lines newer than the since cursor.
func (c *Client) FetchLogs(ctx context.Context, since uint64, limit int) (LogBatch, error) {
	if c == nil {
		return LogBatch{}, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if since > 0 {
		values.Set("since", strconv.FormatUint(since, 10))
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	rel := &url.URL{Path: "/api/logs", RawQuery: values.Encode()}
	var payload LogBatch
	if err := c.doURL(ctx, http.MethodGet, rel, &payload); err != nil {
		return LogBatch{}, err
	}
	return payload, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// Source adapts a Client into a streaming line source. It polls the API and
// emits each returned line in order, tracking the since cursor so lines are
// delivered exactly once. Read returns only on context cancellation or a
// request failure.
type Source struct {
	Client *Client
	// Interval overrides the poll cadence, for tests.
	Interval time.Duration

	since uint64
}

// Origin identifies the remote endpoint in errors and component fallbacks.
func (s *Source) Origin() string {
	return s.Client.baseURL.Host
}

func (s *Source) Read(ctx context.Context, emit func(text string) error) error {
	interval := s.Interval
	if interval <= 0 {
		interval = pollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.drain(ctx, emit); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain pages through everything the API has past the cursor.
func (s *Source) drain(ctx context.Context, emit func(text string) error) error {
	for {
		batch, err := s.Client.FetchLogs(ctx, s.since, s.Client.limit)
		if err != nil {
			return err
		}
		for _, line := range batch.Lines {
			if err := emit(line); err != nil {
				return err
			}
		}
		if batch.NextSince > s.since {
			s.since = batch.NextSince
		}
		if !batch.More {
			return nil
		}
	}
}
