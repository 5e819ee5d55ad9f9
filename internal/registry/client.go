package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"wasmember/pkg/platform/circuit"
	"wasmember/pkg/platform/sentinel"
)

const (
	defaultTimeout = 5 * time.Second
	// probeInterval is how often one request is let through while the
	// circuit is open, so recovery can be observed.
	probeInterval = 15 * time.Second
)

// Client is the HTTP adapter for the legacy registry service. A circuit
// breaker sheds load during registry outages: while open, calls fail fast
// except for a periodic probe.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker

	mu        sync.Mutex
	lastProbe time.Time
}

// NewClient constructs a registry client against the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		breaker: circuit.New("legacy-registry", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
	}
}

// Search queries the registry. Transport failures and 5xx responses surface
// as sentinel.ErrUnavailable so callers can report a retryable dependency
// failure; the registry is consulted before any claim write, so its outages
// never corrupt claim state.
func (c *Client) Search(ctx context.Context, term string) ([]Candidate, error) {
	if c.breaker.IsOpen() && !c.allowProbe() {
		return nil, fmt.Errorf("registry circuit open: %w", sentinel.ErrUnavailable)
	}

	endpoint := c.baseURL + "/members/search?q=" + url.QueryEscape(term)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("registry search: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("registry responded %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		// Client errors are this service's bug, not a registry outage.
		return nil, fmt.Errorf("registry responded %d", resp.StatusCode)
	}

	var payload struct {
		Candidates []Candidate `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}
	c.breaker.RecordSuccess()
	return payload.Candidates, nil
}

func (c *Client) allowProbe() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.lastProbe) < probeInterval {
		return false
	}
	c.lastProbe = time.Now()
	return true
}
