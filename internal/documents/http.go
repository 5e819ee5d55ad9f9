package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"wasmember/pkg/platform/sentinel"
)

const defaultTimeout = 30 * time.Second

// Client is the HTTP adapter for the blob store.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a document store client against the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Put validates the upload, streams it to the blob store and returns the
// opaque reference. Store outages surface as sentinel.ErrUnavailable; they
// happen before any claim write and never corrupt claim state.
func (c *Client) Put(ctx context.Context, up Upload) (Ref, error) {
	if err := ValidateUpload(up); err != nil {
		return Ref{}, err
	}

	endpoint := c.baseURL + "/documents?name=" + url.QueryEscape(up.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, up.Body)
	if err != nil {
		return Ref{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", up.ContentType)
	req.ContentLength = up.Size

	resp, err := c.http.Do(req)
	if err != nil {
		return Ref{}, fmt.Errorf("upload document: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Ref{}, fmt.Errorf("document store responded %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Ref{}, fmt.Errorf("document store responded %d", resp.StatusCode)
	}

	var ref Ref
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return Ref{}, fmt.Errorf("decode document store response: %w", err)
	}
	return ref, nil
}
