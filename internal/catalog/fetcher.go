package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	logx "shopwatch/pkg/logx"
)

const defaultFetchTimeout = 15 * time.Second

// maxErrBody caps how much of an error response we keep for logging.
const maxErrBody = 2048

// FetchError covers everything that can go wrong talking to the catalog
// endpoint: transport failures, non-200 statuses, and undecodable bodies.
// It aborts the current cycle only; no state is mutated.
type FetchError struct {
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog fetch: %v", e.Err)
	}
	return fmt.Sprintf("catalog fetch: unexpected status %d: %s", e.Status, e.Body)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches the shop catalog.
type Client struct {
	http *http.Client
	log  logx.Logger

	mu  sync.RWMutex
	url string
}

func NewClient(url string, timeout time.Duration, log logx.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		log:  log,
		url:  url,
	}
}

// Apply updates the endpoint on config reload.
func (c *Client) Apply(url string) {
	c.mu.Lock()
	c.url = url
	c.mu.Unlock()
}

// Fetch GETs the catalog and returns its sections. A payload without a
// shopData or sections key is an empty catalog, not an error.
func (c *Client) Fetch(ctx context.Context) ([]RawSection, error) {
	c.mu.RLock()
	url := c.url
	c.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return nil, &FetchError{Status: resp.StatusCode, Body: string(body)}
	}

	var payload shopPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("decode body: %w", err)}
	}

	c.log.Debug("catalog fetched", logx.Int("sections", len(payload.ShopData.Sections)))
	return payload.ShopData.Sections, nil
}
