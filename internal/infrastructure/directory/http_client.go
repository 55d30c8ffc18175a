package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/propagation"

	"github.com/mantenix/inventory-service/internal/domain"
	"github.com/mantenix/inventory-service/pkg/tracing"
)

// HTTPClient reads the directory over its REST API
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the directory at baseURL
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WorkOrder fetches a work order
func (c *HTTPClient) WorkOrder(ctx context.Context, id string) (*domain.DirectoryEntry, error) {
	return c.get(ctx, "work-orders", "work order", id)
}

// Site fetches a site
func (c *HTTPClient) Site(ctx context.Context, id string) (*domain.DirectoryEntry, error) {
	return c.get(ctx, "sites", "site", id)
}

// Company fetches a company
func (c *HTTPClient) Company(ctx context.Context, id string) (*domain.DirectoryEntry, error) {
	return c.get(ctx, "companies", "company", id)
}

// User fetches a user
func (c *HTTPClient) User(ctx context.Context, id string) (*domain.DirectoryEntry, error) {
	return c.get(ctx, "users", "user", id)
}

func (c *HTTPClient) get(ctx context.Context, collection, resource, id string) (*domain.DirectoryEntry, error) {
	if id == "" {
		return nil, domain.NewNotFoundError(resource, id)
	}
	endpoint := fmt.Sprintf("%s/api/v1/%s/%s", c.baseURL, collection, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	tracing.InjectTraceContext(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError(resource, id)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("directory returned status %d for %s %s: %s", resp.StatusCode, resource, id, string(body))
	}

	var entry domain.DirectoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", resource, err)
	}
	if entry.ID == "" {
		entry.ID = id
	}
	return &entry, nil
}
