package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnexpectedStatus is wrapped into errors returned for non-200
// responses from the metadata service.
var ErrUnexpectedStatus = errors.New("metadata: unexpected response status")

// Client fetches field lists from the metadata REST service.
type Client struct {
	base   string
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a metadata client for the service at baseURL.
// A nil logger disables logging.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchCatalog requests the full Data Extension catalog and the
// account's shared-folder set, used to seed a Registry at startup.
func (c *Client) FetchCatalog(ctx context.Context) ([]DataExtension, []int, error) {
	endpoint := c.base + "/dataextensions"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("metadata: build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("metadata: fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("metadata: fetch catalog: %w (%d)",
			ErrUnexpectedStatus, resp.StatusCode)
	}

	var payload struct {
		Items           []DataExtension `json:"items"`
		SharedFolderIDs []int           `json:"sharedFolderIds"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, nil, fmt.Errorf("metadata: decode catalog: %w", err)
	}

	c.logger.Debug("Fetched data extension catalog",
		zap.Int("count", len(payload.Items)),
		zap.Int("sharedFolders", len(payload.SharedFolderIDs)),
		zap.Duration("elapsed", time.Since(start)))

	return payload.Items, payload.SharedFolderIDs, nil
}

// FetchFields requests the field list for one Data Extension.
func (c *Client) FetchFields(ctx context.Context, customerKey string) ([]Field, error) {
	endpoint := c.base + "/dataextensions/" + url.PathEscape(customerKey) + "/fields"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("metadata: build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("Field fetch failed",
			zap.String("customerKey", customerKey),
			zap.Error(err))

		return nil, fmt.Errorf("metadata: fetch fields for %s: %w", customerKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("Field fetch returned non-OK status",
			zap.String("customerKey", customerKey),
			zap.Int("status", resp.StatusCode))

		return nil, fmt.Errorf("metadata: fetch fields for %s: %w (%d)",
			customerKey, ErrUnexpectedStatus, resp.StatusCode)
	}

	var payload struct {
		Fields []Field `json:"fields"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("metadata: decode fields for %s: %w", customerKey, err)
	}

	c.logger.Debug("Fetched fields",
		zap.String("customerKey", customerKey),
		zap.Int("count", len(payload.Fields)),
		zap.Duration("elapsed", time.Since(start)))

	return payload.Fields, nil
}
