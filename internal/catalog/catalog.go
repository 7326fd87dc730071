// Package catalog is a client for the resource catalog holding the metadata
// records of processes and applications.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/EOEPCA/open-science-catalog-backend/pkg/retry"
)

var (
	// ErrNotFound is returned when the catalog has no record of that name.
	ErrNotFound = errors.New("catalog record not found")

	// ErrNoManifest is returned when a record carries no manifest link.
	ErrNoManifest = errors.New("no manifest link in catalog record")

	// ErrAmbiguousManifest is returned when a record carries more than one
	// manifest link, so the application package cannot be identified.
	ErrAmbiguousManifest = errors.New("multiple manifest links in catalog record")

	// ErrUnavailable is returned when the catalog cannot be reached or
	// keeps failing past the retry budget.
	ErrUnavailable = errors.New("resource catalog unavailable")
)

// Client talks to the resource catalog over its OGC API Records surface.
type Client struct {
	baseURL  string
	client   *http.Client
	retryCfg retry.Config
	logger   *zap.SugaredLogger
}

// New creates a catalog client from environment configuration.
func New(logger *zap.SugaredLogger) (*Client, error) {
	return NewWithConfig(LoadConfigFromEnv(), logger)
}

// NewWithConfig creates a catalog client from the given configuration.
func NewWithConfig(cfg Config, logger *zap.SugaredLogger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog config: %w", err)
	}
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.MetadataURL, "/"),
		client:   &http.Client{Timeout: cfg.RequestTimeout},
		retryCfg: cfg.Retry,
		logger:   logger,
	}, nil
}

// ManifestLink resolves the application package of a catalog record: the
// href of the record's single link with rel "manifest".
func (c *Client) ManifestLink(ctx context.Context, name string) (string, error) {
	raw, err := c.get(ctx, c.baseURL+"/"+url.PathEscape(name)+"?f=json")
	if err != nil {
		return "", fmt.Errorf("fetch catalog record %q: %w", name, err)
	}

	var record struct {
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return "", fmt.Errorf("decode catalog record %q: %w", name, err)
	}

	var hrefs []string
	for _, link := range record.Links {
		if link.Rel == "manifest" {
			hrefs = append(hrefs, link.Href)
		}
	}
	switch len(hrefs) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrNoManifest, name)
	case 1:
		c.logger.Debugw("Resolved manifest link", "name", name, "href", hrefs[0])
		return hrefs[0], nil
	default:
		return "", fmt.Errorf("%w: %q has %d", ErrAmbiguousManifest, name, len(hrefs))
	}
}

// Fetch downloads a document the catalog linked to, such as a CWL
// application package.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return body, nil
}

// get issues an idempotent GET with transient-failure retries. The error
// messages of server-side failures deliberately carry the HTTP status text,
// which is what the retry patterns match on.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := retry.DoWithResult(ctx, c.retryCfg, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build catalog request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("catalog returned %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if retry.IsRetryableError(err, c.retryCfg) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return body, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout() ||
		errors.Is(err, context.DeadlineExceeded)
}
