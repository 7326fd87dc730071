// Package service relays requests to remote processing backends and
// orchestrates process deployment.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/EOEPCA/open-science-catalog-backend/internal/processing/model"
)

// proxyTimeout bounds a single relayed request, including long-running
// backend operations such as process execution submits.
const proxyTimeout = 60 * time.Second

// excludedResponseHeaders are dropped when relaying an upstream response.
// The relayed body is already decoded, so the upstream framing and encoding
// headers would no longer be true.
var excludedResponseHeaders = []string{
	"Content-Encoding",
	"Content-Length",
	"Transfer-Encoding",
	"Connection",
}

// excludedRequestHeaders are not forwarded upstream. Framing is recomputed
// for the outbound request, and the transport negotiates its own
// Accept-Encoding so upstream bodies arrive decoded.
var excludedRequestHeaders = []string{
	"Accept-Encoding",
	"Connection",
	"Content-Length",
	"Transfer-Encoding",
}

// CatalogClient resolves application package links from the resource catalog.
type CatalogClient interface {
	ManifestLink(ctx context.Context, name string) (string, error)
}

// ProxyRequest describes an inbound request to relay to a remote backend.
type ProxyRequest struct {
	// Backend names the remote backend from the configured mapping.
	Backend string
	// Service is the backend API section, such as "processes" or "jobs".
	Service string
	// Path is the remainder of the request path after the service section.
	// May be empty.
	Path string
	// Method is the HTTP method to relay.
	Method string
	// Query carries the inbound query parameters.
	Query url.Values
	// Header carries the inbound request headers.
	Header http.Header
	// Body is the inbound request body.
	Body []byte
}

// ProxyResult is a relayed upstream response. Upstream errors are carried
// here as status codes, never as Go errors, so clients see the backend's
// own replies.
type ProxyResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Service relays processing requests and deploys application packages.
type Service struct {
	backends model.Backends
	catalog  CatalogClient
	client   *http.Client
	logger   *zap.SugaredLogger
}

// New creates a processing service over the configured backend mapping.
func New(backends model.Backends, catalog CatalogClient, logger *zap.SugaredLogger) *Service {
	return &Service{
		backends: backends,
		catalog:  catalog,
		client: &http.Client{
			Timeout: proxyTimeout,
			// Redirects are relayed to the caller, not followed here.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Proxy relays a request to the named backend and returns its response.
func (s *Service) Proxy(ctx context.Context, req ProxyRequest) (*ProxyResult, error) {
	baseURL, err := s.backends.Resolve(req.Backend)
	if err != nil {
		return nil, err
	}

	target := baseURL + "/" + req.Service
	if req.Path != "" {
		target += "/" + req.Path
	}
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}
	copyHeaders(httpReq.Header, req.Header, excludedRequestHeaders)

	s.logger.Infow("Proxying request", "method", req.Method, "url", target)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", model.ErrBackendUnavailable, req.Method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response of %s: %v", model.ErrBackendUnavailable, target, err)
	}

	s.logger.Infow("Proxied request", "url", target, "status", resp.StatusCode, "size", len(body))

	header := make(http.Header, len(resp.Header))
	copyHeaders(header, resp.Header, excludedResponseHeaders)

	return &ProxyResult{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       body,
	}, nil
}

// DeployProcess deploys the named application package on a backend and
// returns the location of the deployed process. Only the caller identity is
// forwarded to the backend.
func (s *Service) DeployProcess(ctx context.Context, user, backend, process string) (string, error) {
	baseURL, err := s.backends.Resolve(backend)
	if err != nil {
		return "", err
	}

	cwlLink, err := s.catalog.ManifestLink(ctx, process)
	if err != nil {
		return "", fmt.Errorf("resolve application package of %q: %w", process, err)
	}

	payload, err := json.Marshal(deployPayload(cwlLink))
	if err != nil {
		return "", fmt.Errorf("encode deploy payload: %w", err)
	}

	target := baseURL + "/processes"
	s.logger.Infow("Deploying process", "process", process, "url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build deploy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", user)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: deploy to %s: %v", model.ErrBackendUnavailable, target, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Warnw("Process deploy rejected",
			"process", process, "status", resp.StatusCode, "response", string(body))
		return "", fmt.Errorf("%w: backend returned %s", model.ErrDeployFailed, resp.Status)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("%w: deploy response carries no Location header", model.ErrDeployFailed)
	}

	s.logger.Infow("Deployed process", "process", process, "location", location)
	return location, nil
}

// ExecuteProcess deploys the named application package to obtain its process
// id, then relays the execution request to the deployed process.
func (s *Service) ExecuteProcess(ctx context.Context, user, process string, req ProxyRequest) (*ProxyResult, error) {
	location, err := s.DeployProcess(ctx, user, req.Backend, process)
	if err != nil {
		return nil, err
	}

	segments := strings.Split(location, "/")
	processID := segments[len(segments)-1]
	if processID == "" {
		return nil, fmt.Errorf("%w: no process id in location %q", model.ErrDeployFailed, location)
	}

	s.logger.Infow("Executing deployed process", "process", process, "process_id", processID)

	req.Service = "processes"
	req.Path = processID + "/execution"
	return s.Proxy(ctx, req)
}

// deployPayload builds an OGC API Processes deploy request referencing a CWL
// application package by link.
func deployPayload(cwlLink string) map[string]any {
	return map[string]any{
		"inputs": map[string]any{
			"applicationPackage": map[string]any{
				"href": cwlLink,
				"type": "application/cwl",
			},
		},
	}
}

func copyHeaders(dst http.Header, src http.Header, excluded []string) {
	for name, values := range src {
		if excludedHeader(name, excluded) {
			continue
		}
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}

func excludedHeader(name string, excluded []string) bool {
	for _, candidate := range excluded {
		if strings.EqualFold(name, candidate) {
			return true
		}
	}
	return false
}
