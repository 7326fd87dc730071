// Package model defines the processing domain: the mapping of remote
// processing backends requests may be forwarded to.
package model

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	appConfig "github.com/EOEPCA/open-science-catalog-backend/internal/config"
)

// backendMappingEnv holds a JSON object mapping backend names to the base
// URLs of their OGC API Processes endpoints.
const backendMappingEnv = "REMOTE_PROCESSING_BACKEND_MAPPING"

// Backends maps the name of a remote processing backend to its API base URL.
type Backends map[string]string

// LoadBackendsFromEnv reads the backend mapping from the environment.
// An unset variable yields an empty mapping.
func LoadBackendsFromEnv() (Backends, error) {
	return ParseBackends(appConfig.GetEnv(backendMappingEnv, "{}"))
}

// ParseBackends decodes a JSON backend mapping and normalizes its URLs.
func ParseBackends(raw string) (Backends, error) {
	var mapping map[string]string
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		return nil, fmt.Errorf("decode %s: %w", backendMappingEnv, err)
	}

	backends := make(Backends, len(mapping))
	for name, rawURL := range mapping {
		if name == "" {
			return nil, fmt.Errorf("%s: backend name must not be empty", backendMappingEnv)
		}
		parsed, err := url.Parse(rawURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("%s: backend %q URL %q must be absolute", backendMappingEnv, name, rawURL)
		}
		backends[name] = strings.TrimSuffix(rawURL, "/")
	}
	return backends, nil
}

// Resolve returns the API base URL of the named backend.
func (b Backends) Resolve(name string) (string, error) {
	baseURL, ok := b[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return baseURL, nil
}

// Names returns the configured backend names in sorted order.
func (b Backends) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
