package catalog

import (
	"fmt"
	"net/url"
	"time"

	appConfig "github.com/EOEPCA/open-science-catalog-backend/internal/config"
	"github.com/EOEPCA/open-science-catalog-backend/pkg/retry"
)

// Config holds the resource catalog connection configuration.
type Config struct {
	// MetadataURL is the base URL of the catalog's metadata API; records
	// live directly underneath it.
	MetadataURL string
	// RequestTimeout bounds every catalog call, including downloads.
	RequestTimeout time.Duration
	// Retry controls backoff for transient catalog failures.
	Retry retry.Config
}

// LoadConfigFromEnv loads catalog configuration from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		MetadataURL:    appConfig.GetEnv("RESOURCE_CATALOG_METADATA_URL", ""),
		RequestTimeout: appConfig.GetEnvDuration("CATALOG_REQUEST_TIMEOUT", 30*time.Second),
		Retry:          retry.TransientConfig(),
	}
}

// Validate validates catalog configuration.
func (c Config) Validate() error {
	if c.MetadataURL == "" {
		return fmt.Errorf("RESOURCE_CATALOG_METADATA_URL must be set")
	}
	parsed, err := url.Parse(c.MetadataURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("RESOURCE_CATALOG_METADATA_URL must be an absolute URL, got %q", c.MetadataURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("CATALOG_REQUEST_TIMEOUT must be greater than 0")
	}
	return nil
}
