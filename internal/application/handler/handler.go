// Package handler serves application packages resolved from the resource
// catalog.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/EOEPCA/open-science-catalog-backend/internal/catalog"
)

// ApplicationCatalog is what the handler needs from the catalog client.
type ApplicationCatalog interface {
	ManifestLink(ctx context.Context, name string) (string, error)
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// ApplicationHandler exposes catalog application packages over HTTP.
type ApplicationHandler struct {
	catalog ApplicationCatalog
	logger  *zap.SugaredLogger
}

// NewApplicationHandler creates an application handler.
func NewApplicationHandler(catalog ApplicationCatalog, logger *zap.SugaredLogger) *ApplicationHandler {
	return &ApplicationHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// Get handles GET /applications/:application. It resolves the application's
// manifest link in the resource catalog, downloads the CWL package it points
// to and returns the package decoded to JSON.
func (h *ApplicationHandler) Get(c *gin.Context) {
	name := c.Param("application")

	link, err := h.catalog.ManifestLink(c.Request.Context(), name)
	if err != nil {
		h.handleError(c, err)
		return
	}

	raw, err := h.catalog.Fetch(c.Request.Context(), link)
	if err != nil {
		h.handleError(c, err)
		return
	}

	var pkg any
	if err := yaml.Unmarshal(raw, &pkg); err != nil {
		h.logger.Errorw("Undecodable application package",
			"application", name, "href", link, "error", err)
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR",
			"application package is not valid YAML")
		return
	}

	c.JSON(http.StatusOK, pkg)
}

func (h *ApplicationHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		notFoundResponse(c, err.Error())
	case errors.Is(err, catalog.ErrNoManifest), errors.Is(err, catalog.ErrAmbiguousManifest):
		h.logger.Errorw("Catalog record has no usable manifest", "error", err)
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	case errors.Is(err, catalog.ErrUnavailable):
		h.logger.Errorw("Resource catalog unavailable", "error", err)
		errorResponse(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE",
			"the resource catalog is unavailable; try again later")
	default:
		h.logger.Errorw("Application lookup failed", "error", err)
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
