// Package router provides processing module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EOEPCA/open-science-catalog-backend/internal/processing/handler"
	"github.com/EOEPCA/open-science-catalog-backend/internal/processing/model"
	"github.com/EOEPCA/open-science-catalog-backend/internal/processing/service"
)

// RegisterRoutes registers the processing reverse proxy routes.
func RegisterRoutes(r *gin.Engine, backends model.Backends, catalog service.CatalogClient, logger *zap.SugaredLogger) {
	svc := service.New(backends, catalog, logger)
	h := handler.NewProcessingHandler(svc, logger)

	r.Any("/processing/:backend/*proxyPath", h.Relay)
}
