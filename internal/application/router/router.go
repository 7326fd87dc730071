// Package router provides application module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EOEPCA/open-science-catalog-backend/internal/application/handler"
)

// RegisterRoutes registers the application package routes.
func RegisterRoutes(r *gin.Engine, catalog handler.ApplicationCatalog, logger *zap.SugaredLogger) {
	h := handler.NewApplicationHandler(catalog, logger)

	r.GET("/applications/:application", h.Get)
}
