// Package router provides submission module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EOEPCA/open-science-catalog-backend/internal/middleware"
	"github.com/EOEPCA/open-science-catalog-backend/internal/platform"
	"github.com/EOEPCA/open-science-catalog-backend/internal/submission/handler"
	"github.com/EOEPCA/open-science-catalog-backend/internal/submission/repository"
	"github.com/EOEPCA/open-science-catalog-backend/internal/submission/service"
)

// RegisterRoutes registers the item submission routes. All item routes
// require a caller identity.
func RegisterRoutes(r *gin.Engine, p platform.Platform, logger *zap.SugaredLogger) {
	repo := repository.New(p, logger)
	svc := service.New(repo, logger)
	h := handler.NewItemHandler(svc, logger)

	items := r.Group("/items", middleware.RequireUser())
	items.GET("", h.List)
	items.POST("/:itemID", h.Create)
	items.GET("/:itemID", h.Get)
	items.PUT("/:itemID", h.Update)
	items.DELETE("/:itemID", h.Delete)
}
