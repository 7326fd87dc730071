package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EOEPCA/open-science-catalog-backend/internal/middleware"
	"github.com/EOEPCA/open-science-catalog-backend/internal/platform"
	"github.com/EOEPCA/open-science-catalog-backend/internal/submission/model"
)

// ItemService is what the handlers need from the submission service.
type ItemService interface {
	CreateItem(ctx context.Context, submitter model.Submitter, itemID, itemType string, content []byte) (model.CreatedResponse, error)
	UpdateItem(ctx context.Context, submitter model.Submitter, itemID, itemType string, content []byte) (model.CreatedResponse, error)
	DeleteItem(ctx context.Context, submitter model.Submitter, itemID, itemType string) (model.CreatedResponse, error)
	ListItems(ctx context.Context, user string, filter model.Filter) ([]string, error)
	GetItem(ctx context.Context, user, itemID string) ([]byte, error)
}

// ItemHandler exposes the item submission workflow over HTTP.
type ItemHandler struct {
	service ItemService
	logger  *zap.SugaredLogger
}

// NewItemHandler creates an item handler.
func NewItemHandler(service ItemService, logger *zap.SugaredLogger) *ItemHandler {
	return &ItemHandler{
		service: service,
		logger:  logger,
	}
}

// Create handles POST /items/:itemID. The raw request body is the item file
// content; the submission goes up for review as a pull request.
func (h *ItemHandler) Create(c *gin.Context) {
	content, err := c.GetRawData()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to read request body")
		return
	}

	created, err := h.service.CreateItem(c.Request.Context(), submitterFrom(c),
		c.Param("itemID"), c.Query("item_type"), content)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT /items/:itemID.
func (h *ItemHandler) Update(c *gin.Context) {
	content, err := c.GetRawData()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to read request body")
		return
	}

	if _, err := h.service.UpdateItem(c.Request.Context(), submitterFrom(c),
		c.Param("itemID"), c.Query("item_type"), content); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /items/:itemID.
func (h *ItemHandler) Delete(c *gin.Context) {
	if _, err := h.service.DeleteItem(c.Request.Context(), submitterFrom(c),
		c.Param("itemID"), c.Query("item_type")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List handles GET /items. The filter query parameter selects pending or
// confirmed items; confirmed is the default.
func (h *ItemHandler) List(c *gin.Context) {
	filter, err := model.ParseFilter(c.Query("filter"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	items, err := h.service.ListItems(c.Request.Context(), middleware.User(c), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ItemsResponse{Items: items})
}

// Get handles GET /items/:itemID, returning the confirmed item file as
// stored on the main branch.
func (h *ItemHandler) Get(c *gin.Context) {
	content, err := h.service.GetItem(c.Request.Context(), middleware.User(c), c.Param("itemID"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", content)
}

func submitterFrom(c *gin.Context) model.Submitter {
	return model.Submitter{
		User:      middleware.User(c),
		DataOwner: middleware.DataOwner(c),
	}
}

func (h *ItemHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidItemID), errors.Is(err, model.ErrInvalidFilter):
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, model.ErrInvalidUser):
		errorResponse(c, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
	case errors.Is(err, model.ErrItemNotFound):
		notFoundResponse(c, err.Error())
	case errors.Is(err, platform.ErrConflict):
		errorResponse(c, http.StatusConflict, "CONFLICT",
			"the item changed on the main branch; fetch the latest version and resubmit")
	case errors.Is(err, model.ErrBranchAllocationExhausted):
		h.logger.Errorw("Branch allocation exhausted", "error", err)
		errorResponse(c, http.StatusConflict, "BRANCH_EXHAUSTED", err.Error())
	case platform.IsTransient(err):
		h.logger.Errorw("Hosting platform unavailable", "error", err)
		errorResponse(c, http.StatusBadGateway, "PLATFORM_UNAVAILABLE",
			"the hosting platform is unavailable; try again later")
	case errors.Is(err, platform.ErrNotFound):
		notFoundResponse(c, err.Error())
	default:
		h.logger.Errorw("Item operation failed", "error", err)
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
