// Package handler exposes the processing reverse proxy over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EOEPCA/open-science-catalog-backend/internal/catalog"
	"github.com/EOEPCA/open-science-catalog-backend/internal/middleware"
	"github.com/EOEPCA/open-science-catalog-backend/internal/processing/model"
	"github.com/EOEPCA/open-science-catalog-backend/internal/processing/service"
)

// proxiedServices are the backend API sections exposed through the proxy.
var proxiedServices = []string{"processes", "jobs"}

// allowedMethods are the HTTP methods relayed to remote backends.
var allowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodHead,
}

// ProcessingService is what the handler needs from the processing service.
type ProcessingService interface {
	Proxy(ctx context.Context, req service.ProxyRequest) (*service.ProxyResult, error)
	ExecuteProcess(ctx context.Context, user, process string, req service.ProxyRequest) (*service.ProxyResult, error)
}

// ProcessingHandler relays requests under /processing/:backend to remote
// processing backends.
type ProcessingHandler struct {
	service ProcessingService
	logger  *zap.SugaredLogger
}

// NewProcessingHandler creates a processing handler.
func NewProcessingHandler(service ProcessingService, logger *zap.SugaredLogger) *ProcessingHandler {
	return &ProcessingHandler{
		service: service,
		logger:  logger,
	}
}

// Relay handles every request under /processing/:backend/. Requests to the
// processes and jobs services are forwarded as-is, except that POST
// .../processes/{process}/execution first deploys the named application
// package and executes the deployed process instead.
func (h *ProcessingHandler) Relay(c *gin.Context) {
	serviceName, rest, ok := splitProxyPath(c.Param("proxyPath"))
	if !ok {
		notFoundResponse(c, "unknown processing service")
		return
	}
	if !methodAllowed(c.Request.Method) {
		errorResponse(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"method "+c.Request.Method+" is not relayed to processing backends")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to read request body")
		return
	}

	req := service.ProxyRequest{
		Backend: c.Param("backend"),
		Service: serviceName,
		Path:    rest,
		Method:  c.Request.Method,
		Query:   c.Request.URL.Query(),
		Header:  c.Request.Header,
		Body:    body,
	}

	var result *service.ProxyResult
	if process, isExecution := executionTarget(c.Request.Method, serviceName, rest); isExecution {
		user := middleware.User(c)
		if user == "" {
			errorResponse(c, http.StatusUnauthorized, "UNAUTHENTICATED",
				"process execution requires a caller identity")
			return
		}
		result, err = h.service.ExecuteProcess(c.Request.Context(), user, process, req)
	} else {
		result, err = h.service.Proxy(c.Request.Context(), req)
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	writeProxyResult(c, result)
}

// splitProxyPath splits a catch-all path like "/processes/a/b" into the
// service section and the remainder.
func splitProxyPath(raw string) (serviceName, rest string, ok bool) {
	serviceName, rest, _ = strings.Cut(strings.TrimPrefix(raw, "/"), "/")
	for _, candidate := range proxiedServices {
		if serviceName == candidate {
			return serviceName, rest, true
		}
	}
	return "", "", false
}

// executionTarget reports whether the request is a process execution and
// returns the process name from paths of the form {process}/execution.
func executionTarget(method, serviceName, rest string) (string, bool) {
	if method != http.MethodPost || serviceName != "processes" {
		return "", false
	}
	process, tail, found := strings.Cut(rest, "/")
	if !found || process == "" || tail != "execution" {
		return "", false
	}
	return process, true
}

func methodAllowed(method string) bool {
	for _, candidate := range allowedMethods {
		if method == candidate {
			return true
		}
	}
	return false
}

// writeProxyResult replays an upstream response, headers included, so the
// caller sees the backend's own reply.
func writeProxyResult(c *gin.Context, result *service.ProxyResult) {
	header := c.Writer.Header()
	for name, values := range result.Header {
		for _, value := range values {
			header.Add(name, value)
		}
	}
	c.Status(result.StatusCode)
	if len(result.Body) > 0 {
		_, _ = c.Writer.Write(result.Body)
	}
}

func (h *ProcessingHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrUnknownBackend):
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		notFoundResponse(c, err.Error())
	case errors.Is(err, model.ErrDeployFailed):
		h.logger.Errorw("Process deployment failed", "error", err)
		errorResponse(c, http.StatusBadGateway, "DEPLOY_FAILED", err.Error())
	case errors.Is(err, model.ErrBackendUnavailable), errors.Is(err, catalog.ErrUnavailable):
		h.logger.Errorw("Processing upstream unavailable", "error", err)
		errorResponse(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE",
			"the processing backend is unavailable; try again later")
	default:
		h.logger.Errorw("Processing request failed", "error", err)
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
