package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id on both requests and responses.
const RequestIDHeader = "X-Request-Id"

const requestIDKey = "middleware.requestID"

// RequestIDMiddleware tags every request with an id. An id supplied by the
// caller is kept, so ids can follow a request across services; otherwise a
// fresh one is generated.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestID returns the id assigned to this request, or empty when the
// middleware is not installed.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
