package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key for the request ID.
const ContextKeyRequestID = "request_id"

// headerRequestID is the inbound/outbound trace header. Clients may supply
// their own ID so a frontend session can be correlated across calls.
const headerRequestID = "X-Request-ID"

// RequestIDMiddleware ensures every request carries a trace ID, echoing it
// back in the response header and the envelope metadata.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header(headerRequestID, reqID)
		c.Next()
	}
}

// RequestID returns the trace ID assigned to this request, if any.
func RequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
