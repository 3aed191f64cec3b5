package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TraceIDKey = "traceId"

// SetTraceIdOfRequest mints a fresh trace id and stores it on the gin context.
func SetTraceIdOfRequest(c *gin.Context) string {
	traceId := uuid.NewString()
	c.Set(TraceIDKey, traceId)
	return traceId
}

// GetTraceIdOfRequest returns the request's trace id, minting one if the
// logger middleware has not run yet.
func GetTraceIdOfRequest(c *gin.Context) string {
	v, ok := c.Get(TraceIDKey)
	if !ok {
		return SetTraceIdOfRequest(c)
	}
	traceId, ok := v.(string)
	if !ok || traceId == "" {
		return SetTraceIdOfRequest(c)
	}
	return traceId
}
