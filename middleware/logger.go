package middleware

import (
	"log/slog"
	"time"

	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Logger assigns every request a trace id and logs the request outcome.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.SetTraceIdOfRequest(c)
		start := time.Now()

		c.Next()

		slog.Info("request completed",
			slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method),
			slog.String("Path", c.Request.URL.Path),
			slog.Int("Status", c.Writer.Status()),
			slog.String("Duration", time.Since(start).String()),
		)
	}
}
