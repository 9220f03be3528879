package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	correlationHeader = "X-Correlation-ID"
	correlationKey    = "correlation_id"
)

// CorrelationIDMiddleware reuses or generates a request correlation ID.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(correlationKey, id)
		c.Writer.Header().Set(correlationHeader, id)
		c.Next()
	}
}

// CorrelationID returns the ID set by CorrelationIDMiddleware.
func CorrelationID(c *gin.Context) string {
	return c.GetString(correlationKey)
}

// LoggingMiddleware logs each request through slog.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("HTTP request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes_written", c.Writer.Size(),
			"remote_addr", c.ClientIP(),
			"correlation_id", CorrelationID(c),
		)
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(CorrelationIDMiddleware(), LoggingMiddleware(), gin.Recovery())

	r.GET("/health", h.Health)
	r.POST("/slack/events", h.Events)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", h.GetStatus)
		apiGroup.GET("/usage", h.GetUsage)
	}
	return r
}
