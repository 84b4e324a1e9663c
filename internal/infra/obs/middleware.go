package obs

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookingrule/internal/app/outbox"
)

const requestIDHeader = "X-Request-ID"

type Middleware struct {
	Logger  *slog.Logger
	Metrics *Metrics
}

// RequestID reuses the caller's X-Request-ID or mints one. The id is echoed
// back and copied onto every outbox event the request produces.
func (m Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, id)
		ctx = outbox.WithHeader(ctx, "x-request-id", id)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Set("request_id", id)
		c.Next()
	}
}

// LoggerMiddleware records request duration and writes one access log line.
// Server errors log at error level, client errors at warn.
func (m Middleware) LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.Metrics.ObserveHTTPRequest(c.Request.Method, route, status, elapsed)
		if m.Logger == nil {
			return
		}
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		m.Logger.Log(c.Request.Context(), level, "http",
			"method", c.Request.Method,
			"path", route,
			"status", status,
			"duration", elapsed,
			"request_id", c.GetString("request_id"),
		)
	}
}

type requestIDKey struct{}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
