package web

import (
	"net/http"
	"time"

	"github.com/Semior001/yayopedia/pkg/logx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const requestIDHeader = "X-Request-ID"

// RequestID puts the incoming request id, or a new one, into the request
// context and the response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Request = c.Request.WithContext(logx.ContextWithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// Logger logs every processed request.
func Logger(lg *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		}

		if lg.Handler().Enabled(ctx, slog.LevelDebug) {
			lg.DebugCtx(ctx, "request processed", append(args, slog.String("query", c.Request.URL.RawQuery))...)
			return
		}

		lg.InfoCtx(ctx, "request processed", args...)
	}
}

// Recover is a middleware that recovers from panics.
func Recover(lg *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				lg.ErrorCtx(c.Request.Context(), "panic recovered", slog.Any("panic", r))
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()

		c.Next()
	}
}
