package middleware

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// StructuredLogger logs one line per request in JSON.
func StructuredLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
		}
		if uid := CurrentUserID(c); uid != 0 {
			fields = append(fields, slog.Uint64("user_id", uint64(uid)))
		}
		if rid, ok := c.Get(RequestIDKey); ok {
			fields = append(fields, slog.Any("request_id", rid))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, slog.String("error", c.Errors.String()))
			logger.Error("request failed", fields...)
		} else {
			logger.Info("request processed", fields...)
		}
	}
}
