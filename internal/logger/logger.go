package logger

import (
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CorrelationIDHeader is echoed on every response and propagated from inbound
// requests when present.
const CorrelationIDHeader = "X-Correlation-ID"

const correlationContextKey = "filevaultCorrelationID"

// Init builds the process-wide zap logger. LOG_LEVEL selects the minimum level
// (debug, info, warn, error); production JSON encoding is always used.
func Init() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if raw, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(raw))); err == nil {
			level = parsed
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Middleware assigns a correlation id to each request, echoes it back in the
// response headers, and logs a single line per request once handled.
func Middleware(log ...*zap.Logger) gin.HandlerFunc {
	var l *zap.Logger
	if len(log) > 0 && log[0] != nil {
		l = log[0]
	}

	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(correlationContextKey, id)
		c.Writer.Header().Set(CorrelationIDHeader, id)

		start := time.Now()
		c.Next()

		if l != nil {
			l.Info("request",
				zap.String("correlation_id", id),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Int("status", c.Writer.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}
}

// CorrelationID returns the request's correlation id, or empty when the
// middleware did not run.
func CorrelationID(c *gin.Context) string {
	value, exists := c.Get(correlationContextKey)
	if !exists {
		return ""
	}
	id, _ := value.(string)
	return id
}
