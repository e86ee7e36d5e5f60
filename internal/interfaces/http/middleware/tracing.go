package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength bounds the request ID copied into span attributes
const MaxRequestIDLength = 128

// Tracing returns OpenTelemetry tracing middleware that continues the
// trace propagated by the client.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return otelgin.Middleware(serviceName)
}

// RequestIDAttribute copies the request ID onto the active span. It must run
// after Tracing so the span exists.
func RequestIDAttribute() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			id := c.GetHeader(logger.RequestIDHeader)
			if id == "" {
				id = c.Writer.Header().Get(logger.RequestIDHeader)
			}
			if len(id) > MaxRequestIDLength {
				id = id[:MaxRequestIDLength]
			}
			if id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
		}
		c.Next()
	}
}
