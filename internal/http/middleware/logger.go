package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger prints a minimal request log including request_id when available.
// Health probes are skipped to keep the log readable.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		if c.Request.URL.Path == "/api/health" {
			return
		}

		log.Printf("[HTTP] request_id=%s method=%s path=%s status=%d latency_ms=%.3f ip=%s",
			GetRequestID(c),
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			float64(latency.Microseconds())/1000.0,
			c.ClientIP(),
		)
	}
}
