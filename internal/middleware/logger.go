package middleware

import (
	"log"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// validRequestID limits caller-supplied IDs to characters that are safe in log
// lines and S3 archive keys.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID injects an X-Request-ID header into the request and response.
// A missing or malformed incoming ID is replaced with a new UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if !validRequestID.MatchString(requestID) {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// probePaths are polled by orchestrators and are not worth a log line each.
var probePaths = map[string]bool{
	"/":        true,
	"/healthz": true,
	"/readyz":  true,
}

// Logger logs each HTTP request with method, path, status, upload size and latency.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if probePaths[c.Request.URL.Path] && c.Writer.Status() < 400 {
			return
		}

		requestID, _ := c.Get("request_id")
		log.Printf("[%s] %s %s %d in=%dB %s",
			requestID,
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			c.Request.ContentLength,
			time.Since(start),
		)
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
