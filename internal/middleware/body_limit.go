package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for multipart boundaries and headers on top of
// the file itself.
const multipartOverhead = 1 << 20

// BodyLimit caps the request body at maxBytes plus multipart overhead. Reads past
// the cap fail with *http.MaxBytesError, which handlers map to 413.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			if c.Request.ContentLength > maxBytes+multipartOverhead {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
					"success": false,
					"error":   gin.H{"code": "FILE_TOO_LARGE", "message": "file exceeds maximum allowed size"},
				})
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
		}
		c.Next()
	}
}
