package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const docTokenKey = "doc_access_token"

// DocAccessToken lifts an optional bearer token into the context. The
// token memoizes a successful birth-year verification; requests without
// one simply go through the normal prompt flow.
func DocAccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			c.Set(docTokenKey, strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		}
		c.Next()
	}
}

// GetDocAccessToken returns the bearer token when one was supplied.
func GetDocAccessToken(c *gin.Context) string {
	if v, ok := c.Get(docTokenKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
