package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ParsedBodyKey = "parsedBody"

const maxBodyBytes = 2 << 20

// ParseJSONBody decodes a JSON request body once. A valid object is stored
// under ParsedBodyKey and in gin's body cache so ShouldBindBodyWith reuses
// it; malformed JSON is left for the handler to reject.
func ParseJSONBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
			c.Next()
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var parsed map[string]interface{}
		if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
			c.Set(ParsedBodyKey, parsed)
			c.Set(gin.BodyBytesKey, body)
		}
		c.Next()
	}
}

// ParsedBody returns the decoded JSON object, or nil.
func ParsedBody(c *gin.Context) map[string]interface{} {
	if v, ok := c.Get(ParsedBodyKey); ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}
