package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// queryDual returns the first non-empty value found under either the
// camelCase or snake_case form of a query field; both the legacy and new
// SDK generations are accepted on every route.
func queryDual(c *gin.Context, camel, snake string) string {
	if v := c.Query(camel); v != "" {
		return v
	}
	return c.Query(snake)
}

// boolDual case-insensitively parses a dual-named boolean query field.
// Anything other than "true"/"1" is false.
func boolDual(c *gin.Context, camel, snake string) bool {
	v := strings.ToLower(queryDual(c, camel, snake))
	return v == "true" || v == "1"
}

// bodyDual reads the first non-empty string under either key name from a
// decoded JSON body map.
func bodyDual(body map[string]any, camel, snake string) string {
	if v, ok := body[camel]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if v, ok := body[snake]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
