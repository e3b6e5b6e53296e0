// Package api wires the HTTP surface: health, update-check, and
// report-status endpoints.
package api

import "github.com/gin-gonic/gin"

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// RespondSuccess writes {status:"ok", data} with HTTP status 200.
func RespondSuccess(c *gin.Context, data any) {
	c.JSON(200, envelope{Status: "ok", Data: data})
}

// RespondSuccessWithStatus writes {status:"ok", data} with a caller-chosen
// HTTP status code.
func RespondSuccessWithStatus(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Status: "ok", Data: data})
}

// RespondError writes {status:"error", message} with the given HTTP
// status code.
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Status: "error", Message: message})
}
