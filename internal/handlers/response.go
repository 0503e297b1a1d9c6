package handlers

import (
	"github.com/labstack/echo/v4"
)

// APIResponse is the envelope every successful endpoint returns. The shape is
// a compatibility surface, do not change field names.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// APIErrorResponse is the failure envelope, emitted by the central error
// handler in transport/http.
type APIErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Success    bool     `json:"success"`
}

func respond(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}
