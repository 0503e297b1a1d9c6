package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/logging"
)

// ErrorHandler converts every error leaving a handler into the failure
// envelope. Internal causes are logged, never serialized.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status  int
		message string
		errs    []string
	)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = fmt.Sprint(he.Message)
	} else {
		ae := apperror.From(err)
		status = ae.Kind.Status()
		message = ae.Message
		errs = ae.Errs
	}

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("request_failed", "status", status, "error", err)
	}

	if errs == nil {
		errs = []string{}
	}

	_ = c.JSON(status, handlers.APIErrorResponse{
		StatusCode: status,
		Message:    message,
		Errors:     errs,
		Success:    false,
	})
}
