package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func Healthcheck(c echo.Context) error {
	return respond(c, http.StatusOK, echo.Map{"status": "OK"}, "Everything is fine")
}
