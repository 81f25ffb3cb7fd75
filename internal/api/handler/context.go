package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUser returns the username injected by the Auth middleware. An empty
// value means the middleware did not run, so the request is rejected before
// any service call.
func currentUser(c echo.Context) (string, error) {
	username, _ := c.Get("username").(string)
	if username == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return username, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func messageID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid message id")
	}
	return id, nil
}
