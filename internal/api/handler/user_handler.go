package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/messagely/messagely-api/internal/core/ports"
)

// UserHandler serves the account directory and per-user mailboxes. Routes
// under /users/:username are expected to sit behind middleware.CorrectUser.
type UserHandler struct {
	accounts ports.AccountService
	messages ports.MessageService
}

func NewUserHandler(accounts ports.AccountService, messages ports.MessageService) *UserHandler {
	return &UserHandler{accounts: accounts, messages: messages}
}

// List returns every account summary.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usersResponse
// @Failure      401  {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.accounts.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users})
}

// Get returns the caller's own account detail.
//
// @Summary      Get user detail
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  userResponse
// @Failure      401       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /users/{username} [get]
func (h *UserHandler) Get(c echo.Context) error {
	account, err := h.accounts.Get(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: account})
}

// Received lists messages sent to the user.
//
// @Summary      Messages received by user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  receivedResponse
// @Failure      401       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /users/{username}/to [get]
func (h *UserHandler) Received(c echo.Context) error {
	msgs, err := h.messages.ListReceivedBy(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, receivedResponse{Messages: toReceived(msgs)})
}

// Sent lists messages sent by the user.
//
// @Summary      Messages sent by user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  sentResponse
// @Failure      401       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /users/{username}/from [get]
func (h *UserHandler) Sent(c echo.Context) error {
	msgs, err := h.messages.ListSentBy(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sentResponse{Messages: toSent(msgs)})
}
