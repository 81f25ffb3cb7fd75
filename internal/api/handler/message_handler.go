package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/messagely/messagely-api/internal/api/metrics"
	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/policy"
	"github.com/messagely/messagely-api/internal/core/ports"
)

// MessageHandler handles HTTP requests for message operations.
type MessageHandler struct {
	messages ports.MessageService
}

func NewMessageHandler(messages ports.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// deny records a policy denial and returns a 401 that unwraps to
// domain.ErrUnauthorized.
func deny(action, msg string) error {
	metrics.PolicyDenialsTotal.WithLabelValues(action).Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(domain.ErrUnauthorized)
}

// Get returns a message to either of its parties.
//
// @Summary      Get message
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Message id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /messages/{id} [get]
func (h *MessageHandler) Get(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := messageID(c)
	if err != nil {
		return err
	}

	msg, err := h.messages.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !policy.CanReadMessage(identity, msg) {
		return deny(metrics.ActionReadMessage, "cannot read this message")
	}

	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}

// Create sends a message from the caller. Repeating the request with the same
// Idempotency-Key returns the originally stored message.
//
// @Summary      Send message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Client-chosen key for safe retries"
// @Param        body             body      sendMessageRequest  true   "Recipient and body"
// @Success      201              {object}  messageResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /messages [post]
func (h *MessageHandler) Create(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	from := req.FromUsername
	if from == "" {
		from = identity
	}
	if !policy.CanSendAs(identity, from) {
		return deny(metrics.ActionSendAs, "cannot send as another user")
	}

	msg, err := h.messages.Create(c.Request().Context(), ports.SendInput{
		FromUsername:   from,
		ToUsername:     req.ToUsername,
		Body:           req.Body,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}
	metrics.MessagesSentTotal.Inc()

	return c.JSON(http.StatusCreated, messageResponse{Message: msg})
}

// MarkRead marks a message read. Only the recipient may do so; repeating the
// call keeps the first read timestamp.
//
// @Summary      Mark message read
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Message id"
// @Success      200  {object}  readReceiptResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /messages/{id}/read [post]
func (h *MessageHandler) MarkRead(c echo.Context) error {
	identity, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := messageID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	msg, err := h.messages.Get(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanMarkRead(identity, msg) {
		return deny(metrics.ActionMarkRead, "only the recipient can mark this message read")
	}

	msg, err = h.messages.MarkRead(ctx, id)
	if err != nil {
		return err
	}
	metrics.MessagesReadTotal.Inc()

	return c.JSON(http.StatusOK, readReceiptResponse{Message: readReceipt{ID: msg.ID, ReadAt: msg.ReadAt}})
}
