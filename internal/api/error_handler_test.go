package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/messagely/messagely-api/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "duplicate", err: domain.ErrDuplicateIdentity, wantCode: http.StatusConflict},
		{name: "wrapped not found", err: fmt.Errorf("mailbox %q: %w", "ghost", domain.ErrNotFound), wantCode: http.StatusNotFound},
		{name: "invalid recipient", err: domain.ErrInvalidRecipient, wantCode: http.StatusUnprocessableEntity},
		{name: "self message", err: domain.ErrSelfMessage, wantCode: http.StatusUnprocessableEntity},
		{name: "empty body", err: domain.ErrEmptyBody, wantCode: http.StatusUnprocessableEntity},
		{name: "idempotency key reused", err: domain.ErrIdempotencyKeyReused, wantCode: http.StatusUnprocessableEntity},
		{name: "send in progress", err: domain.ErrSendInProgress, wantCode: http.StatusConflict},
		{name: "bad credentials", err: domain.ErrInvalidCredentials, wantCode: http.StatusBadRequest, wantMsg: "invalid username/password"},
		{name: "invalid password", err: domain.ErrInvalidPassword, wantCode: http.StatusBadRequest},
		{name: "unauthorized", err: domain.ErrUnauthorized, wantCode: http.StatusUnauthorized, wantMsg: "unauthorized"},
		{name: "echo error", err: echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), wantCode: http.StatusBadRequest, wantMsg: "invalid payload"},
		{name: "unexpected", err: errors.New("disk on fire"), wantCode: http.StatusInternalServerError, wantMsg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if tt.wantMsg != "" && resp.Error != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, resp.Error)
			}
			if resp.Error == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}
