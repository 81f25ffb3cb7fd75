package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

type stubAccountService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error)
	loginFn    func(ctx context.Context, username, password string) (string, error)
	getFn      func(ctx context.Context, username string) (*domain.Account, error)
	listFn     func(ctx context.Context) ([]domain.AccountSummary, error)
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) Authenticate(context.Context, string, string) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubAccountService) TouchLogin(context.Context, string) (time.Time, error) {
	return time.Time{}, errors.New("not implemented")
}

func (s *stubAccountService) Get(ctx context.Context, username string) (*domain.Account, error) {
	return s.getFn(ctx, username)
}

func (s *stubAccountService) ListAll(ctx context.Context) ([]domain.AccountSummary, error) {
	return s.listFn(ctx)
}

func (s *stubAccountService) Login(ctx context.Context, username, password string) (string, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAccountService) IssueToken(username string) (string, error) {
	return "token-for-" + username, nil
}

type stubMessageService struct {
	createFn   func(ctx context.Context, in ports.SendInput) (*domain.Message, error)
	getFn      func(ctx context.Context, id int64) (*domain.Message, error)
	markReadFn func(ctx context.Context, id int64) (*domain.Message, error)
	sentFn     func(ctx context.Context, username string) ([]*domain.Message, error)
	receivedFn func(ctx context.Context, username string) ([]*domain.Message, error)
}

func (s *stubMessageService) Create(ctx context.Context, in ports.SendInput) (*domain.Message, error) {
	return s.createFn(ctx, in)
}

func (s *stubMessageService) Get(ctx context.Context, id int64) (*domain.Message, error) {
	return s.getFn(ctx, id)
}

func (s *stubMessageService) MarkRead(ctx context.Context, id int64) (*domain.Message, error) {
	return s.markReadFn(ctx, id)
}

func (s *stubMessageService) ListSentBy(ctx context.Context, username string) ([]*domain.Message, error) {
	return s.sentFn(ctx, username)
}

func (s *stubMessageService) ListReceivedBy(ctx context.Context, username string) ([]*domain.Message, error) {
	return s.receivedFn(ctx, username)
}

// newContext builds an echo context for method and target with an optional
// JSON body and authenticated username.
func newContext(method, target, body, username string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if username != "" {
		c.Set("username", username)
	}
	return c, rec
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func sampleMessage() *domain.Message {
	return &domain.Message{
		ID:     7,
		From:   domain.AccountSummary{Username: "alice", FirstName: "Alice"},
		To:     domain.AccountSummary{Username: "bob", FirstName: "Bob"},
		Body:   "hi bob",
		SentAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
