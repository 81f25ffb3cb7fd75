package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

// timingPassword is hashed once and compared against when a username does
// not exist, so unknown users cost the same as wrong passwords.
const timingPassword = "messagely-absent-account"

// AccountService implements registration, authentication and lookups.
type AccountService struct {
	repo   ports.AccountRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	logger zerolog.Logger
	now    func() time.Time

	absentDigest string
}

// NewAccountService fails when the hasher cannot build the digest used for
// unknown usernames.
func NewAccountService(
	repo ports.AccountRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	logger zerolog.Logger,
) (*AccountService, error) {
	digest, err := hasher.Hash(timingPassword)
	if err != nil {
		return nil, fmt.Errorf("build timing digest: %w", err)
	}
	return &AccountService{
		repo:         repo,
		hasher:       hasher,
		tokens:       tokens,
		logger:       logger,
		now:          domain.Now,
		absentDigest: digest,
	}, nil
}

// Register hashes the password and stores a new account. The store's
// uniqueness constraint decides collisions.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, domain.ErrInvalidUsername
	}
	if in.Password == "" {
		return nil, domain.ErrInvalidPassword
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &domain.Account{
		Username:     in.Username,
		PasswordHash: digest,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		JoinedAt:     now,
		LastLoginAt:  now,
	}

	if err := s.repo.Insert(ctx, account); err != nil {
		if !errors.Is(err, domain.ErrDuplicateIdentity) {
			s.logger.Error().Err(err).Str("username", in.Username).Msg("failed to register account")
		}
		return nil, err
	}

	s.logger.Info().Str("username", account.Username).Msg("account registered")
	return account, nil
}

// Authenticate reports whether password matches the stored digest. Unknown
// usernames are false, not an error.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.Verify(password, s.absentDigest)
			return false, nil
		}
		return false, fmt.Errorf("authenticate: %w", err)
	}
	return s.hasher.Verify(password, account.PasswordHash), nil
}

// TouchLogin records a login now and returns the stored last-login time.
func (s *AccountService) TouchLogin(ctx context.Context, username string) (time.Time, error) {
	return s.repo.TouchLogin(ctx, username, s.now())
}

func (s *AccountService) Get(ctx context.Context, username string) (*domain.Account, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *AccountService) ListAll(ctx context.Context) ([]domain.AccountSummary, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.AccountSummary{}
	}
	return accounts, nil
}

// Login authenticates, advances last_login_at and issues a token. Unknown
// user and wrong password both yield domain.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	ok, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		s.logger.Info().Str("username", username).Msg("login rejected")
		return "", domain.ErrInvalidCredentials
	}

	if _, err := s.TouchLogin(ctx, username); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	token, err := s.tokens.Issue(username)
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("username", username).Msg("login succeeded")
	return token, nil
}

func (s *AccountService) IssueToken(username string) (string, error) {
	return s.tokens.Issue(username)
}
