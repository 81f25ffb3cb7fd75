package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/messagely/messagely-api/internal/core/domain"
)

// Claims is the JWT payload. Username is the only identity claim.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies HS256 tokens with a process-wide key.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer copies secret so later mutation by the caller has no effect.
// A ttl of zero issues tokens without an expiry.
func NewJWTIssuer(secret, issuer string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token ttl must not be negative: %s", ttl)
	}
	return &JWTIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token for username.
func (i *JWTIssuer) Issue(username string) (string, error) {
	if username == "" {
		return "", domain.ErrInvalidUsername
	}

	now := i.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   i.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm and expiry of token and returns the
// username it was issued for.
func (i *JWTIssuer) Verify(token string) (string, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidToken
	}
	if claims.Username == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Username, nil
}
