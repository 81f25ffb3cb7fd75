package ports

// PasswordHasher turns passwords into digests and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify compares in constant time; any mismatch, including an empty or
	// corrupt digest, is false.
	Verify(password, digest string) bool
}

// TokenIssuer signs bearer tokens that bind a request to a username.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// TokenVerifier resolves a bearer token back to a username.
type TokenVerifier interface {
	Verify(token string) (string, error)
}
