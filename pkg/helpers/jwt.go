package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSigningUnavailable means the signing secret is missing or too
	// short. A service hitting this must not serve requests.
	ErrSigningUnavailable = errors.New("token signing unavailable: secret missing or too short")
	// ErrTokenInvalid covers every verification failure: malformed
	// encoding, bad signature, missing subject, expired. The conditions
	// are deliberately indistinguishable to the caller.
	ErrTokenInvalid = errors.New("invalid token")
)

// MinSecretLen is the minimum signing-secret length in bytes.
const MinSecretLen = 32

// TokenService issues and verifies stateless HS256 bearer tokens. The
// only claims carried are the subject (account id) and the expiry; there
// is no server-side session table and no revocation, so a token stays
// usable for its full TTL.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a TokenService from the configured signing
// secret and the default token lifetime. It refuses secrets under
// MinSecretLen bytes.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrSigningUnavailable
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token for the subject using the default TTL.
func (s *TokenService) Issue(subject string) (string, time.Time, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL signs a token for the subject expiring after ttl.
func (s *TokenService) IssueWithTTL(subject string, ttl time.Duration) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrSigningUnavailable
	}
	exp := time.Now().Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the signature and expiry and returns the subject claim.
// Every failure mode comes back as ErrTokenInvalid.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return "", ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
