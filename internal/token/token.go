package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const issuer = "expense-ledger"

// Signer issues and verifies stateless bearer tokens. Tokens carry the
// subject (username) and an expiry; nothing is persisted server-side.
type Signer struct {
	secret []byte
	method jwtlib.SigningMethod
	ttl    time.Duration
}

// NewSigner validates the configured algorithm and returns a Signer. Only
// HMAC methods are accepted; the secret must be non-empty.
func NewSigner(secret, algorithm string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret must not be empty")
	}
	method := jwtlib.GetSigningMethod(algorithm)
	if _, ok := method.(*jwtlib.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Signer{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// Issue signs a token for the subject, expiring after the configured TTL.
func (s *Signer) Issue(subject string) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.ttl)
	claims := jwtlib.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(expiry),
	}
	signed, err := jwtlib.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// Subject verifies signature and expiry and returns the subject claim. Any
// failure, bad signature, expired token, wrong method, missing subject,
// comes back as an error; callers are expected to collapse them into one
// externally visible outcome.
func (s *Signer) Subject(raw string) (string, error) {
	parsed, err := jwtlib.ParseWithClaims(raw, &jwtlib.RegisteredClaims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{s.method.Alg()}))
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwtlib.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", jwtlib.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return "", jwtlib.ErrTokenRequiredClaimMissing
	}
	return claims.Subject, nil
}

// TTL exposes the configured token lifetime.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}
