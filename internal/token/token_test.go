package token

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func TestNewSignerRejectsBadConfig(t *testing.T) {
	if _, err := NewSigner("", "HS256", time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewSigner("secret", "RS256", time.Minute); err == nil {
		t.Fatal("expected error for non-HMAC algorithm")
	}
	if _, err := NewSigner("secret", "nonsense", time.Minute); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
	if _, err := NewSigner("secret", "HS256", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestIssueAndSubjectRoundtrip(t *testing.T) {
	signer, err := NewSigner("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	raw, expiry, err := signer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if until := time.Until(expiry); until < 29*time.Minute || until > 30*time.Minute {
		t.Fatalf("unexpected expiry %s from now", until)
	}
	if parts := strings.Split(raw, "."); len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}

	subject, err := signer.Subject(raw)
	if err != nil {
		t.Fatalf("subject: %v", err)
	}
	if subject != "alice" {
		t.Fatalf("expected subject alice, got %q", subject)
	}
}

func TestSubjectRejectsExpiredToken(t *testing.T) {
	signer := &Signer{secret: []byte("test-secret"), method: jwtlib.SigningMethodHS256, ttl: -time.Minute}
	raw, _, err := signer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := signer.Subject(raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestSubjectRejectsWrongSecret(t *testing.T) {
	signer, err := NewSigner("secret-a", "HS256", time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	other, err := NewSigner("secret-b", "HS256", time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	raw, _, err := signer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := other.Subject(raw); err == nil {
		t.Fatal("expected signature mismatch to be rejected")
	}
}

func TestSubjectRejectsGarbage(t *testing.T) {
	signer, err := NewSigner("test-secret", "HS256", time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := signer.Subject(raw); err == nil {
			t.Fatalf("expected token %q to be rejected", raw)
		}
	}
}

func TestSubjectRequiresSubjectClaim(t *testing.T) {
	signer, err := NewSigner("test-secret", "HS256", time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	claims := jwtlib.RegisteredClaims{
		Issuer:    issuer,
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Minute)),
	}
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.Subject(raw); err == nil {
		t.Fatal("expected missing subject claim to be rejected")
	}
}

func TestSubjectRejectsAlgorithmSwap(t *testing.T) {
	signer, err := NewSigner("test-secret", "HS256", time.Minute)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	claims := jwtlib.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Minute)),
	}
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.Subject(raw); err == nil {
		t.Fatal("expected token signed with a different method to be rejected")
	}
}
