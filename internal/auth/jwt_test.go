package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, Claims{
		UserID: 10,
		Role:   "student",
		Email:  "student@example.local",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	claims, err := ParseToken("secret", "issuer", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if claims.UserID != 10 || claims.Role != "student" || claims.Email != "student@example.local" {
		t.Fatalf("unexpected claims")
	}
	if claims.Subject != "10" || claims.ID == "" {
		t.Fatalf("expected subject and token id, got sub=%q jti=%q", claims.Subject, claims.ID)
	}
}

func TestParseTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, Claims{UserID: 1, Role: "admin"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("other-secret", "issuer", token); err == nil {
		t.Fatalf("expected signature mismatch")
	}
	if _, err := ParseToken("secret", "other-issuer", token); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", -time.Minute, Claims{UserID: 1, Role: "admin"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", "issuer", token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestNewAccessTokenRequiresSecret(t *testing.T) {
	if _, err := NewAccessToken("", "issuer", time.Minute, Claims{UserID: 1, Role: "admin"}); err == nil {
		t.Fatalf("expected missing secret error")
	}
}
