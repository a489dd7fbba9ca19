package jwt

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	s := New("test-secret", time.Hour)

	token, err := s.GenerateToken(7, "operator")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 7 || claims.Role != "operator" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Issuer != issuer || claims.Subject != "7" {
		t.Fatalf("registered claims not set: issuer=%q subject=%q", claims.Issuer, claims.Subject)
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := New("other-secret", time.Hour).GenerateToken(7, "client")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := New("test-secret", time.Hour).ValidateToken(token); err == nil {
		t.Fatal("token signed with a different secret validated")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	s := New("test-secret", -time.Minute)
	token, err := s.GenerateToken(7, "client")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := s.ValidateToken(token); err == nil {
		t.Fatal("expired token validated")
	}
}
