package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestParseToken_Valid(t *testing.T) {
	verifier := NewTokenVerifier("test-secret")
	token := signToken(t, "test-secret", jwt.SigningMethodHS256, Claims{
		SubjectID: "sup-1",
		Subject:   domain.SubjectTypeSupervisor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := verifier.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "sup-1" || claims.Subject != domain.SubjectTypeSupervisor {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	verifier := NewTokenVerifier("test-secret")
	token := signToken(t, "other-secret", jwt.SigningMethodHS256, Claims{SubjectID: "sup-1"})

	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseToken_Expired(t *testing.T) {
	verifier := NewTokenVerifier("test-secret")
	token := signToken(t, "test-secret", jwt.SigningMethodHS256, Claims{
		SubjectID: "sup-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("expected expiry error")
	}
}
