package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims AccessClaims) string {
	t.Helper()
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestDecodeUnverifiedReadsClaims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	signed := signedToken(t, AccessClaims{
		Roles: []string{"editor", "reviewer"},
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "u-42",
			ExpiresAt: gojwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
	})

	claims, err := DecodeUnverified(signed)
	if err != nil {
		t.Fatalf("DecodeUnverified: %v", err)
	}
	if claims.UserID() != "u-42" {
		t.Fatalf("subject = %q, want u-42", claims.UserID())
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "editor" {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
}

func TestDecodeUnverifiedAcceptsExpiredTokens(t *testing.T) {
	signed := signedToken(t, AccessClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "u-7",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	claims, err := DecodeUnverified(signed)
	if err != nil {
		t.Fatalf("expired token must still decode: %v", err)
	}
	if claims.UserID() != "u-7" {
		t.Fatalf("subject = %q, want u-7", claims.UserID())
	}
}

func TestDecodeUnverifiedRejectsGarbage(t *testing.T) {
	if _, err := DecodeUnverified("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
