package jwt

import (
	"errors"
	"testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(7, "SV-0007", "aalharbi", "FIELD_AGENT", "test-secret", 15)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateAccessToken(token, "test-secret")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 7 || claims.WorkID != "SV-0007" || claims.Role != "FIELD_AGENT" {
		t.Fatalf("claims=%+v", claims)
	}

	if _, err := ValidateAccessToken(token, "wrong-secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong secret err=%v want ErrTokenInvalid", err)
	}
}

func TestExpiredAccessToken(t *testing.T) {
	token, err := GenerateAccessToken(7, "SV-0007", "aalharbi", "FIELD_AGENT", "test-secret", -1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateAccessToken(token, "test-secret"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err=%v want ErrTokenExpired", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(7, "token-id-1", "refresh-secret", 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateRefreshToken(token, "refresh-secret")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 7 || claims.TokenID != "token-id-1" {
		t.Fatalf("claims=%+v", claims)
	}

	// Access tokens must not validate as refresh tokens with another secret
	if _, err := ValidateRefreshToken(token, "test-secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("cross secret err=%v want ErrTokenInvalid", err)
	}
}
