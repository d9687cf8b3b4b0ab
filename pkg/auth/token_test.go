package auth

import (
	"testing"
	"time"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "storefront"}
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, 30*time.Minute, "  buyer@example.com ")
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Email != "buyer@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be populated")
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	token, err := MintAccessToken(config.JWTConfig{Secret: "secret", Issuer: "other"}, time.Now(), time.Minute, "a@example.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(config.JWTConfig{Secret: "secret", Issuer: "storefront"}, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "storefront"}
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Minute, "a@example.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseAccessTokenFallsBackToSubject(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "storefront"}
	claims := jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Subject:   "subject@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parsed, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Email != "subject@example.com" {
		t.Fatalf("expected subject fallback, got %q", parsed.Email)
	}
}

func TestMintAccessTokenValidatesInput(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "storefront"}
	if _, err := MintAccessToken(config.JWTConfig{Issuer: "x"}, time.Now(), time.Minute, "a@b.c"); err == nil {
		t.Fatal("expected missing secret to fail")
	}
	if _, err := MintAccessToken(cfg, time.Now(), 0, "a@b.c"); err == nil {
		t.Fatal("expected zero ttl to fail")
	}
	if _, err := MintAccessToken(cfg, time.Now(), time.Minute, " "); err == nil {
		t.Fatal("expected blank email to fail")
	}
}
