package auth

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/bookstore-backend/pkg/config"
)

func testJWTConfig(mins int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "bookstore",
		ExpirationMinutes: mins,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig(30)
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: "user-1", Email: "reader@example.com", JTI: "login-1"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != "user-1" || claims.Subject != "user-1" {
		t.Fatalf("unexpected subject %q / %q", claims.UserID, claims.Subject)
	}
	if claims.LoginID() != "login-1" {
		t.Fatalf("expected login id to round-trip, got %q", claims.LoginID())
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintAccessTokenGeneratesLoginID(t *testing.T) {
	cfg := testJWTConfig(5)
	first, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: "user-1"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	second, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: "user-1"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	a, _ := ParseAccessToken(cfg, first)
	b, _ := ParseAccessToken(cfg, second)
	if a.LoginID() == "" || a.LoginID() == b.LoginID() {
		t.Fatalf("expected distinct generated login ids, got %q and %q", a.LoginID(), b.LoginID())
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: "user-2"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenWrongIssuer(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: "user-2"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig(15)
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: "user-3"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintAccessTokenRequiresUser(t *testing.T) {
	if _, err := MintAccessToken(testJWTConfig(5), time.Now(), AccessTokenPayload{UserID: "  "}); err == nil {
		t.Fatal("expected missing user error")
	}
}

func signWithoutJTI(t *testing.T, cfg config.JWTConfig, userID string, issuedAt time.Time) string {
	t.Helper()
	claims := AccessTokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestLoginIDFallsBackToSubjectAndIssuedAt(t *testing.T) {
	cfg := testJWTConfig(30)
	issued := time.Now().Add(-time.Minute).Truncate(time.Second)

	claims, err := ParseAccessToken(cfg, signWithoutJTI(t, cfg, "user-1", issued))
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if got, want := claims.LoginID(), fmt.Sprintf("user-1:%d", issued.Unix()); got != want {
		t.Fatalf("unexpected login id %q", got)
	}

	later, err := ParseAccessToken(cfg, signWithoutJTI(t, cfg, "user-1", issued.Add(time.Minute)))
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if later.LoginID() == claims.LoginID() {
		t.Fatalf("separate logins share login id %q", later.LoginID())
	}
}

func TestLoginIDEmptyWithoutIssuedAt(t *testing.T) {
	claims := &AccessTokenClaims{UserID: "user-1"}
	if got := claims.LoginID(); got != "" {
		t.Fatalf("expected empty login id, got %q", got)
	}
}
