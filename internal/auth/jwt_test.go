package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	cfg := &Config{Secret: []byte("test-secret"), Issuer: "minevox"}

	token, err := GenerateToken(cfg, "ada", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateToken(cfg, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Username != "ada" {
		t.Fatalf("username = %q", claims.Username)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	cfg := &Config{Secret: []byte("test-secret")}
	token, err := GenerateToken(cfg, "ada", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken(&Config{Secret: []byte("other")}, token); err == nil {
		t.Fatal("expected validation to fail with the wrong secret")
	}
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	cfg := &Config{Secret: []byte("test-secret"), Issuer: "minevox"}
	token, err := GenerateToken(cfg, "ada", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	check := &Config{Secret: []byte("test-secret"), Issuer: "someone-else"}
	if _, err := ValidateToken(check, token); err == nil {
		t.Fatal("expected validation to fail with the wrong issuer")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	cfg := &Config{Secret: []byte("test-secret")}
	token, err := GenerateToken(cfg, "ada", -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateToken(cfg, token); err == nil {
		t.Fatal("expected validation to fail for an expired token")
	}
}

func TestEnabled(t *testing.T) {
	if (&Config{}).Enabled() {
		t.Fatal("empty secret must disable validation")
	}
	if (*Config)(nil).Enabled() {
		t.Fatal("nil config must disable validation")
	}
	if !(&Config{Secret: []byte("x")}).Enabled() {
		t.Fatal("non-empty secret must enable validation")
	}
}
