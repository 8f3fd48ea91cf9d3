package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/yigit/enrollhub/internal/app/models"
)

func newTestService(ttl time.Duration) *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "test-secret", TokenTTL: ttl, TokenIssuer: "enrollhub"})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService(time.Hour)

	token, expiresAt, err := svc.GenerateToken("ops", models.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiry should be in the future, got %v", expiresAt)
	}

	claims, err := svc.ValidateAndExtractClaims(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "ops" || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestExpiredToken(t *testing.T) {
	svc := newTestService(time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.GenerateToken("ops", models.RoleViewer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	svc.now = time.Now
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestWrongSecretOrIssuer(t *testing.T) {
	token, _, err := newTestService(time.Hour).GenerateToken("ops", models.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := NewJWTService(JWTConfig{SecretKey: "other", TokenTTL: time.Hour, TokenIssuer: "enrollhub"})
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for wrong secret, got %v", err)
	}

	foreign := NewJWTService(JWTConfig{SecretKey: "test-secret", TokenTTL: time.Hour, TokenIssuer: "someone-else"})
	if _, err := foreign.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for wrong issuer, got %v", err)
	}
}

func TestMalformedToken(t *testing.T) {
	if _, err := newTestService(time.Hour).ValidateToken("not-a-token"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected invalid format, got %v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"bearer":      {"Bearer a.b.c", "a.b.c", true},
		"raw":         {"a.b.c", "a.b.c", true},
		"empty":       {"", "", false},
		"bearer only": {"Bearer ", "", false},
		"garbage":     {"Basic dXNlcg==", "", false},
	}

	for name, tc := range cases {
		got, err := ExtractBearerToken(tc.header)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%s: got %q, %v", name, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error, got %q", name, got)
		}
	}
}
