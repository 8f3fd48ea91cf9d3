package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/pkg/auth"
)

func TestRunMintsVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("DB_DRIVER", "memory")

	var out bytes.Buffer
	missing := filepath.Join(t.TempDir(), "none.yaml")
	if err := run([]string{"-config", missing, "-subject", "ops", "-role", "VIEWER", "-ttl", "1h"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	token := strings.SplitN(out.String(), "\n", 2)[0]
	svc := auth.NewJWTService(auth.JWTConfig{SecretKey: "cli-secret", TokenTTL: time.Hour, TokenIssuer: "enrollhub"})
	claims, err := svc.ValidateAndExtractClaims(token)
	if err != nil {
		t.Fatalf("minted token does not validate: %v", err)
	}
	if claims.Subject != "ops" || claims.Role != models.RoleViewer {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestRunRejectsUnknownRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	if err := run([]string{"-role", "ROOT"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected an error for an unknown role")
	}
}
