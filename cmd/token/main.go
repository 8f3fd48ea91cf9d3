// Command token mints a signed API token with the configured secret.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/bootstrap"
	"github.com/yigit/enrollhub/internal/config"
	"github.com/yigit/enrollhub/internal/pkg/auth"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	configPath := fs.String("config", bootstrap.DefaultConfigPath, "path to the YAML configuration file")
	subject := fs.String("subject", "admin", "token subject")
	role := fs.String("role", string(models.RoleAdmin), "token role (ADMIN or VIEWER)")
	ttl := fs.Duration("ttl", 0, "token lifetime, defaults to auth.token_ttl")
	if err := fs.Parse(args); err != nil {
		return err
	}

	roleType := models.RoleType(*role)
	if roleType != models.RoleAdmin && roleType != models.RoleViewer {
		return fmt.Errorf("unknown role %q", *role)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth secret is empty; set JWT_SECRET")
	}

	lifetime := cfg.TokenTTL()
	if *ttl > 0 {
		lifetime = *ttl
	}

	svc := auth.NewJWTService(auth.JWTConfig{
		SecretKey:   cfg.Auth.Secret,
		TokenTTL:    lifetime,
		TokenIssuer: cfg.Auth.Issuer,
	})
	token, expiresAt, err := svc.GenerateToken(*subject, roleType)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%s\n# expires %s\n", token, expiresAt.UTC().Format(time.RFC3339))
	return err
}
