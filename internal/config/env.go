package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/yigit/enrollhub/internal/pkg/logger"
)

// DotEnvFile is read before the environment overrides are applied
var DotEnvFile = ".env"

// loadFromEnv overrides configuration with environment variables. Values
// from the .env file never replace variables already set in the process.
func loadFromEnv(config *Config) error {
	if err := godotenv.Load(DotEnvFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", DotEnvFile, err)
		}
	} else {
		logger.Debug().Str("file", DotEnvFile).Msg("Loaded environment file")
	}

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
