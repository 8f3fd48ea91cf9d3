package main

import (
	"context"
	"flag"
	"os"

	"github.com/yigit/enrollhub/internal/bootstrap"
	"github.com/yigit/enrollhub/internal/pkg/logger" // Still needed for initial error logging
	"github.com/yigit/enrollhub/internal/server"
)

// @title EnrollHub API
// @version 1.0
// @description Students, courses and the enrollments between them
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	configPath := flag.String("config", bootstrap.DefaultConfigPath, "path to the YAML configuration file")
	flag.Parse()

	ctx := context.Background()

	srv, err := server.NewServer(ctx, *configPath)
	if err != nil {
		// Error details are logged within NewServer's setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until a shutdown signal arrives
	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
