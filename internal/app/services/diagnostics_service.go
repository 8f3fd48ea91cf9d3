package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/repositories"
)

// DiagnosticsService reports store connectivity and row counts
type DiagnosticsService struct {
	store  repositories.Store
	logger zerolog.Logger
}

// NewDiagnosticsService creates a new diagnostics service instance
func NewDiagnosticsService(store repositories.Store, logger zerolog.Logger) *DiagnosticsService {
	return &DiagnosticsService{store: store, logger: logger.With().Str("component", "diagnostics").Logger()}
}

// Check never fails: an unreachable store is reported through ConnectionOK
// and Error.
func (s *DiagnosticsService) Check(ctx context.Context) models.Stats {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Store ping failed")
		return models.Stats{Error: err.Error()}
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Store stats failed")
		return models.Stats{Error: err.Error()}
	}
	return stats
}
