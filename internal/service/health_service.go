package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/samims/notifyd/internal/storage"
)

const readinessTimeout = 2 * time.Second

type HealthService interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

type healthService struct {
	store  storage.TokenStore
	logger *slog.Logger
}

func NewHealthService(store storage.TokenStore, logger *slog.Logger) HealthService {
	l := logger.With("layer", "service", "component", "healthService")
	return &healthService{store: store, logger: l}
}

func (s *healthService) Liveness(ctx context.Context) error {
	s.logger.DebugContext(ctx, "Liveness check passed")
	return nil
}

// Readiness reports whether the token store answers within readinessTimeout.
func (s *healthService) Readiness(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Readiness check failed", slog.Any("error", err))
		return err
	}
	s.logger.DebugContext(ctx, "Readiness check passed")
	return nil
}
