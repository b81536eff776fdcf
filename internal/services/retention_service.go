package services

import (
	"context"
	"fmt"

	"github.com/axellelanca/trackit/internal/logger"
	"github.com/axellelanca/trackit/internal/repository"
	"github.com/axellelanca/trackit/internal/tracking"
)

// settingsEraser removes the persisted tracking configuration.
type settingsEraser interface {
	Delete(ctx context.Context) error
}

// RetentionService implements the operator-triggered data controls.
// Errors are always returned to the caller.
type RetentionService struct {
	store    repository.VisitStore
	settings settingsEraser
	log      logger.Logger
}

// NewRetentionService creates a RetentionService.
func NewRetentionService(store repository.VisitStore, settings settingsEraser, log logger.Logger) *RetentionService {
	return &RetentionService{store: store, settings: settings, log: log}
}

// ResetData removes every visit and restarts ids at 1.
func (s *RetentionService) ResetData(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("reset tracking data: %w", err)
	}
	s.log.Info("Tracking data reset")
	return nil
}

// OnDecommission drops the visit store and the settings when cfg asks for it,
// and reports whether anything was erased.
func (s *RetentionService) OnDecommission(ctx context.Context, cfg tracking.Configuration) (bool, error) {
	if !cfg.EraseOnUninstall {
		s.log.Info("Decommission keeps tracking data")
		return false, nil
	}

	if err := s.store.Drop(ctx); err != nil {
		return false, fmt.Errorf("drop visit store: %w", err)
	}
	if err := s.settings.Delete(ctx); err != nil {
		return false, fmt.Errorf("clear tracking settings: %w", err)
	}

	s.log.Info("Tracking data and settings erased")
	return true, nil
}
