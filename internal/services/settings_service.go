// Package services contains the tracking, reporting, retention and settings logic.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	customerrors "github.com/axellelanca/trackit/internal/errors"
	"github.com/axellelanca/trackit/internal/models"
	"github.com/axellelanca/trackit/internal/repository"
	"github.com/axellelanca/trackit/internal/tracking"
)

const eraseEnabled = "1"

// SettingsService persists the tracking configuration and keeps a read-mostly
// cached copy for the request path. The cache is refreshed on every save.
type SettingsService struct {
	options   repository.OptionRepository
	defaults  tracking.Configuration
	available tracking.RoleSet

	mu      sync.RWMutex
	current tracking.Configuration
}

// NewSettingsService creates a SettingsService. defaults are written on activation;
// availableRoles restricts what Save accepts (guest is always allowed, an empty
// list allows anything).
func NewSettingsService(options repository.OptionRepository, defaults tracking.Configuration, availableRoles []string) *SettingsService {
	available := tracking.NewRoleSet(availableRoles...)
	if len(available) > 0 {
		available[tracking.GuestRole] = struct{}{}
	}
	return &SettingsService{
		options:   options,
		defaults:  cloneConfiguration(defaults),
		available: available,
	}
}

// Activate writes the default configuration for every option that does not exist yet,
// then loads the stored configuration into the cache.
func (s *SettingsService) Activate(ctx context.Context) error {
	if _, ok, err := s.options.Get(ctx, models.OptionTrackRoles); err != nil {
		return fmt.Errorf("activate settings: %w", err)
	} else if !ok {
		if err := s.options.Set(ctx, models.OptionTrackRoles, encodeRoles(s.defaults.TrackedRoles)); err != nil {
			return fmt.Errorf("activate settings: %w", err)
		}
	}

	if _, ok, err := s.options.Get(ctx, models.OptionEraseUninstall); err != nil {
		return fmt.Errorf("activate settings: %w", err)
	} else if !ok {
		if err := s.options.Set(ctx, models.OptionEraseUninstall, encodeBool(s.defaults.EraseOnUninstall)); err != nil {
			return fmt.Errorf("activate settings: %w", err)
		}
	}

	return s.Refresh(ctx)
}

// Load reads the configuration from the option store. Missing options read as
// "track nothing" and "keep data".
func (s *SettingsService) Load(ctx context.Context) (tracking.Configuration, error) {
	var cfg tracking.Configuration

	raw, ok, err := s.options.Get(ctx, models.OptionTrackRoles)
	if err != nil {
		return cfg, fmt.Errorf("load tracked roles: %w", err)
	}
	cfg.TrackedRoles = tracking.NewRoleSet()
	if ok {
		cfg.TrackedRoles = decodeRoles(raw)
	}

	raw, _, err = s.options.Get(ctx, models.OptionEraseUninstall)
	if err != nil {
		return cfg, fmt.Errorf("load erase flag: %w", err)
	}
	cfg.EraseOnUninstall = raw == eraseEnabled

	return cfg, nil
}

// Refresh reloads the cache from the option store.
func (s *SettingsService) Refresh(ctx context.Context) error {
	cfg, err := s.Load(ctx)
	if err != nil {
		return err
	}
	s.setCurrent(cfg)
	return nil
}

// Current returns a copy of the cached configuration.
func (s *SettingsService) Current() tracking.Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfiguration(s.current)
}

// Save validates and persists cfg, then refreshes the cache.
func (s *SettingsService) Save(ctx context.Context, cfg tracking.Configuration) error {
	if len(s.available) > 0 {
		for role := range cfg.TrackedRoles {
			if !s.available.Has(role) {
				return fmt.Errorf("%w: %q", customerrors.ErrUnknownRole, role)
			}
		}
	}

	if err := s.options.Set(ctx, models.OptionTrackRoles, encodeRoles(cfg.TrackedRoles)); err != nil {
		return fmt.Errorf("save tracked roles: %w", err)
	}
	if err := s.options.Set(ctx, models.OptionEraseUninstall, encodeBool(cfg.EraseOnUninstall)); err != nil {
		return fmt.Errorf("save erase flag: %w", err)
	}

	s.setCurrent(cfg)
	return nil
}

// Delete removes the persisted configuration and clears the cache.
func (s *SettingsService) Delete(ctx context.Context) error {
	if err := s.options.Delete(ctx, models.OptionEraseUninstall, models.OptionTrackRoles); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	s.setCurrent(tracking.Configuration{TrackedRoles: tracking.NewRoleSet()})
	return nil
}

// AvailableRoles lists the roles an operator may track, guest included.
// It is empty when any role is accepted.
func (s *SettingsService) AvailableRoles() []string {
	return s.available.Sorted()
}

func (s *SettingsService) setCurrent(cfg tracking.Configuration) {
	cfg = cloneConfiguration(cfg)
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
}

func cloneConfiguration(cfg tracking.Configuration) tracking.Configuration {
	roles := make(tracking.RoleSet, len(cfg.TrackedRoles))
	for r := range cfg.TrackedRoles {
		roles[r] = struct{}{}
	}
	return tracking.Configuration{TrackedRoles: roles, EraseOnUninstall: cfg.EraseOnUninstall}
}

func encodeRoles(roles tracking.RoleSet) string {
	b, _ := json.Marshal(roles.Sorted())
	return string(b)
}

// decodeRoles treats anything that is not a JSON string array as an empty selection.
func decodeRoles(raw string) tracking.RoleSet {
	var roles []string
	if err := json.Unmarshal([]byte(raw), &roles); err != nil {
		return tracking.NewRoleSet()
	}
	return tracking.NewRoleSet(roles...)
}

func encodeBool(v bool) string {
	if v {
		return eraseEnabled
	}
	return ""
}
