package settings

import (
	"context"
	"errors"
	"fmt"

	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"
)

type SettingsStore interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]models.Setting, error)
}

var ErrInvalidValue = errors.New("invalid setting value")

// Validator rejects values that must not be stored under a key.
type Validator func(value string) error

// Service reads settings through an optional Redis cache. Cache failures
// are logged and fall through to the store.
type Service struct {
	Store      SettingsStore
	Cache      *Cache
	Logger     *logger.Logger
	validators map[string]Validator
}

func NewService(store SettingsStore, cache *Cache, log *logger.Logger) *Service {
	return &Service{
		Store:      store,
		Cache:      cache,
		Logger:     log,
		validators: map[string]Validator{},
	}
}

func (s *Service) RegisterValidator(key string, v Validator) {
	s.validators[key] = v
}

// GetConfig returns the stored value for key or models.ErrSettingNotFound.
func (s *Service) GetConfig(ctx context.Context, key string) (string, error) {
	if s.Cache != nil {
		val, ok, err := s.Cache.Get(ctx, key)
		if err != nil {
			s.Logger.Warn("SETTINGS", fmt.Sprintf("Cache read failed for %s: %v", key, err))
		} else if ok {
			return val, nil
		}
	}

	setting, err := s.Store.Get(ctx, key)
	if err != nil {
		return "", err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, setting.Value); err != nil {
			s.Logger.Warn("SETTINGS", fmt.Sprintf("Cache write failed for %s: %v", key, err))
		}
	}
	return setting.Value, nil
}

// SetConfig validates and stores value, then drops the cached copy.
func (s *Service) SetConfig(ctx context.Context, key, value string) error {
	if v, ok := s.validators[key]; ok {
		if err := v(value); err != nil {
			return fmt.Errorf("%w for %s: %w", ErrInvalidValue, key, err)
		}
	}

	if err := s.Store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}

	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, key); err != nil {
			s.Logger.Warn("SETTINGS", fmt.Sprintf("Cache invalidation failed for %s: %v", key, err))
		}
	}

	s.Logger.Info("SETTINGS", fmt.Sprintf("Setting %s updated to %q", key, value))
	return nil
}

func (s *Service) ListConfig(ctx context.Context) ([]models.Setting, error) {
	return s.Store.List(ctx)
}
