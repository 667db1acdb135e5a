package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-attendance/internal/models"
)

// Store persists key/value settings rows.
type Store struct {
	Bun *bun.DB
}

func (s *Store) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := s.Bun.NewSelect().
		Model(&setting).
		Where("? = ?", bun.Ident("key"), key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSettingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// Set inserts or replaces the value for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	setting := models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.Bun.NewInsert().
		Model(&setting).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) List(ctx context.Context) ([]models.Setting, error) {
	settings := []models.Setting{}
	err := s.Bun.NewSelect().
		Model(&settings).
		Order("key ASC").
		Scan(ctx)
	return settings, err
}
