package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Settings returns the installation settings, creating the defaults on first use.
func (s *Store) Settings(ctx context.Context) (*AppSettings, error) {
	var settings *AppSettings
	err := s.retryOnDuplicate(func() error {
		return s.tx(ctx, "load settings", func(tx *gorm.DB) error {
			var err error
			settings, err = loadSettings(tx)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func loadSettings(tx *gorm.DB) (*AppSettings, error) {
	var settings AppSettings
	err := tx.Where("scope = ?", defaultSettingsScope).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	settings = DefaultSettings()
	if err := tx.Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings *AppSettings) error {
	if settings.Scope == "" {
		settings.Scope = defaultSettingsScope
	}
	return s.tx(ctx, "save settings", func(tx *gorm.DB) error {
		return tx.Save(settings).Error
	})
}

func (s *Store) MarkHealthSynced(ctx context.Context, at time.Time) error {
	return s.retryOnDuplicate(func() error {
		return s.tx(ctx, "mark health sync", func(tx *gorm.DB) error {
			settings, err := loadSettings(tx)
			if err != nil {
				return err
			}
			return tx.Model(settings).Update("last_health_sync", at.UTC()).Error
		})
	})
}
