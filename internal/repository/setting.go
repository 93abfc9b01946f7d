package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository defines persistence operations for site-wide settings.
type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	// Set upserts the key and stamps last_edited in the same transaction.
	Set(ctx context.Context, key, value string) error
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository returns a new SettingRepository implementation.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, key string) (string, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", models.NewNotFoundError("Setting", key)
	}
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return setting.Value, nil
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}
		if err := tx.Clauses(upsert).Create(&models.Setting{
			Key:       key,
			Value:     value,
			UpdatedAt: now,
		}).Error; err != nil {
			return err
		}
		if key == models.SettingLastEdited {
			return nil
		}
		return tx.Clauses(upsert).Create(&models.Setting{
			Key:       models.SettingLastEdited,
			Value:     now.Format(time.RFC3339),
			UpdatedAt: now,
		}).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
