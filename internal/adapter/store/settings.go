package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository is a key-value table for small JSON documents.
type SettingsRepository struct {
	db *gorm.DB
}

// Load returns the value stored under key and whether it exists.
func (r *SettingsRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var rows []settingRow
	if err := r.db.WithContext(ctx).Where("name = ?", key).Limit(1).Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("load setting %s: %w", key, err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return []byte(rows[0].Value), true, nil
}

// Save upserts value under key.
func (r *SettingsRepository) Save(ctx context.Context, key string, value []byte) error {
	row := settingRow{Name: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
