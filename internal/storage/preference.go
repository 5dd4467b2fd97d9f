package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Preference keys.
const (
	KeyCurrentSession = "current_session_id"
	KeyCurrentPersona = "current_persona_id"
	KeyAPISettings    = "api_settings"
	KeyUserAvatar     = "user_avatar"
	KeyAIAvatar       = "ai_avatar"
)

// preferenceModel is a keyed JSON record.
type preferenceModel struct {
	Key       string         `gorm:"primaryKey"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (preferenceModel) TableName() string {
	return "preferences"
}

// PreferenceRepo stores small keyed values as JSON.
type PreferenceRepo struct {
	db *gorm.DB
}

func NewPreferenceRepo(db *gorm.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Load decodes the value stored under key into dst. It reports false when
// the key is missing. A value that cannot be decoded is an error; callers
// should decode into a scratch value.
func (r *PreferenceRepo) Load(ctx context.Context, key string, dst any) (bool, error) {
	var record preferenceModel
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load preference %s: %w", key, err)
	}
	if err := decodePreference(record.Value, dst); err != nil {
		return false, fmt.Errorf("failed to decode preference %s: %w", key, err)
	}
	return true, nil
}

func (r *PreferenceRepo) Save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode preference %s: %w", key, err)
	}
	record := preferenceModel{Key: key, Value: datatypes.JSON(raw)}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}

func (r *PreferenceRepo) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&preferenceModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete preference %s: %w", key, err)
	}
	return nil
}

func decodePreference(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 {
		return errors.New("empty value")
	}
	return json.Unmarshal(raw, dst)
}
