package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/her-chat/internal/types"
)

type personaModel struct {
	ID                string `gorm:"primaryKey"`
	Name              string `gorm:"not null"`
	CharacterName     string
	RelationshipType  string
	UserNickname      string
	CharacterNickname string
	Goals             datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
	Style             datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
	Habits            datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"`
	CustomNotes       string
	CreatedAtMs       int64 `gorm:"not null;index"`
	UpdatedAtMs       int64 `gorm:"not null"`
}

func (personaModel) TableName() string {
	return "personas"
}

// PersonaRepo accesses persona data.
type PersonaRepo struct {
	db *gorm.DB
}

func NewPersonaRepo(db *gorm.DB) *PersonaRepo {
	return &PersonaRepo{db: db}
}

// List returns personas in creation order. Rows that fail to decode are
// skipped.
func (r *PersonaRepo) List(ctx context.Context) ([]types.Persona, error) {
	var records []personaModel
	if err := r.db.WithContext(ctx).Order("created_at_ms ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query personas: %w", err)
	}
	personas := make([]types.Persona, 0, len(records))
	for _, record := range records {
		persona, err := personaFromModel(record)
		if err != nil {
			continue
		}
		personas = append(personas, persona)
	}
	return personas, nil
}

func (r *PersonaRepo) Get(ctx context.Context, id string) (types.Persona, error) {
	var record personaModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Persona{}, ErrNotFound
	}
	if err != nil {
		return types.Persona{}, fmt.Errorf("failed to get persona: %w", err)
	}
	return personaFromModel(record)
}

// Save inserts or fully replaces a persona.
func (r *PersonaRepo) Save(ctx context.Context, persona types.Persona) error {
	record, err := personaToModel(persona)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save persona: %w", err)
	}
	return nil
}

func (r *PersonaRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&personaModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete persona: %w", err)
	}
	return nil
}

func personaToModel(persona types.Persona) (personaModel, error) {
	goals, err := json.Marshal(persona.Goals)
	if err != nil {
		return personaModel{}, fmt.Errorf("failed to marshal persona goals: %w", err)
	}
	style, err := json.Marshal(persona.Style)
	if err != nil {
		return personaModel{}, fmt.Errorf("failed to marshal persona style: %w", err)
	}
	habits, err := json.Marshal(persona.Habits)
	if err != nil {
		return personaModel{}, fmt.Errorf("failed to marshal persona habits: %w", err)
	}
	return personaModel{
		ID:                persona.ID,
		Name:              persona.Name,
		CharacterName:     persona.CharacterName,
		RelationshipType:  string(persona.RelationshipType),
		UserNickname:      persona.UserNickname,
		CharacterNickname: persona.CharacterNickname,
		Goals:             datatypes.JSON(goals),
		Style:             datatypes.JSON(style),
		Habits:            datatypes.JSON(habits),
		CustomNotes:       persona.CustomNotes,
		CreatedAtMs:       persona.CreatedAt,
		UpdatedAtMs:       persona.UpdatedAt,
	}, nil
}

func personaFromModel(model personaModel) (types.Persona, error) {
	persona := types.Persona{
		ID:                model.ID,
		Name:              model.Name,
		CharacterName:     model.CharacterName,
		RelationshipType:  types.RelationshipType(model.RelationshipType),
		UserNickname:      model.UserNickname,
		CharacterNickname: model.CharacterNickname,
		CustomNotes:       model.CustomNotes,
		CreatedAt:         model.CreatedAtMs,
		UpdatedAt:         model.UpdatedAtMs,
	}
	if err := unmarshalJSON(model.Goals, &persona.Goals); err != nil {
		return types.Persona{}, fmt.Errorf("failed to decode persona goals: %w", err)
	}
	if err := unmarshalJSON(model.Style, &persona.Style); err != nil {
		return types.Persona{}, fmt.Errorf("failed to decode persona style: %w", err)
	}
	if err := unmarshalJSON(model.Habits, &persona.Habits); err != nil {
		return types.Persona{}, fmt.Errorf("failed to decode persona habits: %w", err)
	}
	return persona, nil
}

func unmarshalJSON(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
