package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/her-chat/internal/types"
)

// chatSessionModel maps to the chat_sessions table.
type chatSessionModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	PersonaID   string `gorm:"index"`
	CreatedAtMs int64  `gorm:"not null;index"`
	UpdatedAtMs int64  `gorm:"not null"`
}

func (chatSessionModel) TableName() string {
	return "chat_sessions"
}

// chatMessageModel maps to the chat_messages table. Seq keeps the
// append order of a session.
type chatMessageModel struct {
	ID          string `gorm:"primaryKey"`
	SessionID   string `gorm:"not null;index:idx_chat_messages_session_seq,priority:1"`
	Seq         int    `gorm:"not null;index:idx_chat_messages_session_seq,priority:2"`
	Role        string `gorm:"not null"`
	Content     string `gorm:"type:text;not null"`
	TimestampMs int64  `gorm:"not null"`
}

func (chatMessageModel) TableName() string {
	return "chat_messages"
}

// SessionRepo accesses chat sessions and their messages.
type SessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// List returns every session in creation order with messages in append order.
func (r *SessionRepo) List(ctx context.Context) ([]types.ChatSession, error) {
	var records []chatSessionModel
	if err := r.db.WithContext(ctx).Order("created_at_ms ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query chat sessions: %w", err)
	}
	if len(records) == 0 {
		return []types.ChatSession{}, nil
	}

	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	var messages []chatMessageModel
	if err := r.db.WithContext(ctx).
		Where("session_id IN ?", ids).
		Order("session_id ASC").
		Order("seq ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}

	bySession := make(map[string][]types.Message, len(records))
	for _, message := range messages {
		bySession[message.SessionID] = append(bySession[message.SessionID], messageFromModel(message))
	}

	sessions := make([]types.ChatSession, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, sessionFromModel(record, bySession[record.ID]))
	}
	return sessions, nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (types.ChatSession, error) {
	var record chatSessionModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ChatSession{}, ErrNotFound
	}
	if err != nil {
		return types.ChatSession{}, fmt.Errorf("failed to get chat session: %w", err)
	}

	var messages []chatMessageModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", id).Order("seq ASC").Find(&messages).Error; err != nil {
		return types.ChatSession{}, fmt.Errorf("failed to query chat messages: %w", err)
	}
	converted := make([]types.Message, 0, len(messages))
	for _, message := range messages {
		converted = append(converted, messageFromModel(message))
	}
	return sessionFromModel(record, converted), nil
}

// Save writes the session row and replaces its message list in one
// transaction.
func (r *SessionRepo) Save(ctx context.Context, session types.ChatSession) error {
	record := sessionToModel(session)
	messages := messagesToModels(session.ID, session.Messages)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to save chat session: %w", err)
		}
		if err := tx.Where("session_id = ?", session.ID).Delete(&chatMessageModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear chat messages: %w", err)
		}
		if len(messages) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(messages, 200).Error; err != nil {
			return fmt.Errorf("failed to insert chat messages: %w", err)
		}
		return nil
	})
	return err
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&chatMessageModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete chat messages: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&chatSessionModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete chat session: %w", err)
		}
		return nil
	})
}

func sessionToModel(session types.ChatSession) chatSessionModel {
	return chatSessionModel{
		ID:          session.ID,
		Name:        session.Name,
		PersonaID:   session.PersonaID,
		CreatedAtMs: session.CreatedAt,
		UpdatedAtMs: session.UpdatedAt,
	}
}

func messagesToModels(sessionID string, messages []types.Message) []chatMessageModel {
	records := make([]chatMessageModel, 0, len(messages))
	for i, message := range messages {
		records = append(records, chatMessageModel{
			ID:          message.ID,
			SessionID:   sessionID,
			Seq:         i,
			Role:        message.Role,
			Content:     message.Content,
			TimestampMs: message.Timestamp,
		})
	}
	return records
}

func sessionFromModel(model chatSessionModel, messages []types.Message) types.ChatSession {
	if messages == nil {
		messages = []types.Message{}
	}
	return types.ChatSession{
		ID:        model.ID,
		Name:      model.Name,
		Messages:  messages,
		PersonaID: model.PersonaID,
		CreatedAt: model.CreatedAtMs,
		UpdatedAt: model.UpdatedAtMs,
	}
}

func messageFromModel(model chatMessageModel) types.Message {
	return types.Message{
		ID:        model.ID,
		Role:      model.Role,
		Content:   model.Content,
		Timestamp: model.TimestampMs,
	}
}
