// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/domain"
)

// CreateMessage inserts a new message row with a fresh UUID and UTC timestamp.
func CreateMessage(ctx context.Context, db *gorm.DB, conversationID, senderID, text string, mediaID *string) (*domain.Message, error) {
	m := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		MediaID:        mediaID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetMessage fetches a message by id, or ErrNotFound.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns all messages of a conversation ordered deterministically
// oldest first (CreatedAt ASC, ID ASC).
func ListMessages(ctx context.Context, db *gorm.DB, conversationID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListMessagesNewestFirst returns every message of the given conversations in
// one round trip, newest first. Callers keep the first occurrence per
// conversation id to obtain each thread's latest message.
func ListMessagesNewestFirst(ctx context.Context, db *gorm.DB, conversationIDs []string) ([]domain.Message, error) {
	if len(conversationIDs) == 0 {
		return []domain.Message{}, nil
	}
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("conversation_id IN ?", conversationIDs).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(ctx context.Context, db *gorm.DB, conversationID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM dm_messages WHERE conversation_id = ?", conversationID).
		Scan(&total).Error
	return total, err
}
