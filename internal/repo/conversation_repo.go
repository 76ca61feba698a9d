// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for conversations
// and their participant rows.
//
// The pair-key convention: a two-party conversation stores the sorted pair of
// participant ids joined with "|" in dm_conversations.pair_key, under a unique
// index. Find-or-create therefore cannot race into two threads for the same
// pair; the loser of a concurrent create hits ErrDuplicate and re-fetches.
package repo

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/domain"
)

// PairKey canonicalizes an unordered participant pair into the unique key
// stored on the conversation row. PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// CreateConversation inserts a conversation row plus exactly two participant
// rows inside one transaction, so a failure cannot leave an orphaned
// conversation without participants. Returns ErrDuplicate when a conversation
// for the same pair already exists.
func CreateConversation(ctx context.Context, db *gorm.DB, senderID, participantID string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	conv := &domain.Conversation{
		ID:             uuid.NewString(),
		PairKey:        PairKey(senderID, participantID),
		CreatedAt:      now,
		LastActivityAt: &now,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		rows := []domain.Participant{
			{ConversationID: conv.ID, UserID: senderID},
		}
		if participantID != senderID {
			rows = append(rows, domain.Participant{ConversationID: conv.ID, UserID: participantID})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return conv, nil
}

// GetConversation fetches a conversation by id, or ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetConversationByPair fetches the conversation for an unordered participant
// pair via the pair key, or ErrNotFound.
func GetConversationByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).Where("pair_key = ?", PairKey(a, b)).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns the conversation rows for the given ids, most
// recently active first (creation time stands in for activity on threads that
// have never seen a message).
func ListConversations(ctx context.Context, db *gorm.DB, ids []string) ([]domain.Conversation, error) {
	if len(ids) == 0 {
		return []domain.Conversation{}, nil
	}
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("COALESCE(last_activity_at, created_at) DESC").
		Find(&out).Error
	return out, err
}

// SetLastMessage updates the conversation's last-message pointer and activity
// timestamp to the given message.
func SetLastMessage(ctx context.Context, db *gorm.DB, conversationID, messageID string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]any{
			"last_message_id":  messageID,
			"last_activity_at": at,
		}).Error
}

// ListConversationIDsForUser returns the ids of every conversation the user
// participates in.
func ListConversationIDsForUser(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &out).Error
	return out, err
}

// IsParticipant reports whether userID has a participant row in the
// conversation.
func IsParticipant(ctx context.Context, db *gorm.DB, conversationID, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&n).Error
	return n > 0, err
}

// ListParticipants returns the participant rows for all given conversations
// in one query.
func ListParticipants(ctx context.Context, db *gorm.DB, conversationIDs []string) ([]domain.Participant, error) {
	if len(conversationIDs) == 0 {
		return []domain.Participant{}, nil
	}
	var out []domain.Participant
	err := db.WithContext(ctx).
		Where("conversation_id IN ?", conversationIDs).
		Find(&out).Error
	return out, err
}
