// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (weak ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/domain"
)

// ConversationsStats returns aggregate metadata for a user's conversations:
// the number of threads and the greatest activity timestamp among them
// (creation time standing in for threads without messages). When the user has
// no conversations, count is 0 and maxActivity is nil.
func ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxActivity *time.Time, err error) {
	ids, err := ListConversationIDsForUser(ctx, db, userID)
	if err != nil {
		return 0, nil, err
	}
	count = int64(len(ids))
	if count == 0 {
		return 0, nil, nil
	}

	// Scan raw columns only; a COALESCE alias comes back as TEXT in SQLite.
	var row struct {
		LastActivityAt *time.Time
		CreatedAt      time.Time
	}
	err = db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Select("last_activity_at, created_at").
		Where("id IN ?", ids).
		Order("COALESCE(last_activity_at, created_at) DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, nil, err
	}
	ts := row.CreatedAt
	if row.LastActivityAt != nil {
		ts = *row.LastActivityAt
	}
	return count, &ts, nil
}

// MessagesStats returns aggregate metadata for the messages of a conversation:
// row count and the greatest CreatedAt. When the conversation has no messages,
// count is 0 and maxCreated is nil.
func MessagesStats(ctx context.Context, db *gorm.DB, conversationID string) (count int64, maxCreated *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Message{}).Where("conversation_id = ?", conversationID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX() -> TEXT in SQLite.
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
