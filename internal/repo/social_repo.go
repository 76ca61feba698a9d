// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for posts and
// comments.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/domain"
)

// CreatePost inserts a new post row.
func CreatePost(ctx context.Context, db *gorm.DB, userID, text string) (*domain.Post, error) {
	p := &domain.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost fetches a post by id, or ErrNotFound.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts returns posts newest first, optionally filtered to one author,
// with author and comment associations (and comment authors) preloaded.
func ListPosts(ctx context.Context, db *gorm.DB, userID string) ([]domain.Post, error) {
	q := db.WithContext(ctx).
		Preload("User").
		Preload("Comments").
		Preload("Comments.User").
		Order("created_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var out []domain.Post
	err := q.Find(&out).Error
	return out, err
}

// ListPostsByUser returns a user's posts newest first without associations.
func ListPostsByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// CreateComment inserts a new comment row. The caller supplies the resolved
// thread conversation id.
func CreateComment(ctx context.Context, db *gorm.DB, postID, userID, text string, repliedTo *string, conversationID string) (*domain.Comment, error) {
	c := &domain.Comment{
		ID:             uuid.NewString(),
		PostID:         postID,
		UserID:         userID,
		Text:           text,
		RepliedTo:      repliedTo,
		ConversationID: conversationID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetComment fetches a comment by id, or ErrNotFound.
func GetComment(ctx context.Context, db *gorm.DB, id string) (*domain.Comment, error) {
	var c domain.Comment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCommentsByPost returns a post's comments oldest first, with authors
// preloaded.
func ListCommentsByPost(ctx context.Context, db *gorm.DB, postID string) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// ListCommentsByThread returns every comment sharing a thread conversation id,
// newest first (the search endpoint's ordering).
func ListCommentsByThread(ctx context.Context, db *gorm.DB, conversationID string) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// CountCommentsByPost returns reply counts grouped by post for the given
// posts in one query.
func CountCommentsByPost(ctx context.Context, db *gorm.DB, postIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		PostID string
		N      int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}
