// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Media model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/domain"
)

// CreateMedia inserts an upload record with a pre-computed id and URL.
func CreateMedia(ctx context.Context, db *gorm.DB, id string, filename *string, mediaURL string) (*domain.Media, error) {
	m := &domain.Media{
		ID:        id,
		Filename:  filename,
		MediaURL:  mediaURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetMedia fetches a media record by id, or ErrNotFound.
func GetMedia(ctx context.Context, db *gorm.DB, id string) (*domain.Media, error) {
	var m domain.Media
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMediaByID returns the media rows for the given ids in one query.
func ListMediaByID(ctx context.Context, db *gorm.DB, ids []string) ([]domain.Media, error) {
	if len(ids) == 0 {
		return []domain.Media{}, nil
	}
	var out []domain.Media
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}
