// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Unique-violation on insert surfaces as ErrDuplicate so callers can
//     treat concurrent seeding as benign.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for consistency across services and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation on insert.
var ErrDuplicate = errors.New("duplicate")

// isDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey. SQLite reports "UNIQUE constraint
// failed"; Postgres reports "duplicate key value violates unique constraint".
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

// CreateUser inserts a new user row. Returns ErrDuplicate when the id or
// username is already taken.
func CreateUser(ctx context.Context, db *gorm.DB, id, username string) (*domain.User, error) {
	u := &domain.User{
		ID:        id,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a user by username, or ErrNotFound.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users ordered by creation time. Ascending order is
// used by the directory (seeded contacts first by insertion), descending by
// the admin user listing.
func ListUsers(ctx context.Context, db *gorm.DB, ascending bool) ([]domain.User, error) {
	order := "created_at DESC"
	if ascending {
		order = "created_at ASC"
	}
	var out []domain.User
	err := db.WithContext(ctx).Order(order).Find(&out).Error
	return out, err
}

// ListUsersByID returns the users whose ids are in ids (deduplicated by the
// caller or not; the IN clause tolerates repeats).
func ListUsersByID(ctx context.Context, db *gorm.DB, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	var out []domain.User
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// ListUsernames returns the subset of usernames that already have a row.
// Used by the directory seeder to compute the missing set in one round trip.
func ListUsernames(ctx context.Context, db *gorm.DB, usernames []string) ([]string, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("username IN ?", usernames).
		Pluck("username", &out).Error
	return out, err
}
