// Package services – DirectoryService
//
// This file implements the DirectoryService, which owns user rows and the
// seeded mock-contact directory. It seeds missing contacts idempotently,
// resolves users by id or username (creating them on first login), and shapes
// public profiles, decorating them with contact metadata when available.
//
// The contact list is injected at construction; there is no process-wide
// directory state.
package services

import (
	"context"
	"errors"
	"net/url"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/directory"
	"github.com/minixhq/minix-backend/internal/domain"
	"github.com/minixhq/minix-backend/internal/repo"
)

const (
	// defaultProfileTitle is used when a user has no directory metadata.
	defaultProfileTitle = "Beta Tester"
	// avatarBaseURL synthesizes a deterministic avatar from the username.
	avatarBaseURL = "https://api.dicebear.com/7.x/notionists/svg?seed="
)

// Profile is the public shape of a user: directory metadata when the user is
// a seeded contact, deterministic defaults otherwise.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Title       string `json:"title"`
	AvatarURL   string `json:"avatar_url"`
}

// DirectoryService seeds and serves the contact directory and resolves users.
type DirectoryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Contacts is the injected mock directory.
	Contacts []directory.Contact

	byUsername map[string]directory.Contact
	collator   *collate.Collator
}

// NewDirectoryService constructs a DirectoryService around the given contact
// list. Directory listings are sorted with an English collator, matching
// locale-aware display-name comparison.
func NewDirectoryService(db *gorm.DB, contacts []directory.Contact) *DirectoryService {
	return &DirectoryService{
		DB:         db,
		Contacts:   contacts,
		byUsername: directory.ByUsername(contacts),
		collator:   collate.New(language.English),
	}
}

// Seed inserts every contact that is not already present by username.
// Duplicate-key failures are benign (a concurrent caller seeded first) and
// swallowed; any other failure propagates. Calling Seed N times has the same
// effect as calling it once, and it only ever adds rows.
func (s *DirectoryService) Seed(ctx context.Context) error {
	if len(s.Contacts) == 0 {
		return nil
	}
	usernames := make([]string, 0, len(s.Contacts))
	for _, c := range s.Contacts {
		usernames = append(usernames, c.Username)
	}
	existing, err := repo.ListUsernames(ctx, s.DB, usernames)
	if err != nil {
		return err
	}
	present := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		present[u] = struct{}{}
	}
	for _, c := range s.Contacts {
		if _, ok := present[c.Username]; ok {
			continue
		}
		if _, err := repo.CreateUser(ctx, s.DB, c.ID, c.Username); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			return err
		}
	}
	return nil
}

// EnsureUser resolves userID to an existing row, creating one from username
// when given. Returns ErrUserNotFound when the id is unknown and no username
// was supplied.
func (s *DirectoryService) EnsureUser(ctx context.Context, userID, username string) (*domain.User, error) {
	if userID == "" {
		if username == "" {
			return nil, ErrUserNotFound
		}
		return s.FindOrCreateByUsername(ctx, username)
	}
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if username == "" {
		return nil, ErrUserNotFound
	}
	u, err = repo.CreateUser(ctx, s.DB, userID, username)
	if errors.Is(err, repo.ErrDuplicate) {
		// Username taken by another id; the existing row wins.
		return repo.GetUserByUsername(ctx, s.DB, username)
	}
	return u, err
}

// ResolveUser looks up an existing user by id, falling back to username, and
// never creates one. Returns ErrUserNotFound when neither resolves; only
// login-style flows register accounts.
func (s *DirectoryService) ResolveUser(ctx context.Context, userID, username string) (*domain.User, error) {
	if userID != "" {
		u, err := repo.GetUser(ctx, s.DB, userID)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}
	if username == "" {
		return nil, ErrUserNotFound
	}
	u, err := repo.GetUserByUsername(ctx, s.DB, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// FindOrCreateByUsername implements login: returns the existing user for the
// username or creates a fresh one.
func (s *DirectoryService) FindOrCreateByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := repo.GetUserByUsername(ctx, s.DB, username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	u, err = repo.CreateUser(ctx, s.DB, uuid.NewString(), username)
	if errors.Is(err, repo.ErrDuplicate) {
		// Concurrent login with the same username; the row exists now.
		return repo.GetUserByUsername(ctx, s.DB, username)
	}
	return u, err
}

// Users returns every user row, newest first.
func (s *DirectoryService) Users(ctx context.Context) ([]domain.User, error) {
	return repo.ListUsers(ctx, s.DB, false)
}

// List seeds the directory and returns all user profiles except excludeID,
// seeded contacts first, then by collated display name.
func (s *DirectoryService) List(ctx context.Context, excludeID string) ([]Profile, error) {
	if err := s.Seed(ctx); err != nil {
		return nil, err
	}
	users, err := repo.ListUsers(ctx, s.DB, true)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(users))
	for _, u := range users {
		if excludeID != "" && u.ID == excludeID {
			continue
		}
		out = append(out, s.Profile(u))
	}
	sort.SliceStable(out, func(i, j int) bool {
		_, iMock := s.byUsername[out[i].Username]
		_, jMock := s.byUsername[out[j].Username]
		if iMock != jMock {
			return iMock
		}
		return s.collator.CompareString(out[i].DisplayName, out[j].DisplayName) < 0
	})
	return out, nil
}

// Profile shapes a user row into its public profile. Contact metadata wins;
// otherwise display name falls back to the username, the title to a fixed
// placeholder, and the avatar to a deterministic URL seeded by username.
func (s *DirectoryService) Profile(u domain.User) Profile {
	if c, ok := s.byUsername[u.Username]; ok {
		return Profile{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: c.DisplayName,
			Title:       c.Title,
			AvatarURL:   c.AvatarURL,
		}
	}
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.Username,
		Title:       defaultProfileTitle,
		AvatarURL:   avatarBaseURL + url.QueryEscape(u.Username),
	}
}

// ProfilesByID batch-resolves profiles for the given user ids.
func (s *DirectoryService) ProfilesByID(ctx context.Context, ids []string) (map[string]Profile, error) {
	out := make(map[string]Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	users, err := repo.ListUsersByID(ctx, s.DB, unique)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = s.Profile(u)
	}
	return out, nil
}

// BotContact returns the designated welcome-bot contact, if seeded.
func (s *DirectoryService) BotContact() (directory.Contact, bool) {
	c, ok := s.byUsername[directory.BotUsername]
	return c, ok
}
