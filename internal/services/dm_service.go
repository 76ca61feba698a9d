// Package services – DMService
//
// This file implements DMService, the application-level component that owns
// direct-message conversations: discovery and creation of the thread shared
// by a participant pair, message ingestion with last-activity maintenance,
// the one-time welcome thread, and shaping of conversation and message rows
// into the public wire format.
//
// Conversation uniqueness: threads carry a canonicalized pair key under a
// unique index, so find-or-create is race-free — the loser of a concurrent
// create re-fetches the winner's row instead of inserting a second thread.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include conversation/user identifiers.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/domain"
	"github.com/minixhq/minix-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultGreeting is the first message of every welcome thread.
const DefaultGreeting = "Hi! I am a mock DM bot. Send me anything to see the persisted response."

// SendPayload carries the normalized body of a send request. Text may be
// empty only when MediaID is set; callers enforce that precondition, the
// ingestor does not re-check it.
type SendPayload struct {
	Text    string
	MediaID *string
}

// SendResult pairs a persisted message with the conversation that received
// it (which, on the participant-fallback path, may have just been created).
type SendResult struct {
	ConversationID string
	Message        *domain.Message
}

// LastMessage is the embedded newest-message summary of a conversation.
type LastMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	SenderID  string    `json:"sender_id"`
	MediaID   *string   `json:"media_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationSummary is the public shape of a conversation in listings.
type ConversationSummary struct {
	ID                  string       `json:"id"`
	Type                string       `json:"type"`
	Participants        []string     `json:"participants"`
	ParticipantProfiles []Profile    `json:"participant_profiles"`
	LastMessage         *LastMessage `json:"last_message"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// MediaRef is an embedded media reference in message listings.
type MediaRef struct {
	ID       string `json:"id"`
	MediaURL string `json:"media_url"`
}

// MessageView is the public shape of a message, with the sender profile and
// referenced media resolved into embedded objects.
type MessageView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	SenderID  string    `json:"sender_id"`
	Sender    *Profile  `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
	Media     *MediaRef `json:"media,omitempty"`
}

// DMService coordinates conversation resolution, message ingestion, and
// response shaping for the DM subsystem.
type DMService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Directory resolves users, seeds contacts, and shapes profiles.
	Directory *DirectoryService
	// Greeting overrides DefaultGreeting when non-empty.
	Greeting string
}

// NewDMService constructs a DMService bound to the given directory.
func NewDMService(db *gorm.DB, dir *DirectoryService) *DMService {
	return &DMService{DB: db, Directory: dir, Greeting: DefaultGreeting}
}

// ListConversations seeds the directory, resolves (or creates, when username
// is given) the user, ensures the welcome thread, and returns the user's
// conversations most recently active first.
func (s *DMService) ListConversations(ctx context.Context, userID, username string) ([]ConversationSummary, error) {
	tr := otel.Tracer("services/DMService")
	ctx, span := tr.Start(ctx, "ListConversations",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if err := s.Directory.Seed(ctx); err != nil {
		return nil, err
	}
	if _, err := s.Directory.EnsureUser(ctx, userID, username); err != nil {
		return nil, err
	}
	if err := s.ensureWelcomeThread(ctx, userID); err != nil {
		return nil, err
	}

	ids, err := repo.ListConversationIDsForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []ConversationSummary{}, nil
	}

	convs, err := repo.ListConversations(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	parts, err := repo.ListParticipants(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	// One round trip for every thread's newest message: fetch newest-first
	// and keep the first occurrence per conversation.
	msgs, err := repo.ListMessagesNewestFirst(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]domain.Message, len(ids))
	for _, m := range msgs {
		if _, ok := latest[m.ConversationID]; !ok {
			latest[m.ConversationID] = m
		}
	}

	memberIDs := make([]string, 0, len(parts))
	for _, p := range parts {
		memberIDs = append(memberIDs, p.UserID)
	}
	profiles, err := s.Directory.ProfilesByID(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	membersByConv := make(map[string][]string, len(ids))
	for _, p := range parts {
		membersByConv[p.ConversationID] = append(membersByConv[p.ConversationID], p.UserID)
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		members := membersByConv[c.ID]
		memberProfiles := make([]Profile, 0, len(members))
		for _, id := range members {
			if pr, ok := profiles[id]; ok {
				memberProfiles = append(memberProfiles, pr)
			}
		}

		var last *LastMessage
		if m, ok := latest[c.ID]; ok {
			last = &LastMessage{
				ID:        m.ID,
				Text:      m.Text,
				SenderID:  m.SenderID,
				MediaID:   m.MediaID,
				CreatedAt: m.CreatedAt,
			}
		}

		updatedAt := c.CreatedAt
		if c.LastActivityAt != nil {
			updatedAt = *c.LastActivityAt
		}

		out = append(out, ConversationSummary{
			ID:                  c.ID,
			Type:                "dm_conversation",
			Participants:        members,
			ParticipantProfiles: memberProfiles,
			LastMessage:         last,
			UpdatedAt:           updatedAt,
		})
	}
	return out, nil
}

// ListMessages returns a conversation's messages oldest first, with sender
// profiles and referenced media batch-resolved into embedded objects.
func (s *DMService) ListMessages(ctx context.Context, conversationID string) ([]MessageView, error) {
	tr := otel.Tracer("services/DMService")
	ctx, span := tr.Start(ctx, "ListMessages",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)),
	)
	defer span.End()

	if _, err := repo.GetConversation(ctx, s.DB, conversationID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	msgs, err := repo.ListMessages(ctx, s.DB, conversationID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]string, 0, len(msgs))
	mediaIDs := make([]string, 0, len(msgs))
	for _, m := range msgs {
		senderIDs = append(senderIDs, m.SenderID)
		if m.MediaID != nil && *m.MediaID != "" {
			mediaIDs = append(mediaIDs, *m.MediaID)
		}
	}
	profiles, err := s.Directory.ProfilesByID(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	mediaRows, err := repo.ListMediaByID(ctx, s.DB, mediaIDs)
	if err != nil {
		return nil, err
	}
	mediaByID := make(map[string]domain.Media, len(mediaRows))
	for _, m := range mediaRows {
		mediaByID[m.ID] = m
	}

	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		view := MessageView{
			ID:        m.ID,
			Text:      m.Text,
			SenderID:  m.SenderID,
			CreatedAt: m.CreatedAt,
		}
		if pr, ok := profiles[m.SenderID]; ok {
			p := pr
			view.Sender = &p
		}
		if m.MediaID != nil {
			if md, ok := mediaByID[*m.MediaID]; ok {
				view.Media = &MediaRef{ID: md.ID, MediaURL: md.MediaURL}
			}
		}
		out = append(out, view)
	}
	return out, nil
}

// SendToConversation appends a message to an existing conversation after
// verifying that the conversation exists and the sender participates in it.
func (s *DMService) SendToConversation(ctx context.Context, conversationID, senderID string, payload SendPayload) (*SendResult, error) {
	tr := otel.Tracer("services/DMService")
	ctx, span := tr.Start(ctx, "SendToConversation",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("sender.id", senderID),
		),
	)
	defer span.End()

	if _, err := repo.GetConversation(ctx, s.DB, conversationID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if err := s.requireSenderInConversation(ctx, conversationID, senderID); err != nil {
		return nil, err
	}
	msg, err := s.insertMessage(ctx, conversationID, senderID, payload)
	if err != nil {
		return nil, err
	}
	return &SendResult{ConversationID: conversationID, Message: msg}, nil
}

// SendToParticipant delivers a message to a user, finding or creating the
// shared two-party conversation first. The target must exist as a user row;
// the directory is seeded beforehand so stock contacts are always valid
// targets.
func (s *DMService) SendToParticipant(ctx context.Context, senderID, participantID string, payload SendPayload) (*SendResult, error) {
	tr := otel.Tracer("services/DMService")
	ctx, span := tr.Start(ctx, "SendToParticipant",
		trace.WithAttributes(
			attribute.String("sender.id", senderID),
			attribute.String("participant.id", participantID),
		),
	)
	defer span.End()

	if err := s.Directory.Seed(ctx); err != nil {
		return nil, err
	}
	if _, err := repo.GetUser(ctx, s.DB, participantID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}

	conv, err := s.findOrCreateConversation(ctx, senderID, participantID)
	if err != nil {
		return nil, err
	}
	msg, err := s.insertMessage(ctx, conv.ID, senderID, payload)
	if err != nil {
		return nil, err
	}
	return &SendResult{ConversationID: conv.ID, Message: msg}, nil
}

// findOrCreateConversation resolves the unique thread shared by the pair,
// creating it (with exactly two participant rows, one when sender ==
// participant) when absent. A concurrent create loses on the pair-key unique
// index and falls back to fetching the winner's row.
func (s *DMService) findOrCreateConversation(ctx context.Context, senderID, participantID string) (*domain.Conversation, error) {
	conv, err := repo.GetConversationByPair(ctx, s.DB, senderID, participantID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	conv, err = repo.CreateConversation(ctx, s.DB, senderID, participantID)
	if errors.Is(err, repo.ErrDuplicate) {
		return repo.GetConversationByPair(ctx, s.DB, senderID, participantID)
	}
	return conv, err
}

// requireSenderInConversation authorizes conversation-scoped sends.
func (s *DMService) requireSenderInConversation(ctx context.Context, conversationID, senderID string) error {
	ok, err := repo.IsParticipant(ctx, s.DB, conversationID, senderID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSenderNotInConversation
	}
	return nil
}

// insertMessage appends a message and moves the conversation's last-message
// pointer to it. Text is trimmed; an empty result is stored as-is (the
// text-or-media rule is enforced by the caller).
func (s *DMService) insertMessage(ctx context.Context, conversationID, senderID string, payload SendPayload) (*domain.Message, error) {
	text := strings.TrimSpace(payload.Text)
	msg, err := repo.CreateMessage(ctx, s.DB, conversationID, senderID, text, payload.MediaID)
	if err != nil {
		return nil, err
	}
	if err := repo.SetLastMessage(ctx, s.DB, conversationID, msg.ID, msg.CreatedAt); err != nil {
		return nil, err
	}
	return msg, nil
}

// ensureWelcomeThread opens the bot conversation with a single greeting for
// users who have no conversations yet. The zero-conversation check makes it
// run once per user; later listings see an existing thread and return early.
func (s *DMService) ensureWelcomeThread(ctx context.Context, userID string) error {
	ids, err := repo.ListConversationIDsForUser(ctx, s.DB, userID)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return nil
	}

	bot, ok := s.Directory.BotContact()
	if !ok {
		return nil
	}

	conv, err := s.findOrCreateConversation(ctx, userID, bot.ID)
	if err != nil {
		return err
	}
	greeting := s.Greeting
	if greeting == "" {
		greeting = DefaultGreeting
	}
	_, err = s.insertMessage(ctx, conv.ID, bot.ID, SendPayload{Text: greeting})
	return err
}
