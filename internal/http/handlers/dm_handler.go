// Direct-message HTTP handlers.
//
// This file exposes the DM endpoints:
//   - GET  /conversations                  (list for a user, ETag support)
//   - GET  /conversations/{id}/messages    (list a thread oldest-first, ETag support)
//   - POST /conversations/{id}/messages    (send; conversation-first routing)
//
// Handlers are transport-thin: they validate and normalize input, call the
// application services, and translate results into HTTP responses (including
// conditional responses and idempotent replays).
//
// Send routing: the {id} path segment is first tried as a conversation id;
// when no such conversation exists it is retried as a participant (user) id,
// creating the shared conversation on demand.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (sender, path id, key), the handler returns the recorded
// message and sets `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/domain"
	"github.com/minixhq/minix-backend/internal/repo"
	"github.com/minixhq/minix-backend/internal/services"
	"github.com/minixhq/minix-backend/internal/sysutil"
)

//
// Service contracts (context-aware)
//

// DMService defines the conversation and message operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DMService interface {
	// ListConversations returns a user's conversations most recently active first.
	ListConversations(ctx context.Context, userID, username string) ([]services.ConversationSummary, error)
	// ListMessages returns a conversation's messages oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]services.MessageView, error)
	// SendToConversation appends a message to an existing conversation.
	SendToConversation(ctx context.Context, conversationID, senderID string, payload services.SendPayload) (*services.SendResult, error)
	// SendToParticipant delivers to a user, finding or creating the shared conversation.
	SendToParticipant(ctx context.Context, senderID, participantID string, payload services.SendPayload) (*services.SendResult, error)
}

// DirectoryService defines user directory operations consumed by HTTP handlers.
type DirectoryService interface {
	// List returns the directory profiles, optionally excluding one user id.
	List(ctx context.Context, excludeID string) ([]services.Profile, error)
	// FindOrCreateByUsername resolves a user by username, creating it on first sight.
	FindOrCreateByUsername(ctx context.Context, username string) (*domain.User, error)
	// Users returns all users newest first.
	Users(ctx context.Context) ([]domain.User, error)
	// ProfilesByID resolves public profiles for a set of user ids.
	ProfilesByID(ctx context.Context, ids []string) (map[string]services.Profile, error)
}

// MediaService defines media upload-record operations consumed by HTTP handlers.
type MediaService interface {
	// Create registers media metadata and returns the stored row.
	Create(ctx context.Context, filename string) (*domain.Media, error)
	// Get returns a media row by id.
	Get(ctx context.Context, id string) (*domain.Media, error)
}

// TimelineService defines post, comment, and tweet operations consumed by
// HTTP handlers.
type TimelineService interface {
	ListPosts(ctx context.Context, userID string) ([]services.PostView, error)
	CreatePost(ctx context.Context, userID, username, text string) (*services.PostView, error)
	ListComments(ctx context.Context, postID string) ([]services.CommentView, error)
	CreateComment(ctx context.Context, postID, userID, username, text string, repliedTo *string) (*services.CommentView, error)
	CreateTweet(ctx context.Context, userID, text string) (*services.TweetView, error)
	CreateReply(ctx context.Context, userID, text, inReplyTo string) (*services.TweetView, error)
	ThreadComments(ctx context.Context, conversationID string) ([]services.TweetView, error)
	UserTweets(ctx context.Context, userID string) ([]services.TweetView, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for conversations, the directory, media,
// and the timeline. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	dmSvc    DMService
	dirSvc   DirectoryService
	mediaSvc MediaService
	tlSvc    TimelineService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(dmSvc DMService, dirSvc DirectoryService, mediaSvc MediaService, tlSvc TimelineService) *Handlers {
	return &Handlers{dmSvc: dmSvc, dirSvc: dirSvc, mediaSvc: mediaSvc, tlSvc: tlSvc}
}

//
// DTOs
//

// SendMessageRequest is the JSON payload for sending a direct message.
//
// The sender may arrive as `sender_id` or `senderId`. Text and media may be
// given at the top level or nested under `message`; nested fields win.
type SendMessageRequest struct {
	SenderID    string `json:"sender_id"`
	SenderIDAlt string `json:"senderId"`
	Text        string `json:"text"`
	MediaID     string `json:"media_id"`
	Message     *struct {
		Text    string `json:"text"`
		MediaID string `json:"media_id"`
		Media   *struct {
			MediaID string `json:"media_id"`
		} `json:"media"`
	} `json:"message"`
}

// SentMedia is the media reference embedded in a send response.
type SentMedia struct {
	MediaID  string `json:"media_id"`
	MediaURL string `json:"media_url"`
}

// SentMessage is the message object embedded in a send response.
type SentMessage struct {
	ID       string     `json:"id"`
	Text     string     `json:"text"`
	Media    *SentMedia `json:"media,omitempty"`
	SenderID string     `json:"sender_id"`
}

// SendMessageResponse is the payload of a successful send, wrapped in the
// standard `data` envelope by the handler.
type SendMessageResponse struct {
	DMEventID      string      `json:"dm_event_id"`
	ConversationID string      `json:"conversation_id"`
	Message        SentMessage `json:"message"`
}

//
// Helpers
//

// parseSendPayload normalizes the accepted request shapes into a sender id
// and a send payload. Precedence: message.text over text, and
// message.media_id over message.media.media_id over media_id.
func parseSendPayload(req SendMessageRequest) (senderID string, payload services.SendPayload) {
	senderID = strings.TrimSpace(sysutil.FirstNonEmpty(req.SenderID, req.SenderIDAlt))

	text := req.Text
	mediaID := strings.TrimSpace(req.MediaID)
	if m := req.Message; m != nil {
		if m.Text != "" {
			text = m.Text
		}
		switch {
		case strings.TrimSpace(m.MediaID) != "":
			mediaID = strings.TrimSpace(m.MediaID)
		case m.Media != nil && strings.TrimSpace(m.Media.MediaID) != "":
			mediaID = strings.TrimSpace(m.Media.MediaID)
		}
	}

	payload.Text = strings.TrimSpace(text)
	if mediaID != "" {
		payload.MediaID = &mediaID
	}
	return senderID, payload
}

// dmDB exposes the concrete service's DB handle for best-effort extras
// (ETags, idempotency records) without widening the service contract.
func dmDB(svc DMService) *gorm.DB {
	if s, ok := svc.(*services.DMService); ok {
		return s.DB
	}
	return nil
}

//
// Handlers
//

// ListConversations godoc
// @ID          listConversations
// @Summary     List a user's conversations
// @Description Returns the user's conversations most recently active first, seeding the
// @Description directory and the welcome thread on first contact. Supports weak ETag via
// @Description If-None-Match and may return 304.
// @Tags        Conversations
// @Produce     json
//
// @Param       user_id        query   string  true  "User ID"                     example(user123)
// @Param       username       query   string  false "Username, creates the user when unknown"  example(alice)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {object} map[string]any
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	userID := strings.TrimSpace(c.Query("user_id"))
	username := strings.TrimSpace(c.Query("username"))
	if userID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id required")
		return
	}

	// ETag pre-check (best effort), only once the user row exists: a missing
	// user must reach the service for the 404 (or first-contact creation by
	// username), never short-circuit to 304.
	if db := dmDB(h.dmSvc); db != nil {
		if _, err := repo.GetUser(ctx, db, userID); err == nil {
			count, maxTS, err := repo.ConversationsStats(ctx, db, userID)
			if err == nil {
				var ts int64
				if maxTS != nil {
					ts = maxTS.Unix()
				}
				etag := fmt.Sprintf(`W/"conversations:%s:%d:%d"`, userID, count, ts)
				c.Header("ETag", etag)
				if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
					c.Status(http.StatusNotModified)
					return
				}
			}
		}
	}

	items, err := h.dmSvc.ListConversations(ctx, userID, username)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeUserNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	data(c, http.StatusOK, items)
}

// ListConversationMessages godoc
// @ID          listConversationMessages
// @Summary     List messages in a conversation
// @Description Returns all messages of the conversation oldest first, with sender
// @Description profiles and media resolved. Supports weak ETag via If-None-Match.
// @Tags        Conversations
// @Produce     json
//
// @Param       id             path    string  true  "Conversation ID (UUID)"      format(uuid)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {object} map[string]any
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id}/messages [get]
func (h *Handlers) ListConversationMessages(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := c.Param("id")

	// ETag pre-check (best effort), only for conversations that exist: a
	// missing thread must 404, never short-circuit to 304.
	if db := dmDB(h.dmSvc); db != nil {
		if _, err := repo.GetConversation(ctx, db, conversationID); err == nil {
			count, maxTS, err := repo.MessagesStats(ctx, db, conversationID)
			if err == nil {
				var ts int64
				if maxTS != nil {
					ts = maxTS.Unix()
				}
				etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, conversationID, count, ts)
				c.Header("ETag", etag)
				if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
					c.Status(http.StatusNotModified)
					return
				}
			}
		}
	}

	items, err := h.dmSvc.ListMessages(ctx, conversationID)
	if err != nil {
		switch err {
		case services.ErrConversationNotFound:
			fail(c, http.StatusNotFound, ErrCodeConversationNotFound, "conversation not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	data(c, http.StatusOK, items)
}

// SendConversationMessage godoc
// @ID          sendConversationMessage
// @Summary     Send a direct message
// @Description Sends a message addressed by conversation id, falling back to treating
// @Description the path id as a participant (user) id and creating the shared
// @Description conversation on demand. Supports idempotent retries via Idempotency-Key.
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       id               path    string  true  "Conversation or participant ID"
// @Param       body             body    handlers.SendMessageRequest  true  "Message payload"
//
// @Success     201  {object} map[string]any "Created message envelope"
// @Failure     400  {object} handlers.ErrorResponse "Missing sender or empty message"
// @Failure     403  {object} handlers.ErrorResponse "Sender not in conversation"
// @Failure     404  {object} handlers.ErrorResponse "Participant not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id}/messages [post]
func (h *Handlers) SendConversationMessage(c *gin.Context) {
	ctx := c.Request.Context()
	targetID := c.Param("id")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	senderID, payload := parseSendPayload(req)
	if senderID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "sender_id required")
		return
	}
	if payload.Text == "" && payload.MediaID == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text or media_id required")
		return
	}

	// Idempotency (replay path) reads a key the middleware already validated.
	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if idemKey != "" {
		if db := dmDB(h.dmSvc); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, senderID, targetID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetMessage(ctx, db, rec.MessageID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					h.writeSentMessage(c, rec.Status, prev.ID, prev)
					return
				}
			}
		}
	}

	// Conversation-first routing with participant fallback.
	res, err := h.dmSvc.SendToConversation(ctx, targetID, senderID, payload)
	if err == services.ErrConversationNotFound {
		res, err = h.dmSvc.SendToParticipant(ctx, senderID, targetID, payload)
	}
	if err != nil {
		switch err {
		case services.ErrSenderNotInConversation:
			fail(c, http.StatusForbidden, ErrCodeSenderNotInConversation, "sender is not part of this conversation")
		case services.ErrParticipantNotFound:
			fail(c, http.StatusNotFound, ErrCodeParticipantNotFound, "participant not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSendFailed, err.Error())
		}
		return
	}

	// Idempotency (store path), best effort. The event id is the message id,
	// so retries replay a byte-stable envelope.
	if idemKey != "" {
		if db := dmDB(h.dmSvc); db != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, db, senderID, targetID, idemKey, res.Message.ID, http.StatusCreated, ttl)
		}
	}

	h.writeSentMessage(c, http.StatusCreated, res.Message.ID, res.Message)
}

// writeSentMessage shapes a persisted message into the send envelope,
// resolving an attached media row when one is referenced.
func (h *Handlers) writeSentMessage(c *gin.Context, status int, eventID string, msg *domain.Message) {
	out := SentMessage{
		ID:       msg.ID,
		Text:     msg.Text,
		SenderID: msg.SenderID,
	}
	if msg.MediaID != nil && *msg.MediaID != "" {
		if m, err := h.mediaSvc.Get(c.Request.Context(), *msg.MediaID); err == nil {
			out.Media = &SentMedia{MediaID: m.ID, MediaURL: m.MediaURL}
		}
	}
	data(c, status, SendMessageResponse{
		DMEventID:      eventID,
		ConversationID: msg.ConversationID,
		Message:        out,
	})
}
