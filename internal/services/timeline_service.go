// Package services – TimelineService
//
// Posts and comments form the public timeline. Every comment belongs to a
// thread identified by the root post's id: replying to a post starts the
// thread, replying to a comment inherits the parent's conversation id. The
// v2 tweet surface reuses the same storage, treating posts as root tweets
// and comments as replies.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/minixhq/minix-backend/internal/domain"
	"github.com/minixhq/minix-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CommentView is the public shape of a comment.
type CommentView struct {
	ID             string    `json:"id"`
	PostID         string    `json:"post_id"`
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	Text           string    `json:"text"`
	RepliedTo      *string   `json:"replied_to"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// PostView is the public shape of a post, with its author's username and the
// full comment list embedded.
type PostView struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Username  string        `json:"username"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"created_at"`
	Comments  []CommentView `json:"comments"`
}

// TweetView is the v2-surface shape of a post or comment.
type TweetView struct {
	ID             string  `json:"id"`
	Text           string  `json:"text"`
	AuthorID       string  `json:"author_id"`
	ConversationID string  `json:"conversation_id"`
	RepliedTo      *string `json:"replied_to,omitempty"`
	CreatedAt      string  `json:"created_at"`
	ReplyCount     int64   `json:"reply_count"`
}

// TimelineService owns posts, comments, and the tweet-compatible view of
// both.
type TimelineService struct {
	DB        *gorm.DB
	Directory *DirectoryService
}

// NewTimelineService constructs a TimelineService.
func NewTimelineService(db *gorm.DB, dir *DirectoryService) *TimelineService {
	return &TimelineService{DB: db, Directory: dir}
}

// ListPosts returns posts newest first, optionally filtered to one author,
// each with its comments oldest first.
func (s *TimelineService) ListPosts(ctx context.Context, userID string) ([]PostView, error) {
	tr := otel.Tracer("services/TimelineService")
	ctx, span := tr.Start(ctx, "ListPosts",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	posts, err := repo.ListPosts(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, s.postView(p))
	}
	return out, nil
}

// CreatePost stores a post authored by an existing user, resolved by id or
// username. Unknown users fail with ErrUserNotFound; accounts are only
// registered through login.
func (s *TimelineService) CreatePost(ctx context.Context, userID, username, text string) (*PostView, error) {
	tr := otel.Tracer("services/TimelineService")
	ctx, span := tr.Start(ctx, "CreatePost",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	u, err := s.Directory.ResolveUser(ctx, userID, username)
	if err != nil {
		return nil, err
	}
	p, err := repo.CreatePost(ctx, s.DB, u.ID, text)
	if err != nil {
		return nil, err
	}
	view := PostView{
		ID:        p.ID,
		UserID:    p.UserID,
		Username:  u.Username,
		Text:      p.Text,
		CreatedAt: p.CreatedAt,
		Comments:  []CommentView{},
	}
	return &view, nil
}

// ListComments returns a post's comments oldest first.
func (s *TimelineService) ListComments(ctx context.Context, postID string) ([]CommentView, error) {
	tr := otel.Tracer("services/TimelineService")
	ctx, span := tr.Start(ctx, "ListComments",
		trace.WithAttributes(attribute.String("post.id", postID)),
	)
	defer span.End()

	if _, err := repo.GetPost(ctx, s.DB, postID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	comments, err := repo.ListCommentsByPost(ctx, s.DB, postID)
	if err != nil {
		return nil, err
	}
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentView(c))
	}
	return out, nil
}

// CreateComment stores a reply under a post by an existing user. When
// repliedTo names a known parent comment the new comment joins the parent's
// thread; otherwise (including a repliedTo that matches nothing) the thread
// is the post itself.
func (s *TimelineService) CreateComment(ctx context.Context, postID, userID, username, text string, repliedTo *string) (*CommentView, error) {
	tr := otel.Tracer("services/TimelineService")
	ctx, span := tr.Start(ctx, "CreateComment",
		trace.WithAttributes(
			attribute.String("post.id", postID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	u, err := s.Directory.ResolveUser(ctx, userID, username)
	if err != nil {
		return nil, err
	}
	if _, err := repo.GetPost(ctx, s.DB, postID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	conversationID := postID
	if repliedTo != nil && *repliedTo != "" {
		// A parent that no longer exists falls back to the post's own thread;
		// the stated replied_to value is stored either way.
		parent, err := repo.GetComment(ctx, s.DB, *repliedTo)
		switch {
		case err == nil:
			conversationID = parent.ConversationID
		case !errors.Is(err, repo.ErrNotFound):
			return nil, err
		}
	} else {
		repliedTo = nil
	}

	c, err := repo.CreateComment(ctx, s.DB, postID, u.ID, text, repliedTo, conversationID)
	if err != nil {
		return nil, err
	}
	view := commentView(*c)
	view.Username = u.Username
	return &view, nil
}

// CreateTweet stores a root tweet as a post.
func (s *TimelineService) CreateTweet(ctx context.Context, userID, text string) (*TweetView, error) {
	tr := otel.Tracer("services/TimelineService")
	ctx, span := tr.Start(ctx, "CreateTweet",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	p, err := repo.CreatePost(ctx, s.DB, userID, text)
	if err != nil {
		return nil, err
	}
	return &TweetView{
		ID:             p.ID,
		Text:           p.Text,
		AuthorID:       p.UserID,
		ConversationID: p.ID,
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// CreateReply stores a reply tweet as a comment. The target may be a post or
// an existing comment; an unknown target fails with ErrReplyTargetNotFound.
func (s *TimelineService) CreateReply(ctx context.Context, userID, text, inReplyTo string) (*TweetView, error) {
	tr := otel.Tracer("services/TimelineService")
	ctx, span := tr.Start(ctx, "CreateReply",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("reply.target", inReplyTo),
		),
	)
	defer span.End()

	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Post-first lookup: a reply to a root tweet opens its thread, a reply
	// to another reply inherits that reply's thread.
	var postID, conversationID string
	var repliedTo *string
	if p, err := repo.GetPost(ctx, s.DB, inReplyTo); err == nil {
		postID = p.ID
		conversationID = p.ID
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	} else if parent, err := repo.GetComment(ctx, s.DB, inReplyTo); err == nil {
		postID = parent.PostID
		conversationID = parent.ConversationID
		id := parent.ID
		repliedTo = &id
	} else if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrReplyTargetNotFound
	} else {
		return nil, err
	}

	c, err := repo.CreateComment(ctx, s.DB, postID, userID, text, repliedTo, conversationID)
	if err != nil {
		return nil, err
	}
	return &TweetView{
		ID:             c.ID,
		Text:           c.Text,
		AuthorID:       c.UserID,
		ConversationID: c.ConversationID,
		RepliedTo:      c.RepliedTo,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// ThreadComments returns a thread's replies newest first as tweet views.
func (s *TimelineService) ThreadComments(ctx context.Context, conversationID string) ([]TweetView, error) {
	tr := otel.Tracer("services/TimelineService")
	ctx, span := tr.Start(ctx, "ThreadComments",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)),
	)
	defer span.End()

	comments, err := repo.ListCommentsByThread(ctx, s.DB, conversationID)
	if err != nil {
		return nil, err
	}
	out := make([]TweetView, 0, len(comments))
	for _, c := range comments {
		out = append(out, TweetView{
			ID:             c.ID,
			Text:           c.Text,
			AuthorID:       c.UserID,
			ConversationID: c.ConversationID,
			RepliedTo:      c.RepliedTo,
			CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// UserTweets returns a user's root tweets newest first, each carrying its
// reply count.
func (s *TimelineService) UserTweets(ctx context.Context, userID string) ([]TweetView, error) {
	tr := otel.Tracer("services/TimelineService")
	ctx, span := tr.Start(ctx, "UserTweets",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	posts, err := repo.ListPostsByUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	counts, err := repo.CountCommentsByPost(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	out := make([]TweetView, 0, len(posts))
	for _, p := range posts {
		out = append(out, TweetView{
			ID:             p.ID,
			Text:           p.Text,
			AuthorID:       p.UserID,
			ConversationID: p.ID,
			CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
			ReplyCount:     counts[p.ID],
		})
	}
	return out, nil
}

func (s *TimelineService) postView(p domain.Post) PostView {
	comments := make([]CommentView, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, commentView(c))
	}
	return PostView{
		ID:        p.ID,
		UserID:    p.UserID,
		Username:  p.User.Username,
		Text:      p.Text,
		CreatedAt: p.CreatedAt,
		Comments:  comments,
	}
}

func commentView(c domain.Comment) CommentView {
	return CommentView{
		ID:             c.ID,
		PostID:         c.PostID,
		UserID:         c.UserID,
		Username:       c.User.Username,
		Text:           c.Text,
		RepliedTo:      c.RepliedTo,
		ConversationID: c.ConversationID,
		CreatedAt:      c.CreatedAt,
	}
}
