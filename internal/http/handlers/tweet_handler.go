// Twitter-v2-shaped HTTP handlers.
//
// This file exposes the /2 surface, which mirrors a small slice of the
// Twitter v2 API on top of the posts/comments store:
//   - POST /2/tweets                        (tweet or reply)
//   - GET  /2/tweets/search/recent          (comments of one thread, as tweets)
//   - GET  /2/users/{id}/tweets             (a user's root tweets)
//
// Errors follow the v2 "problem" format: a JSON body with an `errors` array
// of {title, detail, type} objects instead of the standard error envelope.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minixhq/minix-backend/internal/services"
	"github.com/minixhq/minix-backend/internal/sysutil"
)

// problemType is the `type` URI attached to every v2 problem payload.
const problemType = "https://api.twitter.com/2/problems"

// replySettingCanon maps accepted reply_settings spellings (compared
// lowercase) to their canonical form. Anything else normalizes to "everyone".
var replySettingCanon = map[string]string{
	"everyone":        "everyone",
	"mentionedusers":  "mentionedUsers",
	"mentioned_users": "mentionedUsers",
	"following":       "following",
}

//
// DTOs
//

// TweetRequest is the JSON payload of POST /2/tweets.
type TweetRequest struct {
	Text          string `json:"text"`
	UserID        string `json:"user_id"`
	AuthorID      string `json:"author_id"`
	Username      string `json:"username"`
	ReplySettings string `json:"reply_settings"`
	Reply         *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply"`
	Media *struct {
		MediaIDs []string `json:"media_ids"`
	} `json:"media"`
}

// TweetAttachments carries media keys echoed back on creation.
type TweetAttachments struct {
	MediaKeys []string `json:"media_keys"`
}

// ReferencedTweet links a reply to its parent.
type ReferencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// TweetPublicMetrics carries the zeroed engagement counters echoed on
// creation.
type TweetPublicMetrics struct {
	RetweetCount    int `json:"retweet_count"`
	ReplyCount      int `json:"reply_count"`
	LikeCount       int `json:"like_count"`
	QuoteCount      int `json:"quote_count"`
	BookmarkCount   int `json:"bookmark_count"`
	ImpressionCount int `json:"impression_count"`
}

// TweetData is the `data` object of a tweet-creation response.
type TweetData struct {
	EditHistoryTweetIDs []string           `json:"edit_history_tweet_ids"`
	ID                  string             `json:"id"`
	Text                string             `json:"text"`
	AuthorID            string             `json:"author_id"`
	ConversationID      string             `json:"conversation_id"`
	ReplySettings       string             `json:"reply_settings"`
	CreatedAt           string             `json:"created_at"`
	PublicMetrics       TweetPublicMetrics `json:"public_metrics"`
	Attachments         *TweetAttachments  `json:"attachments,omitempty"`
	ReferencedTweets    []ReferencedTweet  `json:"referenced_tweets,omitempty"`
}

// TweetUser is the `includes.users` entry of search responses.
type TweetUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// TweetMeta is the `meta` object of listing responses.
type TweetMeta struct {
	ResultCount int    `json:"result_count"`
	NewestID    string `json:"newest_id,omitempty"`
	OldestID    string `json:"oldest_id,omitempty"`
}

//
// Helpers
//

// problem writes a v2 problem payload and aborts the request.
func problem(c *gin.Context, status int, title, detail string) {
	c.AbortWithStatusJSON(status, gin.H{
		"data": nil,
		"errors": []gin.H{{
			"title":  title,
			"detail": detail,
			"status": status,
			"type":   problemType,
		}},
	})
}

// resolveTweetAuthor determines the acting user id for a v2 request.
// Precedence: body user_id, body author_id, X-User-ID header, bearer token,
// then username lookup (body username or X-Username header), which registers
// the user on first sight.
func (h *Handlers) resolveTweetAuthor(c *gin.Context, req TweetRequest) (string, error) {
	if id := strings.TrimSpace(sysutil.FirstNonEmpty(req.UserID, req.AuthorID, c.GetHeader("X-User-ID"))); id != "" {
		return id, nil
	}
	if auth := strings.TrimSpace(c.GetHeader("Authorization")); strings.HasPrefix(auth, "Bearer ") {
		if tok := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); tok != "" {
			return tok, nil
		}
	}
	if username := strings.TrimSpace(sysutil.FirstNonEmpty(req.Username, c.GetHeader("X-Username"))); username != "" {
		u, err := h.dirSvc.FindOrCreateByUsername(c.Request.Context(), username)
		if err != nil {
			return "", err
		}
		return u.ID, nil
	}
	return "", nil
}

// normalizeReplySettings canonicalizes the value case-insensitively, mapping
// unknown values to "everyone".
func normalizeReplySettings(v string) string {
	if canon, ok := replySettingCanon[strings.ToLower(strings.TrimSpace(v))]; ok {
		return canon
	}
	return "everyone"
}

//
// Handlers
//

// PostTweet godoc
// @ID          postTweet
// @Summary     Create a tweet or reply
// @Description Creates a root tweet, or a reply when reply.in_reply_to_tweet_id is set.
// @Description The author resolves from body ids, headers, bearer token, or username.
// @Tags        Tweets
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.TweetRequest  true  "Tweet payload"
//
// @Success     201  {object} map[string]any
// @Failure     400  {object} map[string]any "Problem payload"
// @Failure     404  {object} map[string]any "Problem payload"
// @Router      /2/tweets [post]
func (h *Handlers) PostTweet(c *gin.Context) {
	ctx := c.Request.Context()

	var req TweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problem(c, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		problem(c, http.StatusBadRequest, "Invalid Request", "text is required")
		return
	}

	authorID, err := h.resolveTweetAuthor(c, req)
	if err != nil {
		problem(c, http.StatusInternalServerError, "Internal Error", err.Error())
		return
	}
	if authorID == "" {
		problem(c, http.StatusBadRequest, "Invalid Request", "no user identity supplied")
		return
	}

	var replyTarget string
	if req.Reply != nil {
		replyTarget = strings.TrimSpace(req.Reply.InReplyToTweetID)
	}

	var tweet *services.TweetView
	if replyTarget != "" {
		tweet, err = h.tlSvc.CreateReply(ctx, authorID, text, replyTarget)
	} else {
		tweet, err = h.tlSvc.CreateTweet(ctx, authorID, text)
	}
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			problem(c, http.StatusNotFound, "Resource Not Found", "user not found")
		case services.ErrReplyTargetNotFound:
			problem(c, http.StatusNotFound, "Resource Not Found", "tweet to reply to was not found")
		default:
			problem(c, http.StatusInternalServerError, "Internal Error", err.Error())
		}
		return
	}

	out := TweetData{
		EditHistoryTweetIDs: []string{tweet.ID},
		ID:                  tweet.ID,
		Text:                tweet.Text,
		AuthorID:            tweet.AuthorID,
		ConversationID:      tweet.ConversationID,
		ReplySettings:       normalizeReplySettings(req.ReplySettings),
		CreatedAt:           tweet.CreatedAt,
	}
	if req.Media != nil {
		keys := make([]string, 0, len(req.Media.MediaIDs))
		for _, id := range req.Media.MediaIDs {
			if v := strings.TrimSpace(id); v != "" {
				keys = append(keys, v)
			}
		}
		if len(keys) > 0 {
			out.Attachments = &TweetAttachments{MediaKeys: keys}
		}
	}
	// Every reply references its request target, even a root post (where the
	// stored comment row has no replied_to parent).
	if replyTarget != "" {
		out.ReferencedTweets = []ReferencedTweet{{Type: "replied_to", ID: replyTarget}}
	}

	ok(c, http.StatusCreated, gin.H{"data": out, "errors": []gin.H{}})
}

// SearchRecentTweets godoc
// @ID          searchRecentTweets
// @Summary     Search a conversation's replies
// @Description Returns the replies of one thread, newest first, shaped as tweets.
// @Description Only `conversation_id:<id>` queries are supported.
// @Tags        Tweets
// @Produce     json
//
// @Param       query  query  string  true "Search query, e.g. conversation_id:abc123"
//
// @Success     200  {object} map[string]any
// @Failure     400  {object} map[string]any "Problem payload"
// @Router      /2/tweets/search/recent [get]
func (h *Handlers) SearchRecentTweets(c *gin.Context) {
	ctx := c.Request.Context()

	query := strings.TrimSpace(c.Query("query"))
	conversationID := strings.TrimSpace(strings.TrimPrefix(query, "conversation_id:"))
	if query == "" || conversationID == "" || conversationID == query {
		problem(c, http.StatusBadRequest, "Invalid Request", "query must be of the form conversation_id:<id>")
		return
	}

	tweets, err := h.tlSvc.ThreadComments(ctx, conversationID)
	if err != nil {
		problem(c, http.StatusInternalServerError, "Internal Error", err.Error())
		return
	}

	authorIDs := make([]string, 0, len(tweets))
	for _, t := range tweets {
		authorIDs = append(authorIDs, t.AuthorID)
	}
	profiles, err := h.dirSvc.ProfilesByID(ctx, authorIDs)
	if err != nil {
		problem(c, http.StatusInternalServerError, "Internal Error", err.Error())
		return
	}
	users := make([]TweetUser, 0, len(profiles))
	seen := make(map[string]bool, len(profiles))
	for _, t := range tweets {
		if seen[t.AuthorID] {
			continue
		}
		seen[t.AuthorID] = true
		if p, okP := profiles[t.AuthorID]; okP {
			users = append(users, TweetUser{ID: p.ID, Name: p.DisplayName, Username: p.Username})
		}
	}

	meta := TweetMeta{ResultCount: len(tweets)}
	if len(tweets) > 0 {
		meta.NewestID = tweets[0].ID
		meta.OldestID = tweets[len(tweets)-1].ID
	}
	ok(c, http.StatusOK, gin.H{
		"data":     tweets,
		"includes": gin.H{"users": users},
		"meta":     meta,
	})
}

// GetUserTweets godoc
// @ID          getUserTweets
// @Summary     List a user's tweets
// @Description Returns the user's root tweets newest first, with reply counts.
// @Tags        Tweets
// @Produce     json
//
// @Param       id  path  string  true "User ID"
//
// @Success     200  {object} map[string]any
// @Failure     404  {object} map[string]any "Problem payload"
// @Router      /2/users/{id}/tweets [get]
func (h *Handlers) GetUserTweets(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("id")

	tweets, err := h.tlSvc.UserTweets(ctx, userID)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			problem(c, http.StatusNotFound, "Resource Not Found", "user not found")
		default:
			problem(c, http.StatusInternalServerError, "Internal Error", err.Error())
		}
		return
	}

	meta := TweetMeta{ResultCount: len(tweets)}
	if len(tweets) > 0 {
		meta.NewestID = tweets[0].ID
		meta.OldestID = tweets[len(tweets)-1].ID
	}
	ok(c, http.StatusOK, gin.H{"data": tweets, "meta": meta})
}
