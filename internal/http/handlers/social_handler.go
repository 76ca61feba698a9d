// Timeline HTTP handlers (posts and comments).
//
// This file exposes:
//   - GET  /posts?userId=     (timeline with nested comments)
//   - POST /posts             (create by username)
//   - GET  /comments?post_id= (a post's comments oldest first)
//   - POST /comments          (reply to a post or to another comment)
//
// Comment threading: a comment's conversation id equals the root post's id,
// inherited through the replied_to chain, so every reply in a tree groups
// under one thread.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minixhq/minix-backend/internal/services"
	"github.com/minixhq/minix-backend/internal/sysutil"
)

//
// DTOs
//

// CreatePostRequest is the JSON payload for creating a post.
type CreatePostRequest struct {
	// Username identifies the author; created on first sight.
	Username string `json:"username" binding:"required,min=1" example:"alice"`
	// Text is the post body. It must be non-empty.
	Text string `json:"text" binding:"required,min=1" example:"shipping the new build today"`
}

// CreatePostResponse wraps a newly created post.
type CreatePostResponse struct {
	Post *services.PostView `json:"post"`
}

// ListPostsResponse wraps the timeline listing.
type ListPostsResponse struct {
	Posts []services.PostView `json:"posts"`
}

// CreateCommentRequest is the JSON payload for creating a comment. Key
// aliases (postId, userId, repliedTo) are accepted alongside the snake_case
// forms.
type CreateCommentRequest struct {
	PostID       string `json:"post_id"`
	PostIDAlt    string `json:"postId"`
	UserID       string `json:"user_id"`
	UserIDAlt    string `json:"userId"`
	Username     string `json:"username"`
	Text         string `json:"text"`
	RepliedTo    string `json:"replied_to"`
	RepliedToAlt string `json:"repliedTo"`
}

// CreateCommentResponse wraps a newly created comment.
type CreateCommentResponse struct {
	Comment *services.CommentView `json:"comment"`
}

//
// Handlers
//

// ListPosts godoc
// @ID          listPosts
// @Summary     List posts
// @Description Returns posts newest first, each with its comments, optionally
// @Description filtered to a single author.
// @Tags        Posts
// @Produce     json
//
// @Param       userId  query  string  false "Filter to one author's posts"
//
// @Success     200  {object} handlers.ListPostsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	userID := strings.TrimSpace(sysutil.FirstNonEmpty(c.Query("userId"), c.Query("user_id")))
	posts, err := h.tlSvc.ListPosts(c.Request.Context(), userID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListPostsResponse{Posts: posts})
}

// CreatePost godoc
// @ID          createPost
// @Summary     Create a post
// @Description Creates a post for an existing user; unknown usernames are rejected.
// @Tags        Posts
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreatePostRequest  true  "Post payload"
//
// @Success     201  {object} handlers.CreatePostResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing username or text"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and text required")
		return
	}
	username := strings.TrimSpace(req.Username)
	text := strings.TrimSpace(req.Text)
	if username == "" || text == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and text required")
		return
	}

	post, err := h.tlSvc.CreatePost(c.Request.Context(), "", username, text)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeUserNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, CreatePostResponse{Post: post})
}

// ListComments godoc
// @ID          listComments
// @Summary     List a post's comments
// @Description Returns the post's comments oldest first.
// @Tags        Comments
// @Produce     json
//
// @Param       post_id  query  string  true "Post ID"
//
// @Success     200  {array}  services.CommentView
// @Failure     400  {object} handlers.ErrorResponse "Missing post_id"
// @Failure     404  {object} handlers.ErrorResponse "Post not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	postID := strings.TrimSpace(sysutil.FirstNonEmpty(c.Query("post_id"), c.Query("postId")))
	if postID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post_id required")
		return
	}

	comments, err := h.tlSvc.ListComments(c.Request.Context(), postID)
	if err != nil {
		switch err {
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodePostNotFound, "post not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, comments)
}

// CreateComment godoc
// @ID          createComment
// @Summary     Create a comment
// @Description Adds a comment under a post. When replied_to names a known parent comment
// @Description the new comment joins the parent's thread; otherwise the thread is the post.
// @Tags        Comments
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateCommentRequest  true  "Comment payload"
//
// @Success     201  {object} handlers.CreateCommentResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing fields"
// @Failure     404  {object} handlers.ErrorResponse "User or post not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /comments [post]
func (h *Handlers) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	postID := strings.TrimSpace(sysutil.FirstNonEmpty(req.PostID, req.PostIDAlt))
	userID := strings.TrimSpace(sysutil.FirstNonEmpty(req.UserID, req.UserIDAlt))
	username := strings.TrimSpace(req.Username)
	text := strings.TrimSpace(req.Text)
	if postID == "" || text == "" || (userID == "" && username == "") {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post_id, text, and user_id or username required")
		return
	}

	var repliedTo *string
	if v := strings.TrimSpace(sysutil.FirstNonEmpty(req.RepliedTo, req.RepliedToAlt)); v != "" {
		repliedTo = &v
	}

	comment, err := h.tlSvc.CreateComment(c.Request.Context(), postID, userID, username, text, repliedTo)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeUserNotFound, "user not found")
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodePostNotFound, "post not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, CreateCommentResponse{Comment: comment})
}
