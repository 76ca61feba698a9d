// Directory and user HTTP handlers.
//
// This file exposes:
//   - GET  /directory   (seeded contact list plus registered users, sorted)
//   - POST /login       (find-or-create by username)
//   - GET  /users       (all users, newest first)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minixhq/minix-backend/internal/domain"
)

// LoginRequest is the JSON payload for logging in (find-or-create by username).
type LoginRequest struct {
	// Username identifies the account; created on first login.
	Username string `json:"username" binding:"required,min=1" example:"alice"`
}

// LoginResponse wraps the resolved user.
type LoginResponse struct {
	User *domain.User `json:"user"`
}

// ListUsersResponse wraps all registered users.
type ListUsersResponse struct {
	Users []domain.User `json:"users"`
}

// GetDirectory godoc
// @ID          getDirectory
// @Summary     List the user directory
// @Description Returns the seeded mock contacts and all registered users as public
// @Description profiles, stock contacts first, then sorted by display name.
// @Tags        Directory
// @Produce     json
//
// @Param       exclude_id  query  string  false "User ID to omit from the listing"
//
// @Success     200  {object} map[string]any
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /directory [get]
func (h *Handlers) GetDirectory(c *gin.Context) {
	excludeID := strings.TrimSpace(c.Query("exclude_id"))
	profiles, err := h.dirSvc.List(c.Request.Context(), excludeID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	data(c, http.StatusOK, profiles)
}

// Login godoc
// @ID          login
// @Summary     Log in by username
// @Description Resolves the user by username, creating it on first login.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object} handlers.LoginResponse
// @Failure     400  {object} handlers.ErrorResponse "Username required"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username required")
		return
	}

	u, err := h.dirSvc.FindOrCreateByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, LoginResponse{User: u})
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List all users
// @Description Returns every registered user, newest first.
// @Tags        Users
// @Produce     json
//
// @Success     200  {object} handlers.ListUsersResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.dirSvc.Users(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListUsersResponse{Users: users})
}
