// Media HTTP handlers.
//
// This file exposes POST /media, which registers an upload record: metadata
// only, no bytes. The returned media_id can be attached to a direct message.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minixhq/minix-backend/internal/sysutil"
)

// CreateMediaRequest is the JSON payload for registering an upload record.
// The filename may arrive as `filename` or `fileName`.
type CreateMediaRequest struct {
	Filename    string `json:"filename" example:"sunset.png"`
	FilenameAlt string `json:"fileName"`
}

// CreateMediaResponse is the payload of a successful upload registration,
// wrapped in the standard `data` envelope by the handler.
type CreateMediaResponse struct {
	MediaID    string    `json:"media_id"`
	MediaURL   string    `json:"media_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CreateMedia godoc
// @ID          createMedia
// @Summary     Register a media upload record
// @Description Stores media metadata and returns the generated id and URL.
// @Tags        Media
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateMediaRequest  false  "Upload metadata"
//
// @Success     201  {object} map[string]any
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /media [post]
func (h *Handlers) CreateMedia(c *gin.Context) {
	var req CreateMediaRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	filename := strings.TrimSpace(sysutil.FirstNonEmpty(req.Filename, req.FilenameAlt))

	m, err := h.mediaSvc.Create(c.Request.Context(), filename)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	data(c, http.StatusCreated, CreateMediaResponse{
		MediaID:    m.ID,
		MediaURL:   m.MediaURL,
		UploadedAt: m.CreatedAt,
	})
}
