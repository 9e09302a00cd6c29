package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/apperr"
	"github.com/lalith-99/reelroom/internal/middleware"
	"github.com/lalith-99/reelroom/internal/service"
	"go.uber.org/zap"
)

type VideoHandler struct {
	videos         *service.Videos
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewVideoHandler(videos *service.Videos, maxUploadBytes int64, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{videos: videos, maxUploadBytes: maxUploadBytes, logger: logger}
}

type privacyRequest struct {
	IsPublic *bool `json:"isPublic"`
}

type commentRequest struct {
	Name      string  `json:"name" binding:"required"`
	Text      string  `json:"text" binding:"required"`
	Timestamp float64 `json:"timestamp"`
}

// List handles GET /video?workspaceId=
func (h *VideoHandler) List(c *gin.Context) {
	raw := c.Query("workspaceId")
	if raw == "" {
		_ = c.Error(apperr.InvalidInput("workspaceId is required"))
		return
	}
	workspaceID, err := uuid.Parse(raw)
	if err != nil {
		_ = c.Error(apperr.InvalidInput("invalid workspace id"))
		return
	}

	videos, err := h.videos.List(c.Request.Context(), workspaceID, middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// Get handles GET /video/:id
func (h *VideoHandler) Get(c *gin.Context) {
	videoID, ok := paramID(c, "id", "video")
	if !ok {
		return
	}
	video, err := h.videos.Get(c.Request.Context(), videoID, middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// Share handles GET /video/share/:id. No authentication.
func (h *VideoHandler) Share(c *gin.Context) {
	videoID, ok := paramID(c, "id", "video")
	if !ok {
		return
	}
	video, err := h.videos.GetShared(c.Request.Context(), videoID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, video.Shared())
}

// SetPrivacy handles PUT /video/:id/privacy
func (h *VideoHandler) SetPrivacy(c *gin.Context) {
	videoID, ok := paramID(c, "id", "video")
	if !ok {
		return
	}
	var req privacyRequest
	if !bindJSON(c, &req) {
		return
	}
	video, err := h.videos.SetPrivacy(c.Request.Context(), videoID, middleware.GetUserID(c), req.IsPublic)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// AddComment handles POST /video/:id/comments. Authentication is optional.
func (h *VideoHandler) AddComment(c *gin.Context) {
	videoID, ok := paramID(c, "id", "video")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comments, err := h.videos.AddComment(c.Request.Context(), videoID, middleware.OptionalUserID(c), service.CommentInput{
		Name:      req.Name,
		Text:      req.Text,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// Upload handles POST /video/upload as multipart/form-data with a
// "workspaceId" field and the file under "video". An optional "title"
// field overrides the file name.
func (h *VideoHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fh, err := c.FormFile("video")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			_ = c.Error(apperr.InvalidInput("video file is too large"))
			return
		}
		_ = c.Error(apperr.InvalidInput("no video file uploaded"))
		return
	}

	workspaceID, err := uuid.Parse(strings.TrimSpace(c.PostForm("workspaceId")))
	if err != nil {
		_ = c.Error(apperr.InvalidInput("workspaceId is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(apperr.InvalidInput("could not read uploaded file").Wrap(err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		_ = c.Error(apperr.InvalidInput("could not read uploaded file").Wrap(err))
		return
	}

	video, err := h.videos.Upload(c.Request.Context(), service.UploadInput{
		WorkspaceID: workspaceID,
		UploaderID:  middleware.GetUserID(c),
		Title:       c.PostForm("title"),
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	middleware.RecordUpload(video.StorageBackend, video.Size)
	c.JSON(http.StatusOK, gin.H{"message": "Video uploaded successfully", "video": video})
}

// Delete handles DELETE /video/delete/:id
func (h *VideoHandler) Delete(c *gin.Context) {
	videoID, ok := paramID(c, "id", "video")
	if !ok {
		return
	}
	if err := h.videos.Delete(c.Request.Context(), videoID, middleware.GetUserID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Video deleted successfully"})
}
