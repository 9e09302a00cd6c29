package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/apperr"
	"github.com/lalith-99/reelroom/internal/blob"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/policy"
	"github.com/lalith-99/reelroom/internal/repository"
	"go.uber.org/zap"
)

// CommentPublisher fans a new comment out to live viewers.
type CommentPublisher interface {
	PublishComment(ctx context.Context, videoID uuid.UUID, comment models.Comment)
}

type noopPublisher struct{}

func (noopPublisher) PublishComment(context.Context, uuid.UUID, models.Comment) {}

// Videos owns video metadata, the blob behind each video, and comments.
type Videos struct {
	videos     repository.VideoRepository
	workspaces repository.WorkspaceRepository
	blobs      blob.Store
	events     CommentPublisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewVideos(videos repository.VideoRepository, workspaces repository.WorkspaceRepository, blobs blob.Store, events CommentPublisher, logger *zap.Logger) *Videos {
	if events == nil {
		events = noopPublisher{}
	}
	return &Videos{
		videos:     videos,
		workspaces: workspaces,
		blobs:      blobs,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// UploadInput is one multipart upload. Title defaults to FileName.
type UploadInput struct {
	WorkspaceID uuid.UUID
	UploaderID  uuid.UUID
	Title       string
	FileName    string
	ContentType string
	Data        []byte
}

// CommentInput is a new comment as submitted by a viewer.
type CommentInput struct {
	Name      string
	Text      string
	Timestamp float64
}

// List returns every video in the workspace, newest first.
func (s *Videos) List(ctx context.Context, workspaceID, requesterID uuid.UUID) ([]models.Video, error) {
	ws, err := s.loadWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessWorkspace(requesterID, ws) {
		return nil, apperr.Forbidden("you do not have access to this workspace")
	}

	videos, err := s.videos.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, apperr.Internal("list videos", err)
	}
	return videos, nil
}

// Get returns a video to a member of its workspace, public or not.
func (s *Videos) Get(ctx context.Context, videoID, requesterID uuid.UUID) (*models.Video, error) {
	video, ws, err := s.loadWithWorkspace(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessWorkspace(requesterID, ws) {
		return nil, apperr.Forbidden("you do not have access to this video")
	}
	return video, nil
}

// GetShared serves the public share link. Authentication is irrelevant: a
// private video is refused for every caller, including its uploader.
func (s *Videos) GetShared(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	video, err := s.loadVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsPublic {
		return nil, apperr.VideoPrivate()
	}
	return video, nil
}

// Upload stores the bytes first and the metadata second. If the metadata
// write fails the blob is removed again, so a failed upload leaves nothing
// behind.
func (s *Videos) Upload(ctx context.Context, in UploadInput) (*models.Video, error) {
	if in.WorkspaceID == uuid.Nil {
		return nil, apperr.InvalidInput("workspaceId is required")
	}
	if len(in.Data) == 0 {
		return nil, apperr.InvalidInput("a non-empty video file is required")
	}

	ws, err := s.loadWorkspace(ctx, in.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessWorkspace(in.UploaderID, ws) {
		return nil, apperr.Forbidden("you do not have access to this workspace")
	}

	now := s.now().UTC()
	fileName := SanitizeFileName(in.FileName)
	key := fmt.Sprintf("%s/%d-%s", ws.ID, now.UnixMilli(), fileName)
	contentType := DetectContentType(in.ContentType, in.Data)

	url, err := s.blobs.Put(ctx, key, in.Data, contentType)
	if err != nil {
		return nil, apperr.Storage("failed to store video", err)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSpace(in.FileName)
	}
	if title == "" {
		title = fileName
	}

	video := &models.Video{
		ID:             uuid.New(),
		Title:          title,
		URL:            url,
		StorageKey:     key,
		StorageBackend: s.blobs.Name(),
		ContentType:    contentType,
		Size:           int64(len(in.Data)),
		WorkspaceID:    ws.ID,
		UploaderID:     in.UploaderID,
		IsPublic:       false,
		Comments:       []models.Comment{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Error("failed to remove blob after metadata write failed",
				zap.String("storage_key", key),
				zap.Error(delErr),
			)
		}
		return nil, apperr.Internal("save video", err)
	}

	if err := s.workspaces.AddVideo(ctx, ws.ID, video.ID); err != nil {
		s.logger.Warn("failed to record video on workspace",
			zap.String("workspace_id", ws.ID.String()),
			zap.String("video_id", video.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("video uploaded",
		zap.String("video_id", video.ID.String()),
		zap.String("workspace_id", ws.ID.String()),
		zap.String("backend", video.StorageBackend),
		zap.Int64("size", video.Size),
	)
	return video, nil
}

// SetPrivacy flips the share flag. isPublic is a pointer so a missing field
// can be told apart from false.
func (s *Videos) SetPrivacy(ctx context.Context, videoID, requesterID uuid.UUID, isPublic *bool) (*models.Video, error) {
	if isPublic == nil {
		return nil, apperr.InvalidInput("isPublic must be a boolean")
	}

	_, ws, err := s.loadWithWorkspace(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !policy.CanChangeVisibility(requesterID, ws) {
		return nil, apperr.Forbidden("you do not have access to this video")
	}

	video, err := s.videos.SetPublic(ctx, videoID, *isPublic)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("video")
		}
		return nil, apperr.Internal("update video", err)
	}
	return video, nil
}

// Delete removes the blob before the metadata. If the blob cannot be
// removed the metadata stays, so the video can still be found and the
// delete retried.
func (s *Videos) Delete(ctx context.Context, videoID, requesterID uuid.UUID) error {
	video, ws, err := s.loadWithWorkspace(ctx, videoID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteVideo(requesterID, ws) {
		return apperr.Forbidden("only the workspace creator can delete videos")
	}

	if err := s.blobs.Delete(ctx, video.StorageKey); err != nil {
		return apperr.Storage("failed to delete video file", err)
	}

	if err := s.videos.Delete(ctx, videoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("video")
		}
		return apperr.Internal("delete video", err)
	}

	if err := s.workspaces.RemoveVideo(ctx, ws.ID, videoID); err != nil {
		s.logger.Warn("failed to remove video from workspace",
			zap.String("workspace_id", ws.ID.String()),
			zap.String("video_id", videoID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("video deleted",
		zap.String("video_id", videoID.String()),
		zap.String("user_id", requesterID.String()),
	)
	return nil
}

// AddComment appends a comment and returns the whole list. Anyone may
// comment on a public video; a private one needs an authenticated member.
// requesterID is nil for anonymous callers.
func (s *Videos) AddComment(ctx context.Context, videoID uuid.UUID, requesterID *uuid.UUID, in CommentInput) ([]models.Comment, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Text = strings.TrimSpace(in.Text)
	if in.Name == "" || in.Text == "" {
		return nil, apperr.InvalidInput("name and text are required")
	}
	if in.Timestamp < 0 || math.IsNaN(in.Timestamp) || math.IsInf(in.Timestamp, 0) {
		return nil, apperr.InvalidInput("timestamp must be a non-negative number of seconds")
	}

	if _, err := s.CheckView(ctx, videoID, requesterID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		Name:      in.Name,
		Text:      in.Text,
		Timestamp: in.Timestamp,
		Date:      s.now().UTC(),
	}
	comments, err := s.videos.AppendComment(ctx, videoID, comment)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("video")
		}
		return nil, apperr.Internal("add comment", err)
	}

	s.events.PublishComment(ctx, videoID, comment)
	return comments, nil
}

// CheckView loads the video and applies the viewing rule. It backs both
// commenting and the live comment stream.
func (s *Videos) CheckView(ctx context.Context, videoID uuid.UUID, requesterID *uuid.UUID) (*models.Video, error) {
	video, err := s.loadVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.IsPublic {
		return video, nil
	}
	if requesterID == nil {
		return nil, apperr.VideoPrivate()
	}

	ws, err := s.loadWorkspace(ctx, video.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewVideo(requesterID, video, ws) {
		return nil, apperr.Forbidden("you do not have access to this video")
	}
	return video, nil
}

func (s *Videos) loadVideo(ctx context.Context, videoID uuid.UUID) (*models.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, apperr.Internal("load video", err)
	}
	if video == nil {
		return nil, apperr.NotFound("video")
	}
	return video, nil
}

func (s *Videos) loadWorkspace(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, apperr.Internal("load workspace", err)
	}
	if ws == nil {
		return nil, apperr.NotFound("workspace")
	}
	return ws, nil
}

func (s *Videos) loadWithWorkspace(ctx context.Context, videoID uuid.UUID) (*models.Video, *models.Workspace, error) {
	video, err := s.loadVideo(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}
	ws, err := s.loadWorkspace(ctx, video.WorkspaceID)
	if err != nil {
		return nil, nil, err
	}
	return video, ws, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName reduces a client-supplied name to a safe storage key
// segment. Directory parts are dropped and runs of other characters become
// a single dash.
func SanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	base = unsafeFileChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, ".-")
	if base == "" {
		return "video"
	}
	if len(base) > 128 {
		base = base[len(base)-128:]
	}
	return base
}

// DetectContentType trusts a specific declared type and sniffs the bytes
// otherwise.
func DetectContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}
