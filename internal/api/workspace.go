package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/apperr"
	"github.com/lalith-99/reelroom/internal/middleware"
	"github.com/lalith-99/reelroom/internal/service"
	"go.uber.org/zap"
)

type WorkspaceHandler struct {
	workspaces *service.Workspaces
	logger     *zap.Logger
}

func NewWorkspaceHandler(workspaces *service.Workspaces, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, logger: logger}
}

type createWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

type inviteRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// List handles GET /workspace. Only workspaces the caller created are
// returned.
func (h *WorkspaceHandler) List(c *gin.Context) {
	views, err := h.workspaces.ListForUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Get handles GET /workspace/:id
func (h *WorkspaceHandler) Get(c *gin.Context) {
	workspaceID, ok := paramID(c, "id", "workspace")
	if !ok {
		return
	}
	view, err := h.workspaces.Get(c.Request.Context(), workspaceID, middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Create handles POST /workspace
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req createWorkspaceRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.workspaces.Create(c.Request.Context(), middleware.GetUserID(c), req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Invite handles POST /workspace/:id/invite
func (h *WorkspaceHandler) Invite(c *gin.Context) {
	workspaceID, ok := paramID(c, "id", "workspace")
	if !ok {
		return
	}
	var req inviteRequest
	if !bindJSON(c, &req) {
		return
	}
	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		_ = c.Error(apperr.InvalidInput("invalid user id"))
		return
	}

	if err := h.workspaces.Invite(c.Request.Context(), workspaceID, middleware.GetUserID(c), targetID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User invited successfully"})
}
