// Package policy holds the access-control rules for workspaces and videos.
//
// Every function here is pure: callers load the entities, the policy only
// answers yes or no. Services translate a "no" into the right error.
package policy

import (
	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
)

// CanAccessWorkspace reports whether userID is the creator or a member.
func CanAccessWorkspace(userID uuid.UUID, ws *models.Workspace) bool {
	if ws == nil || userID == uuid.Nil {
		return false
	}
	return ws.CreatorID == userID || ws.HasMember(userID)
}

// CanManageWorkspace reports whether userID created the workspace.
func CanManageWorkspace(userID uuid.UUID, ws *models.Workspace) bool {
	if ws == nil || userID == uuid.Nil {
		return false
	}
	return ws.CreatorID == userID
}

// CanViewVideo allows anyone to see a public video. A private video is
// visible only to an authenticated caller who can access its workspace.
// A nil userID means the caller is anonymous.
func CanViewVideo(userID *uuid.UUID, video *models.Video, ws *models.Workspace) bool {
	if video == nil {
		return false
	}
	if video.IsPublic {
		return true
	}
	if userID == nil {
		return false
	}
	return CanAccessWorkspace(*userID, ws)
}

// CanDeleteVideo is limited to the workspace creator. Members may upload
// but not remove.
func CanDeleteVideo(userID uuid.UUID, ws *models.Workspace) bool {
	return CanManageWorkspace(userID, ws)
}

// CanChangeVisibility lets any workspace member toggle sharing.
func CanChangeVisibility(userID uuid.UUID, ws *models.Workspace) bool {
	return CanAccessWorkspace(userID, ws)
}

// CanInvite requires the pro plan and access to the workspace.
func CanInvite(user *models.User, ws *models.Workspace) bool {
	if user == nil {
		return false
	}
	return user.Plan == models.PlanPro && CanAccessWorkspace(user.ID, ws)
}
