package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the billing entitlement attached to a user. Only "pro" users may
// invite other people into a workspace.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Valid reports whether p is one of the known plans.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro
}

// User is a registered account.
//
// PasswordHash carries json:"-" so a User can be returned from a handler
// without ever leaking the bcrypt hash.
//
// WorkspaceIDs is a denormalized list. It is appended to after a workspace is
// created or the user is invited, but nothing reads it for authorization:
// workspace listings always query the workspaces themselves.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Plan         Plan        `json:"plan"`
	WorkspaceIDs []uuid.UUID `json:"workspaces"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Summary projects the user down to the fields other members may see.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserSummary is the display-safe projection of a User.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Workspace is a named group of members sharing a set of videos.
//
// CreatorID never changes after creation and is always present in MemberIDs.
type Workspace struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	CreatorID uuid.UUID   `json:"creator"`
	MemberIDs []uuid.UUID `json:"members"`
	VideoIDs  []uuid.UUID `json:"videos"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// HasMember reports whether userID appears in the member set.
func (w Workspace) HasMember(userID uuid.UUID) bool {
	for _, id := range w.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// WorkspaceView is what the API returns for a workspace: creator and members
// expanded to summaries, videos to title/url pairs.
type WorkspaceView struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Creator   UserSummary    `json:"creator"`
	Members   []UserSummary  `json:"members"`
	Videos    []VideoSummary `json:"videos"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Video is the metadata row for one uploaded file. The bytes live in the blob
// store under StorageKey; StorageBackend names the store that holds them.
// Neither is part of the JSON form.
type Video struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	StorageKey     string    `json:"-"`
	StorageBackend string    `json:"-"`
	ContentType    string    `json:"contentType"`
	Size           int64     `json:"size"`
	WorkspaceID    uuid.UUID `json:"workspace"`
	UploaderID     uuid.UUID `json:"uploader"`
	IsPublic       bool      `json:"isPublic"`
	Comments       []Comment `json:"comments"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Shared is what an anonymous viewer of a public video gets: no workspace or
// uploader identity.
func (v Video) Shared() SharedVideo {
	return SharedVideo{
		ID:          v.ID,
		Title:       v.Title,
		URL:         v.URL,
		ContentType: v.ContentType,
		Size:        v.Size,
		IsPublic:    v.IsPublic,
		Comments:    v.Comments,
		CreatedAt:   v.CreatedAt,
	}
}

// SharedVideo is the share-link projection of a Video.
type SharedVideo struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	IsPublic    bool      `json:"isPublic"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary is the short form embedded in a WorkspaceView.
func (v Video) Summary() VideoSummary {
	return VideoSummary{ID: v.ID, Title: v.Title, URL: v.URL}
}

// VideoSummary is the projection of a Video listed inside a workspace.
type VideoSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	URL   string    `json:"url"`
}

// Comment is a note pinned to a playback position.
//
// Name is free text typed by the commenter, not a reference to a User.
// Timestamp is the position in the video in seconds; Date is wall-clock.
type Comment struct {
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Timestamp float64   `json:"timestamp"`
	Date      time.Time `json:"date"`
}
