package mongodb

import (
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
)

// Documents store UUIDs as their canonical string form so they read cleanly
// in the shell and compare with plain equality in filters.

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Plan         string    `bson:"plan"`
	Workspaces   []string  `bson:"workspaces"`
	CreatedAt    time.Time `bson:"created_at"`
}

type workspaceDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Creator   string    `bson:"creator"`
	Members   []string  `bson:"members"`
	Videos    []string  `bson:"videos"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type commentDoc struct {
	Name      string    `bson:"name"`
	Text      string    `bson:"text"`
	Timestamp float64   `bson:"timestamp"`
	Date      time.Time `bson:"date"`
}

type videoDoc struct {
	ID             string       `bson:"_id"`
	Title          string       `bson:"title"`
	URL            string       `bson:"url"`
	StorageKey     string       `bson:"storage_key"`
	StorageBackend string       `bson:"storage_backend"`
	ContentType    string       `bson:"content_type"`
	Size           int64        `bson:"size"`
	Workspace      string       `bson:"workspace"`
	Uploader       string       `bson:"uploader"`
	IsPublic       bool         `bson:"is_public"`
	Comments       []commentDoc `bson:"comments"`
	CreatedAt      time.Time    `bson:"created_at"`
	UpdatedAt      time.Time    `bson:"updated_at"`
}

func toUserDoc(u *models.User) userDoc {
	return userDoc{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Plan:         string(u.Plan),
		Workspaces:   idStrings(u.WorkspaceIDs),
		CreatedAt:    u.CreatedAt,
	}
}

func (d userDoc) model() models.User {
	return models.User{
		ID:           parseID(d.ID),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Plan:         models.Plan(d.Plan),
		WorkspaceIDs: parseIDs(d.Workspaces),
		CreatedAt:    d.CreatedAt,
	}
}

func toWorkspaceDoc(ws *models.Workspace) workspaceDoc {
	return workspaceDoc{
		ID:        ws.ID.String(),
		Name:      ws.Name,
		Creator:   ws.CreatorID.String(),
		Members:   idStrings(ws.MemberIDs),
		Videos:    idStrings(ws.VideoIDs),
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
	}
}

func (d workspaceDoc) model() models.Workspace {
	return models.Workspace{
		ID:        parseID(d.ID),
		Name:      d.Name,
		CreatorID: parseID(d.Creator),
		MemberIDs: parseIDs(d.Members),
		VideoIDs:  parseIDs(d.Videos),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toCommentDoc(c models.Comment) commentDoc {
	return commentDoc{Name: c.Name, Text: c.Text, Timestamp: c.Timestamp, Date: c.Date}
}

func commentModels(docs []commentDoc) []models.Comment {
	out := make([]models.Comment, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.Comment{Name: d.Name, Text: d.Text, Timestamp: d.Timestamp, Date: d.Date})
	}
	return out
}

func toVideoDoc(v *models.Video) videoDoc {
	comments := make([]commentDoc, 0, len(v.Comments))
	for _, c := range v.Comments {
		comments = append(comments, toCommentDoc(c))
	}
	return videoDoc{
		ID:             v.ID.String(),
		Title:          v.Title,
		URL:            v.URL,
		StorageKey:     v.StorageKey,
		StorageBackend: v.StorageBackend,
		ContentType:    v.ContentType,
		Size:           v.Size,
		Workspace:      v.WorkspaceID.String(),
		Uploader:       v.UploaderID.String(),
		IsPublic:       v.IsPublic,
		Comments:       comments,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
}

func (d videoDoc) model() models.Video {
	return models.Video{
		ID:             parseID(d.ID),
		Title:          d.Title,
		URL:            d.URL,
		StorageKey:     d.StorageKey,
		StorageBackend: d.StorageBackend,
		ContentType:    d.ContentType,
		Size:           d.Size,
		WorkspaceID:    parseID(d.Workspace),
		UploaderID:     parseID(d.Uploader),
		IsPublic:       d.IsPublic,
		Comments:       commentModels(d.Comments),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// parseID maps a corrupt id to uuid.Nil rather than failing the whole read;
// uuid.Nil never passes an access check.
func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func parseIDs(ss []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		if id := parseID(s); id != uuid.Nil {
			out = append(out, id)
		}
	}
	return out
}
