// Package mongodb is the document-database backend for users, workspaces and
// videos. Each entity lives in its own collection; comments are embedded in
// the video document and appended with $push.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection      = "users"
	workspacesCollection = "workspaces"
	videosCollection     = "videos"
)

// New returns the three repositories backed by db.
func New(db *mongo.Database) repository.Store {
	return repository.Store{
		Users:      NewUserStore(db),
		Workspaces: NewWorkspaceStore(db),
		Videos:     NewVideoStore(db),
	}
}

// EnsureIndexes creates the indexes every collection relies on. Safe to run
// on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewUserStore(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := NewWorkspaceStore(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("workspaces indexes: %w", err)
	}
	if err := NewVideoStore(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("videos indexes: %w", err)
	}
	return nil
}

type UserStore struct {
	c *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{c: db.Collection(usersCollection)}
}

func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_user_email"),
	})
	return err
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if _, err := s.c.InsertOne(ctx, toUserDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.c.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := doc.model()
	return &u, nil
}

func (s *UserStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for _, d := range docs {
		users = append(users, d.model())
	}
	return users, nil
}

func (s *UserStore) AddWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	res, err := s.c.UpdateByID(ctx, userID.String(), bson.M{
		"$addToSet": bson.M{"workspaces": workspaceID.String()},
	})
	if err != nil {
		return fmt.Errorf("add workspace to user: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *UserStore) SetPlan(ctx context.Context, userID uuid.UUID, plan models.Plan) error {
	res, err := s.c.UpdateByID(ctx, userID.String(), bson.M{
		"$set": bson.M{"plan": string(plan)},
	})
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type WorkspaceStore struct {
	c *mongo.Collection
}

func NewWorkspaceStore(db *mongo.Database) *WorkspaceStore {
	return &WorkspaceStore{c: db.Collection(workspacesCollection)}
}

func (s *WorkspaceStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "creator", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_workspace_creator_created"),
		},
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("idx_workspace_members"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *WorkspaceStore) Create(ctx context.Context, ws *models.Workspace) error {
	if _, err := s.c.InsertOne(ctx, toWorkspaceDoc(ws)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert workspace: %w", err)
	}
	return nil
}

func (s *WorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	var doc workspaceDoc
	if err := s.c.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	ws := doc.model()
	return &ws, nil
}

func (s *WorkspaceStore) ListByCreator(ctx context.Context, userID uuid.UUID) ([]models.Workspace, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"creator": userID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer cur.Close(ctx)

	var docs []workspaceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode workspaces: %w", err)
	}
	out := make([]models.Workspace, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

// AddMember filters on "members $ne userID" so the update only matches when
// the user is not yet present; a zero ModifiedCount then means "already a
// member" even under concurrent invites.
func (s *WorkspaceStore) AddMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": workspaceID.String(), "members": bson.M{"$ne": userID.String()}},
		bson.M{
			"$push": bson.M{"members": userID.String()},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("add member: %w", err)
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}

	n, err := s.c.CountDocuments(ctx, bson.M{"_id": workspaceID.String()})
	if err != nil {
		return false, fmt.Errorf("count workspace: %w", err)
	}
	if n == 0 {
		return false, repository.ErrNotFound
	}
	return false, nil
}

func (s *WorkspaceStore) AddVideo(ctx context.Context, workspaceID, videoID uuid.UUID) error {
	return s.updateVideos(ctx, workspaceID, "$addToSet", videoID)
}

func (s *WorkspaceStore) RemoveVideo(ctx context.Context, workspaceID, videoID uuid.UUID) error {
	return s.updateVideos(ctx, workspaceID, "$pull", videoID)
}

func (s *WorkspaceStore) updateVideos(ctx context.Context, workspaceID uuid.UUID, op string, videoID uuid.UUID) error {
	res, err := s.c.UpdateByID(ctx, workspaceID.String(), bson.M{
		op:     bson.M{"videos": videoID.String()},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("update workspace videos: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type VideoStore struct {
	c *mongo.Collection
}

func NewVideoStore(db *mongo.Database) *VideoStore {
	return &VideoStore{c: db.Collection(videosCollection)}
}

func (s *VideoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workspace", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_video_workspace_created"),
	})
	return err
}

func (s *VideoStore) Create(ctx context.Context, video *models.Video) error {
	if _, err := s.c.InsertOne(ctx, toVideoDoc(video)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (s *VideoStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var doc videoDoc
	if err := s.c.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	v := doc.model()
	return &v, nil
}

func (s *VideoStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Video, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"workspace": workspaceID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer cur.Close(ctx)

	var docs []videoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode videos: %w", err)
	}
	out := make([]models.Video, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *VideoStore) SetPublic(ctx context.Context, id uuid.UUID, isPublic bool) (*models.Video, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc videoDoc
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"is_public": isPublic, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("set video visibility: %w", err)
	}
	v := doc.model()
	return &v, nil
}

func (s *VideoStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AppendComment pushes and reads back in one round trip so the returned
// list includes every comment that landed before this one.
func (s *VideoStore) AppendComment(ctx context.Context, videoID uuid.UUID, comment models.Comment) ([]models.Comment, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"comments": 1})

	var doc struct {
		Comments []commentDoc `bson:"comments"`
	}
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": videoID.String()},
		bson.M{
			"$push": bson.M{"comments": toCommentDoc(comment)},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("append comment: %w", err)
	}
	return commentModels(doc.Comments), nil
}
