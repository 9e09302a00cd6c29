package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/apperr"
	"github.com/lalith-99/reelroom/internal/auth"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/repository"
	"go.uber.org/zap"
)

// Credentials registers users, checks passwords and issues session tokens.
type Credentials struct {
	users  repository.UserRepository
	hasher *auth.Hasher
	tokens *auth.TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

func NewCredentials(users repository.UserRepository, hasher *auth.Hasher, tokens *auth.TokenIssuer, logger *zap.Logger) *Credentials {
	return &Credentials{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user on the free plan and returns a session token for
// it. A second registration with the same email fails with Conflict and
// leaves the first account untouched.
func (s *Credentials) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" {
		return nil, "", apperr.InvalidInput("name is required")
	}
	if email == "" {
		return nil, "", apperr.InvalidInput("email is required")
	}
	if password == "" {
		return nil, "", apperr.InvalidInput("password is required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, "", apperr.InvalidInput(fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", apperr.Internal("registration failed", err)
	}
	if existing != nil {
		return nil, "", apperr.Conflict("email already registered")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", apperr.Internal("registration failed", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Plan:         models.PlanFree,
		WorkspaceIDs: []uuid.UUID{},
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", apperr.Conflict("email already registered")
		}
		return nil, "", apperr.Internal("registration failed", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", apperr.Internal("registration failed", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

// Authenticate returns the same InvalidCredentials error for an unknown
// email and a wrong password.
func (s *Credentials) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, "", apperr.Internal("login failed", err)
	}
	if user == nil {
		return nil, "", apperr.InvalidCredentials()
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, "", apperr.InvalidCredentials()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", apperr.Internal("login failed", err)
	}
	return user, token, nil
}

// Verify resolves a bearer token to the user it was issued for.
func (s *Credentials) Verify(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, apperr.Unauthorized("missing token")
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return uuid.Nil, apperr.Unauthorized("invalid or expired token").Wrap(err)
	}
	return userID, nil
}

// Me returns the authenticated user's own record.
func (s *Credentials) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}
	return user, nil
}

// SetPlan changes a user's billing entitlement. It backs the admin CLI.
func (s *Credentials) SetPlan(ctx context.Context, email string, plan models.Plan) (*models.User, error) {
	if !plan.Valid() {
		return nil, apperr.InvalidInput("plan must be free or pro")
	}
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}
	if err := s.users.SetPlan(ctx, user.ID, plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, apperr.Internal("set plan", err)
	}
	user.Plan = plan

	s.logger.Info("user plan changed",
		zap.String("user_id", user.ID.String()),
		zap.String("plan", string(plan)),
	)
	return user, nil
}
