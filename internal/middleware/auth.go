package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/apperr"
)

// ContextKeyUserID is where the authenticated user's ID is stored in the
// gin context.
const ContextKeyUserID = "user_id"

// Verifier resolves a bearer token to a user ID.
type Verifier interface {
	Verify(token string) (uuid.UUID, error)
}

// RequireAuth rejects the request with 401 unless it carries a valid
// "Authorization: Bearer <token>" header. The handler never runs on failure.
func RequireAuth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			_ = c.Error(apperr.Unauthorized("missing authorization header"))
			c.Abort()
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			_ = c.Error(apperr.Unauthorized("invalid authorization format, expected: Bearer <token>"))
			c.Abort()
			return
		}

		userID, err := v.Verify(token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and
// otherwise lets the request through anonymously. Browsers cannot set
// headers on a websocket handshake, so the token may also arrive as the
// "token" query parameter.
func OptionalAuth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token != "" {
			if userID, err := v.Verify(token); err == nil {
				c.Set(ContextKeyUserID, userID)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetUserID returns the authenticated user, or uuid.Nil on routes without
// RequireAuth.
func GetUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

// OptionalUserID returns nil for anonymous callers.
func OptionalUserID(c *gin.Context) *uuid.UUID {
	id := GetUserID(c)
	if id == uuid.Nil {
		return nil
	}
	return &id
}
