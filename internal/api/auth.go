package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/reelroom/internal/middleware"
	"github.com/lalith-99/reelroom/internal/service"
	"go.uber.org/zap"
)

// AuthHandler serves registration and login, the only endpoints that hand
// out tokens, plus /auth/me.
type AuthHandler struct {
	creds  *service.Credentials
	logger *zap.Logger
}

func NewAuthHandler(creds *service.Credentials, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{creds: creds, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	_, token, err := h.creds.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	middleware.RecordAuthAttempt("register", err == nil)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Login handles POST /auth/login. Unknown email and wrong password get the
// same response.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.creds.Authenticate(c.Request.Context(), req.Email, req.Password)
	middleware.RecordAuthAttempt("login", err == nil)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, Username: user.Name})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.creds.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}
