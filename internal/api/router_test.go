package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/auth"
	"github.com/lalith-99/reelroom/internal/blob"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/realtime"
	"github.com/lalith-99/reelroom/internal/repository"
	"github.com/lalith-99/reelroom/internal/repository/memory"
	"github.com/lalith-99/reelroom/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router *gin.Engine
	store  repository.Store
	blobs  *blob.MemoryStore
	creds  *service.Credentials
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test adjust the router config before it is built.
func newTestServerWith(t *testing.T, adjust func(*RouterConfig)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	store := memory.New()
	blobs := blob.NewMemoryStore("https://cdn.test")
	hub := realtime.NewHub(logger)

	creds := service.NewCredentials(store.Users, auth.NewHasher(bcrypt.MinCost), auth.NewTokenIssuer("test-secret", 12*time.Hour), logger)
	workspaces := service.NewWorkspaces(store.Workspaces, store.Users, store.Videos, logger)
	videos := service.NewVideos(store.Videos, store.Workspaces, blobs, hub, logger)

	cfg := RouterConfig{
		Auth:       NewAuthHandler(creds, logger),
		Workspaces: NewWorkspaceHandler(workspaces, logger),
		Videos:     NewVideoHandler(videos, 1<<20, logger),
		Live:       NewLiveHandler(videos, hub, nil, logger),
		Health: NewHealthHandler(HealthCheck{
			Name:  "store",
			Check: func(context.Context) error { return nil },
		}),
		Verifier:    creds,
		Logger:      logger,
		CORSOrigins: []string{"*"},
	}
	if adjust != nil {
		adjust(&cfg)
	}
	router, err := NewRouter(cfg)
	require.NoError(t, err)
	return &testServer{router: router, store: store, blobs: blobs, creds: creds}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, token string, workspaceID uuid.UUID, fileName string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("workspaceId", workspaceID.String()))
	fw, err := mw.CreateFormFile("video", fileName)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/video/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, name string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": name, "email": name + "@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestEndToEnd_UploadListDelete(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "alice")

	w := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[loginResponse](t, w)
	assert.Equal(t, "alice", login.Username)
	token := login.Token

	w = s.do(t, http.MethodPost, "/workspace", token, gin.H{"name": "W1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ws := decode[models.WorkspaceView](t, w)
	assert.Equal(t, "W1", ws.Name)

	w = s.upload(t, token, ws.ID, "clip.mp4", []byte("0123456789"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	uploaded := decode[struct {
		Message string       `json:"message"`
		Video   models.Video `json:"video"`
	}](t, w)
	assert.Equal(t, int64(10), uploaded.Video.Size)
	assert.False(t, uploaded.Video.IsPublic)
	assert.Equal(t, 1, s.blobs.Len())

	w = s.do(t, http.MethodGet, "/video?workspaceId="+ws.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Videos []models.Video `json:"videos"`
	}](t, w)
	require.Len(t, list.Videos, 1)
	assert.Equal(t, uploaded.Video.ID, list.Videos[0].ID)

	w = s.do(t, http.MethodDelete, "/video/delete/"+uploaded.Video.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, s.blobs.Len())

	w = s.do(t, http.MethodGet, "/video/"+uploaded.Video.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[map[string]any](t, w)["error"])
}

func TestAPIPrefixMirrorsRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "bob", "email": "bob@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[tokenResponse](t, w).Token

	w = s.do(t, http.MethodGet, "/api/workspace", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"email": "a@example.com", "password": "password123"}},
		{"bad email", gin.H{"name": "a", "email": "nope", "password": "password123"}},
		{"short password", gin.H{"name": "a", "email": "a@example.com", "password": "short"}},
		{"long password", gin.H{"name": "a", "email": "a@example.com", "password": strings.Repeat("p", 80)}},
		{"multibyte password over 72 bytes", gin.H{"name": "a", "email": "a@example.com", "password": strings.Repeat("é", 40)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_INPUT", decode[map[string]any](t, w)["error"])
		})
	}
}

func TestRegister_DuplicateIs400Conflict(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "carol")

	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"name": "other", "email": "CAROL@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CONFLICT", decode[map[string]any](t, w)["error"])
}

func loginFrom(s *testServer, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"x@example.com","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w.Code
}

func TestAuthRateLimit_IgnoresForwardedForByDefault(t *testing.T) {
	s := newTestServerWith(t, func(cfg *RouterConfig) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 2
	})

	assert.Equal(t, http.StatusBadRequest, loginFrom(s, "203.0.113.7:5000", "198.51.100.1"))
	assert.Equal(t, http.StatusBadRequest, loginFrom(s, "203.0.113.7:5000", "198.51.100.2"))
	// A fresh forwarded address from the same peer shares its bucket.
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(s, "203.0.113.7:5000", "198.51.100.3"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(s, "203.0.113.7:5000", ""))

	// The API mount shares the same budget.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{}`))
	req.RemoteAddr = "203.0.113.7:5000"
	req.Header.Set("X-Forwarded-For", "198.51.100.4")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	assert.Equal(t, http.StatusBadRequest, loginFrom(s, "203.0.113.8:5000", ""))
}

func TestAuthRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	s := newTestServerWith(t, func(cfg *RouterConfig) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
		cfg.TrustedProxies = []string{"10.0.0.0/8"}
	})

	// Behind the proxy each forwarded client gets its own bucket.
	assert.Equal(t, http.StatusBadRequest, loginFrom(s, "10.1.2.3:4000", "198.51.100.1"))
	assert.Equal(t, http.StatusBadRequest, loginFrom(s, "10.1.2.3:4000", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(s, "10.1.2.3:4000", "198.51.100.1"))

	// An untrusted peer cannot borrow a forwarded identity.
	assert.Equal(t, http.StatusBadRequest, loginFrom(s, "203.0.113.9:4000", "198.51.100.3"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(s, "203.0.113.9:4000", "198.51.100.4"))
}

func TestNewRouter_RejectsBadTrustedProxy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, err := NewRouter(RouterConfig{TrustedProxies: []string{"not-an-ip"}, Logger: zap.NewNop()})
	assert.ErrorContains(t, err, "trusted proxies")
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "dave")

	w := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "dave@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[map[string]any](t, w)["error"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/workspace", "/auth/me", "/video?workspaceId=" + uuid.NewString()} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := s.do(t, http.MethodGet, "/workspace", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShare_PrivateThenPublic(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "erin")

	w := s.do(t, http.MethodPost, "/workspace", token, gin.H{"name": "W"})
	ws := decode[models.WorkspaceView](t, w)
	w = s.upload(t, token, ws.ID, "a.mp4", []byte("data"))
	require.Equal(t, http.StatusOK, w.Code)
	videoID := decode[struct {
		Video models.Video `json:"video"`
	}](t, w).Video.ID

	w = s.do(t, http.MethodGet, "/video/share/"+videoID.String(), "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "VIDEO_PRIVATE", body["error"])
	assert.Equal(t, true, body["private"])

	w = s.do(t, http.MethodPut, "/video/"+videoID.String()+"/privacy", token, gin.H{"isPublic": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/video/share/"+videoID.String(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	shared := decode[map[string]any](t, w)
	assert.Equal(t, videoID.String(), shared["id"])
	assert.Equal(t, true, shared["isPublic"])
	assert.Contains(t, shared, "contentType")
	assert.Contains(t, shared, "createdAt")
	for _, hidden := range []string{"storageKey", "storage_key", "storageBackend", "uploader", "workspace", "is_public"} {
		assert.NotContains(t, shared, hidden)
	}

	w = s.do(t, http.MethodGet, "/video/share/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetPrivacy_RequiresBoolean(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "frank")

	w := s.do(t, http.MethodPut, "/video/"+uuid.NewString()+"/privacy", token, gin.H{"isPublic": "yes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/video/"+uuid.NewString()+"/privacy", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComments_AnonymousOnPublicVideo(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "gina")

	w := s.do(t, http.MethodPost, "/workspace", token, gin.H{"name": "W"})
	ws := decode[models.WorkspaceView](t, w)
	w = s.upload(t, token, ws.ID, "a.mp4", []byte("data"))
	videoID := decode[struct {
		Video models.Video `json:"video"`
	}](t, w).Video.ID

	comment := gin.H{"name": "viewer", "text": "nice", "timestamp": 1.5}

	w = s.do(t, http.MethodPost, "/video/"+videoID.String()+"/comments", "", comment)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/video/"+videoID.String()+"/comments", token, comment)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[[]models.Comment](t, w), 1)

	s.do(t, http.MethodPut, "/video/"+videoID.String()+"/privacy", token, gin.H{"isPublic": true})
	w = s.do(t, http.MethodPost, "/video/"+videoID.String()+"/comments", "", comment)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Comment](t, w), 2)
}

func TestInvite_RequiresProPlan(t *testing.T) {
	s := newTestServer(t)
	ownerToken := s.register(t, "hank")
	s.register(t, "ivy")
	ivy, err := s.store.Users.GetByEmail(context.Background(), "ivy@example.com")
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/workspace", ownerToken, gin.H{"name": "W"})
	ws := decode[models.WorkspaceView](t, w)
	invitePath := "/workspace/" + ws.ID.String() + "/invite"

	w = s.do(t, http.MethodPost, invitePath, ownerToken, gin.H{"userId": ivy.ID.String()})
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, err = s.creds.SetPlan(context.Background(), "hank@example.com", models.PlanPro)
	require.NoError(t, err)

	w = s.do(t, http.MethodPost, invitePath, ownerToken, gin.H{"userId": ivy.ID.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, invitePath, ownerToken, gin.H{"userId": ivy.ID.String()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CONFLICT", decode[map[string]any](t, w)["error"])
}

func TestUpload_MissingFile(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jack")

	w := s.do(t, http.MethodPost, "/video/upload", token, gin.H{"workspaceId": uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	h := NewHealthHandler(HealthCheck{Name: "db", Check: func(context.Context) error { return errors.New("down") }})
	r := gin.New()
	r.GET("/health", h.Health)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "down")
}
