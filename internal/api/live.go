package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lalith-99/reelroom/internal/middleware"
	"github.com/lalith-99/reelroom/internal/realtime"
	"github.com/lalith-99/reelroom/internal/service"
	"go.uber.org/zap"
)

const (
	livePingInterval = 30 * time.Second
	liveReadTimeout  = 60 * time.Second
	liveWriteTimeout = 10 * time.Second
)

// LiveHandler streams new comments on a video over a websocket.
type LiveHandler struct {
	videos   *service.Videos
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewLiveHandler builds the handler. checkOrigin may be nil to accept any
// origin.
func NewLiveHandler(videos *service.Videos, hub *realtime.Hub, checkOrigin func(*http.Request) bool, logger *zap.Logger) *LiveHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &LiveHandler{
		videos: videos,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// Stream handles GET /video/:id/comments/live. Access is checked before
// the upgrade so refusals are ordinary JSON errors.
func (h *LiveHandler) Stream(c *gin.Context) {
	videoID, ok := paramID(c, "id", "video")
	if !ok {
		return
	}
	if _, err := h.videos.CheckView(c.Request.Context(), videoID, middleware.OptionalUserID(c)); err != nil {
		_ = c.Error(err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(videoID)
	defer sub.Close()

	middleware.LiveViewerJoined()
	defer middleware.LiveViewerLeft()

	log := h.logger.With(zap.String("video_id", videoID.String()))
	log.Debug("live viewer connected")

	_ = conn.SetReadDeadline(time.Now().Add(liveReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(liveReadTimeout))
	})

	// Viewers only listen; the read loop exists to process pongs and
	// notice the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("live viewer read failed", zap.Error(err))
				}
				return
			}
		}
	}()

	ping := time.NewTicker(livePingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug("live write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			log.Debug("live viewer disconnected")
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
