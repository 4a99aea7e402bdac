package ui

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aloneprofessor1-oss/MADDI/chat"
	"github.com/aloneprofessor1-oss/MADDI/config"
	"github.com/aloneprofessor1-oss/MADDI/pkg/logger"
	"github.com/aloneprofessor1-oss/MADDI/speech"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the presentation layer: a localhost web surface that renders
// controller state and forwards user actions. It holds no conversation
// state of its own.
type Server struct {
	controller *chat.Controller
	hub        *Hub
	engine     *gin.Engine
}

func NewServer(cfg *config.Config, controller *chat.Controller) *Server {
	s := &Server{
		controller: controller,
		hub:        NewHub(),
	}

	// Re-render on every committed mutation.
	controller.Repository().OnChange(func() {
		s.hub.Broadcast(controller.State())
	})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().Unix()})
	})

	api := engine.Group("/api")
	{
		api.GET("/state", s.getState)

		api.POST("/conversations", s.newConversation)
		api.POST("/conversations/:id/select", s.selectConversation)
		api.DELETE("/conversations/:id", s.deleteConversation)

		api.POST("/chat", s.sendText)
		api.POST("/chat/retry", s.retry)
		api.POST("/error/dismiss", s.dismissError)

		api.POST("/image", s.generateImage)
		api.POST("/voice", s.captureVoice)

		api.POST("/messages/:session/:id/play", s.playMessageAudio)
		api.GET("/messages/:session/:id/text", s.messageText)
		api.POST("/audio/stop", s.stopAudio)

		api.POST("/settings/theme/toggle", s.toggleTheme)
		api.PUT("/settings/volume", s.setVolume)
		api.PUT("/settings/speed", s.setSpeed)
	}

	engine.GET("/ws", s.stream)

	s.engine = engine
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.State())
}

func (s *Server) newConversation(c *gin.Context) {
	session := s.controller.NewConversation()
	c.JSON(http.StatusCreated, session)
}

func (s *Server) selectConversation(c *gin.Context) {
	if err := s.controller.SelectConversation(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteConversation(c *gin.Context) {
	if err := s.controller.DeleteConversation(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) sendText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// The turn runs asynchronously; clients follow progress over /ws and
	// keep send affordances disabled while chatInFlight is set.
	go s.controller.SendUserTurn(context.Background(), req.Text)
	c.Status(http.StatusAccepted)
}

func (s *Server) retry(c *gin.Context) {
	go s.controller.RetryLastTurn(context.Background())
	c.Status(http.StatusAccepted)
}

func (s *Server) dismissError(c *gin.Context) {
	s.controller.DismissError()
	c.Status(http.StatusNoContent)
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) generateImage(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	go s.controller.GenerateImage(context.Background(), req.Prompt)
	c.Status(http.StatusAccepted)
}

func (s *Server) captureVoice(c *gin.Context) {
	// Blocks for the duration of the capture so capability absence can be
	// surfaced immediately as a blocking notice.
	if err := s.controller.CaptureVoice(c.Request.Context()); err != nil {
		if errors.Is(err, speech.ErrUnavailable) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) playMessageAudio(c *gin.Context) {
	s.controller.PlayMessageAudio(c.Param("session"), c.Param("id"))
	c.Status(http.StatusAccepted)
}

func (s *Server) stopAudio(c *gin.Context) {
	s.controller.StopAudio()
	c.Status(http.StatusNoContent)
}

// messageText returns a message's text for the clipboard.
func (s *Server) messageText(c *gin.Context) {
	msg, ok := s.controller.Repository().Message(c.Param("session"), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": msg.Text})
}

func (s *Server) toggleTheme(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.ToggleTheme())
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

func (s *Server) setVolume(c *gin.Context) {
	var req volumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, s.controller.SetVolume(req.Volume))
}

type speedRequest struct {
	Speed float64 `json:"speed"`
}

func (s *Server) setSpeed(c *gin.Context) {
	var req speedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, s.controller.SetPlaybackSpeed(req.Speed))
}

// stream upgrades to a websocket and pushes a state snapshot on every
// committed mutation, starting with the current one.
func (s *Server) stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("Websocket upgrade failed: %v", err)
		return
	}
	// Initial snapshot goes out before the hub can broadcast to this
	// connection; gorilla allows only one concurrent writer.
	if err := conn.WriteJSON(s.controller.State()); err != nil {
		conn.Close()
		return
	}
	s.hub.Register(conn)

	// Reads are discarded; the socket exists to push state. The read loop
	// detects the client going away.
	go func() {
		defer s.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
