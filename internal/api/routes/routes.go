package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/PeriniM/realtime-api-langgraph/internal/api/handlers"
	"github.com/PeriniM/realtime-api-langgraph/internal/api/middleware"
)

type Deps struct {
	Session      *handlers.SessionHandler
	Conversation *handlers.ConversationHandler
	Task         *handlers.TaskHandler
	VoiceNote    *handlers.VoiceNoteHandler
	WS           *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/session/start", d.Session.Start)
	auth.GET("/session/:session_id", d.Session.Get)
	auth.POST("/session/:session_id/end", d.Session.End)
	auth.GET("/session/:session_id/export", d.Session.Export)
	auth.POST("/session/:session_id/voice-note", d.VoiceNote.Create)

	auth.GET("/conversation/recent", d.Conversation.Recent)
	auth.GET("/conversation/:session_id", d.Conversation.ListBySession)

	auth.POST("/tasks", d.Task.Create)
	auth.GET("/tasks/:task_id", d.Task.Get)
	auth.POST("/tasks/cleanup", d.Task.Cleanup)

	// WebSocket
	auth.GET("/ws/session/:session_id", d.WS.SessionWS)
}
