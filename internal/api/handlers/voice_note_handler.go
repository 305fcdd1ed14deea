package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/PeriniM/realtime-api-langgraph/internal/audio"
	"github.com/PeriniM/realtime-api-langgraph/internal/background"
	"github.com/PeriniM/realtime-api-langgraph/internal/models"
	"github.com/PeriniM/realtime-api-langgraph/internal/providers/stt"
	"github.com/PeriniM/realtime-api-langgraph/internal/services"
	"github.com/PeriniM/realtime-api-langgraph/internal/utils"
)

// VoiceNoteHandler is the non-realtime ingestion path: one complete audio
// clip is transcribed in a single call and then analyzed like any other
// turn. The result is polled via the tasks endpoint instead of being
// delivered over a live socket.
type VoiceNoteHandler struct {
	sessions services.SessionService
	convos   services.ConversationService
	tasks    services.TaskService
	worker   background.Worker
	stt      stt.Provider
}

func NewVoiceNoteHandler(sessions services.SessionService, convos services.ConversationService, tasks services.TaskService, worker background.Worker, sp stt.Provider) *VoiceNoteHandler {
	return &VoiceNoteHandler{
		sessions: sessions,
		convos:   convos,
		tasks:    tasks,
		worker:   worker,
		stt:      sp,
	}
}

type VoiceNoteRequest struct {
	AudioBase64 string `json:"audio_base64" binding:"required"` // PCM16 mono 24 kHz
	Language    string `json:"language"`
}

type VoiceNoteResponse struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	TaskID     string  `json:"task_id"`
}

func (h *VoiceNoteHandler) Create(c *gin.Context) {
	const op = "VoiceNoteHandler.Create"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")

	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, op, "forbidden", nil))
		return
	}

	var req VoiceNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	pcm, err := audio.Decode(req.AudioBase64)
	if err != nil || len(pcm) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio_base64 is not valid base64 PCM", err))
		return
	}

	lang := req.Language
	if lang == "" {
		lang = sess.Metadata.Language
	}

	text, confidence, err := h.stt.Transcribe(c.Request.Context(), pcm, lang)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "transcription failed", err))
		return
	}
	if text == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "no speech recognized", nil))
		return
	}

	if _, err := h.convos.Append(c.Request.Context(), userID, sessionID, "user", text, nil, nil); err != nil {
		writeError(c, err)
		return
	}

	turn := models.ConversationTurn{
		UserText:  text,
		Timestamp: time.Now().UTC(),
	}
	taskID := h.tasks.Create(turn)

	// detach from the request context; the note outlives the HTTP call
	go h.worker.Run(context.Background(), taskID, turn)

	c.JSON(http.StatusAccepted, VoiceNoteResponse{
		Transcript: text,
		Confidence: confidence,
		TaskID:     taskID,
	})
}
