package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/PeriniM/realtime-api-langgraph/internal/models"
	"github.com/PeriniM/realtime-api-langgraph/internal/services"
	"github.com/PeriniM/realtime-api-langgraph/internal/storage"
	"github.com/PeriniM/realtime-api-langgraph/internal/utils"
)

type SessionHandler struct {
	svc      services.SessionService
	convos   services.ConversationService
	uploader storage.Uploader
}

func NewSessionHandler(svc services.SessionService, convos services.ConversationService, uploader storage.Uploader) *SessionHandler {
	return &SessionHandler{svc: svc, convos: convos, uploader: uploader}
}

type StartSessionRequest struct {
	Mode     string                 `json:"mode" binding:"required"` // voice|text
	Voice    string                 `json:"voice"`
	Metadata models.SessionMetadata `json:"metadata"`
}

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Mode      string `json:"mode"`
	CreatedAt string `json:"created_at"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Start", "invalid request body", err))
		return
	}

	sess, err := h.svc.Start(c.Request.Context(), userID, req.Mode, req.Voice, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, StartSessionResponse{
		SessionID: sess.SessionID,
		Status:    sess.Status,
		Mode:      sess.Mode,
		CreatedAt: sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	sess, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	// basic authorization
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "SessionHandler.Get", "forbidden", nil))
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) End(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")

	// authorize against existing session
	sess, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "SessionHandler.End", "forbidden", nil))
		return
	}

	ended, err := h.svc.End(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ended)
}

// Export renders the session transcript as plain text and uploads it to
// object storage, returning the object URL.
func (h *SessionHandler) Export(c *gin.Context) {
	const op = "SessionHandler.Export"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")

	sess, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, op, "forbidden", nil))
		return
	}

	rows, err := h.convos.ListBySession(c.Request.Context(), userID, sessionID, 500)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(rows) == 0 {
		writeError(c, utils.E(utils.CodeNotFound, op, "no conversation recorded for session", nil))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %s (%s)\n\n", sessionID, sess.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, row := range rows {
		fmt.Fprintf(&sb, "[%s] %s: %s\n", row.Timestamp.Format("15:04:05"), row.Role, row.Content)
	}

	objectName := "transcripts/" + sessionID + ".txt"
	url, err := h.uploader.Upload(c.Request.Context(), objectName, "text/plain; charset=utf-8", strings.NewReader(sb.String()))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to upload transcript", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"url":        url,
		"lines":      len(rows),
	})
}
