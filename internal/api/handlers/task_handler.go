package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/PeriniM/realtime-api-langgraph/internal/background"
	"github.com/PeriniM/realtime-api-langgraph/internal/models"
	"github.com/PeriniM/realtime-api-langgraph/internal/services"
	"github.com/PeriniM/realtime-api-langgraph/internal/utils"
)

// TaskHandler exposes the analysis task store over REST. The WebSocket
// bridge is the primary producer and consumer of tasks; this facade lets
// non-realtime clients schedule an analysis, poll it, and trigger cleanup.
type TaskHandler struct {
	svc           services.TaskService
	worker        background.Worker
	defaultMaxAge time.Duration
}

func NewTaskHandler(svc services.TaskService, worker background.Worker, defaultMaxAge time.Duration) *TaskHandler {
	if defaultMaxAge <= 0 {
		defaultMaxAge = 5 * time.Minute
	}
	return &TaskHandler{svc: svc, worker: worker, defaultMaxAge: defaultMaxAge}
}

type CreateTaskRequest struct {
	UserText      string `json:"user_text" binding:"required"`
	AssistantText string `json:"assistant_text"`
}

func (h *TaskHandler) Create(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TaskHandler.Create", "user_text is required", err))
		return
	}

	turn := models.ConversationTurn{
		UserText:      req.UserText,
		AssistantText: req.AssistantText,
		Timestamp:     time.Now().UTC(),
	}
	taskID := h.svc.Create(turn)

	// the analysis outlives the HTTP call; clients poll Get for the outcome
	go h.worker.Run(context.Background(), taskID, turn)

	c.JSON(http.StatusAccepted, h.svc.Get(taskID))
}

func (h *TaskHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	taskID := c.Param("task_id")
	if taskID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TaskHandler.Get", "missing task_id", nil))
		return
	}

	// Get is total: unknown ids come back with status not_found rather than
	// an HTTP 404, so pollers never have to special-case eviction.
	c.JSON(http.StatusOK, h.svc.Get(taskID))
}

type CleanupRequest struct {
	MaxAge string `json:"max_age"` // Go duration, ex: "5m"
}

func (h *TaskHandler) Cleanup(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	maxAge := h.defaultMaxAge

	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.MaxAge != "" {
		d, perr := time.ParseDuration(req.MaxAge)
		if perr != nil || d <= 0 {
			writeError(c, utils.E(utils.CodeInvalidArgument, "TaskHandler.Cleanup", "max_age must be a positive duration", perr))
			return
		}
		maxAge = d
	}

	removed := h.svc.Reap(maxAge)
	c.JSON(http.StatusOK, gin.H{
		"removed":   removed,
		"remaining": h.svc.Count(),
	})
}
