package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/PeriniM/realtime-api-langgraph/internal/models"
	memrepo "github.com/PeriniM/realtime-api-langgraph/internal/repositories/memory"
	"github.com/PeriniM/realtime-api-langgraph/internal/services"
)

// echoWorker completes every task immediately with a canned analysis.
type echoWorker struct {
	tasks services.TaskService
}

func (w *echoWorker) Run(ctx context.Context, taskID string, turn models.ConversationTurn) {
	w.tasks.SetRunning(taskID)
	w.tasks.SetCompleted(taskID, models.AnalysisResult{
		Action:     "conversation_analysis",
		Message:    "echo: " + turn.UserText,
		SourceTurn: turn.UserText,
		Timestamp:  time.Now().UTC(),
	})
}

func newTaskRouter(svc services.TaskService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "user-1") })

	h := NewTaskHandler(svc, &echoWorker{tasks: svc}, 5*time.Minute)
	r.POST("/tasks", h.Create)
	r.GET("/tasks/:task_id", h.Get)
	r.POST("/tasks/cleanup", h.Cleanup)
	return r
}

func TestTaskHandlerCreateSchedulesAnalysis(t *testing.T) {
	svc := services.NewTaskService(memrepo.NewTaskRepo(), nil)
	r := newTaskRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"user_text":"hello","assistant_text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var task models.AnalysisTask
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.True(t, strings.HasPrefix(task.ID, "task_"))

	require.Eventually(t, func() bool {
		return svc.Get(task.ID).Status == models.TaskCompleted
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "echo: hello", svc.Get(task.ID).Result.Message)
}

func TestTaskHandlerCreateRequiresUserText(t *testing.T) {
	svc := services.NewTaskService(memrepo.NewTaskRepo(), nil)
	r := newTaskRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandlerGet(t *testing.T) {
	svc := services.NewTaskService(memrepo.NewTaskRepo(), nil)
	r := newTaskRouter(svc)

	id := svc.Create(models.ConversationTurn{UserText: "hello"})
	svc.SetCompleted(id, models.AnalysisResult{Action: "conversation_analysis", Message: "insight"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks/"+id, nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var task models.AnalysisTask
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.Equal(t, models.TaskCompleted, task.Status)
	require.Equal(t, "insight", task.Result.Message)
}

func TestTaskHandlerGetUnknownIsTotal(t *testing.T) {
	svc := services.NewTaskService(memrepo.NewTaskRepo(), nil)
	r := newTaskRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks/task_missing", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "unknown ids report not_found in the body, not as HTTP 404")

	var task models.AnalysisTask
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.Equal(t, models.TaskNotFound, task.Status)
}

func TestTaskHandlerCleanup(t *testing.T) {
	svc := services.NewTaskService(memrepo.NewTaskRepo(), nil)
	r := newTaskRouter(svc)

	svc.Create(models.ConversationTurn{UserText: "old"})
	time.Sleep(20 * time.Millisecond)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks/cleanup", strings.NewReader(`{"max_age":"10ms"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Removed   int `json:"removed"`
		Remaining int `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Removed)
	require.Equal(t, 0, resp.Remaining)
}

func TestTaskHandlerCleanupRejectsBadDuration(t *testing.T) {
	svc := services.NewTaskService(memrepo.NewTaskRepo(), nil)
	r := newTaskRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks/cleanup", strings.NewReader(`{"max_age":"yesterday"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
