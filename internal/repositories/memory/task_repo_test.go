package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PeriniM/realtime-api-langgraph/internal/models"
)

func TestTaskRepoInsertAndGet(t *testing.T) {
	repo := NewTaskRepo()

	repo.Insert(&models.AnalysisTask{ID: "task_1", Status: models.TaskPending, CreatedAt: time.Now()})

	got, ok := repo.Get("task_1")
	require.True(t, ok)
	require.Equal(t, models.TaskPending, got.Status)
	require.Equal(t, 1, repo.Len())

	_, ok = repo.Get("task_2")
	require.False(t, ok)
}

func TestTaskRepoMutate(t *testing.T) {
	repo := NewTaskRepo()
	repo.Insert(&models.AnalysisTask{ID: "task_1", Status: models.TaskPending})

	ok := repo.Mutate("task_1", func(task *models.AnalysisTask) {
		task.Status = models.TaskRunning
	})
	require.True(t, ok)

	got, _ := repo.Get("task_1")
	require.Equal(t, models.TaskRunning, got.Status)

	require.False(t, repo.Mutate("task_2", func(*models.AnalysisTask) {}))
}

func TestTaskRepoGetIsACopy(t *testing.T) {
	repo := NewTaskRepo()
	repo.Insert(&models.AnalysisTask{ID: "task_1", Status: models.TaskPending})

	snapshot, _ := repo.Get("task_1")
	repo.Mutate("task_1", func(task *models.AnalysisTask) {
		task.Status = models.TaskCompleted
	})
	require.Equal(t, models.TaskPending, snapshot.Status)
}

func TestTaskRepoDeleteOlderThan(t *testing.T) {
	repo := NewTaskRepo()
	now := time.Now()

	repo.Insert(&models.AnalysisTask{ID: "stale", CreatedAt: now.Add(-10 * time.Minute)})
	repo.Insert(&models.AnalysisTask{ID: "running", Status: models.TaskRunning, CreatedAt: now.Add(-6 * time.Minute)})
	repo.Insert(&models.AnalysisTask{ID: "fresh", CreatedAt: now})

	removed := repo.DeleteOlderThan(now.Add(-5 * time.Minute))
	require.ElementsMatch(t, []string{"stale", "running"}, removed, "eviction ignores status")
	require.Equal(t, 1, repo.Len())

	_, ok := repo.Get("fresh")
	require.True(t, ok)
}
