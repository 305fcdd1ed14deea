package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PeriniM/realtime-api-langgraph/internal/memory"
	"github.com/PeriniM/realtime-api-langgraph/internal/models"
	memrepo "github.com/PeriniM/realtime-api-langgraph/internal/repositories/memory"
	"github.com/PeriniM/realtime-api-langgraph/internal/services"
)

type fakeLLM struct {
	mu      sync.Mutex
	chunks  []string
	err     error
	prompts []string
}

func (f *fakeLLM) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	out := make(chan string, len(f.chunks))
	errs := make(chan error, 1)
	for _, c := range f.chunks {
		out <- c
	}
	if f.err != nil {
		errs <- f.err
	}
	close(out)
	close(errs)
	return out, errs
}

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func newWorker(llm *fakeLLM) (*AnalysisWorker, services.TaskService, *memory.InMem) {
	tasks := services.NewTaskService(memrepo.NewTaskRepo(), nil)
	mem := memory.NewInMem()
	w := &AnalysisWorker{Tasks: tasks, LLM: llm, Memory: mem}
	return w, tasks, mem
}

func TestAnalysisWorkerCompletesTask(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"analysis ", "A"}}
	w, tasks, mem := newWorker(llm)

	turn := models.ConversationTurn{UserText: "hello", AssistantText: "hi there", Timestamp: time.Now()}
	taskID := tasks.Create(turn)

	w.Run(context.Background(), taskID, turn)

	task := tasks.Get(taskID)
	require.Equal(t, models.TaskCompleted, task.Status)
	require.NotNil(t, task.Result)
	require.Equal(t, "conversation_analysis", task.Result.Action)
	require.Equal(t, "analysis A", task.Result.Message)
	require.Equal(t, "hello", task.Result.SourceTurn)
	require.False(t, task.Result.Timestamp.IsZero())

	require.Contains(t, llm.lastPrompt(), `User: "hello"`)
	require.Contains(t, llm.lastPrompt(), `AI: "hi there"`)
	require.Contains(t, llm.lastPrompt(), "Please analyze this turn.")

	// both the turn note and the analysis land in analyst memory
	history, err := mem.History(context.Background(), memory.DefaultThreadID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "user", history[0].Role)
	require.Equal(t, "assistant", history[1].Role)
	require.Equal(t, "analysis A", history[1].Content)
}

func TestAnalysisWorkerRecordsFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("timeout")}
	w, tasks, _ := newWorker(llm)

	turn := models.ConversationTurn{UserText: "hello"}
	taskID := tasks.Create(turn)

	w.Run(context.Background(), taskID, turn)

	task := tasks.Get(taskID)
	require.Equal(t, models.TaskError, task.Status)
	require.Equal(t, "timeout", task.Error)
	require.Nil(t, task.Result)
}

func TestAnalysisWorkerFeedsHistoryIntoPrompt(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"first analysis"}}
	w, tasks, _ := newWorker(llm)

	turnOne := models.ConversationTurn{UserText: "first", AssistantText: "one"}
	w.Run(context.Background(), tasks.Create(turnOne), turnOne)

	llm.chunks = []string{"second analysis"}
	turnTwo := models.ConversationTurn{UserText: "second", AssistantText: "two"}
	w.Run(context.Background(), tasks.Create(turnTwo), turnTwo)

	prompt := llm.lastPrompt()
	require.Contains(t, prompt, "Conversation so far:")
	require.Contains(t, prompt, `User: "first"`)
	require.Contains(t, prompt, "first analysis")
	require.Contains(t, prompt, `User: "second"`)
}
