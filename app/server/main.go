package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/PeriniM/realtime-api-langgraph/config"
	"github.com/PeriniM/realtime-api-langgraph/internal/api/handlers"
	"github.com/PeriniM/realtime-api-langgraph/internal/api/middleware"
	"github.com/PeriniM/realtime-api-langgraph/internal/api/routes"
	"github.com/PeriniM/realtime-api-langgraph/internal/background"
	"github.com/PeriniM/realtime-api-langgraph/internal/cache"
	"github.com/PeriniM/realtime-api-langgraph/internal/logger"
	"github.com/PeriniM/realtime-api-langgraph/internal/memory"
	"github.com/PeriniM/realtime-api-langgraph/internal/providers/llm"
	"github.com/PeriniM/realtime-api-langgraph/internal/providers/stt"
	memrepo "github.com/PeriniM/realtime-api-langgraph/internal/repositories/memory"
	mongorepo "github.com/PeriniM/realtime-api-langgraph/internal/repositories/mongo"
	pgrepo "github.com/PeriniM/realtime-api-langgraph/internal/repositories/postgres"
	"github.com/PeriniM/realtime-api-langgraph/internal/services"
	"github.com/PeriniM/realtime-api-langgraph/internal/storage"
	"github.com/PeriniM/realtime-api-langgraph/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()
	ctx := context.Background()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	l.Info("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	rtCfg, err := config.Realtime()
	if err != nil {
		log.Fatalf("Realtime config error: %v", err)
	}
	bg := config.Background()

	// Reasoning providers: same model family, different framing
	projectID := os.Getenv("VERTEX_PROJECT_ID")
	location := os.Getenv("VERTEX_LOCATION")
	modelName := os.Getenv("VERTEX_MODEL")
	if location == "" {
		location = "us-central1"
	}

	analystLLM, err := llm.NewVertexGemini(ctx, projectID, location, modelName, llm.AnalystPreamble)
	if err != nil {
		log.Fatalf("Vertex analyst init error: %v", err)
	}
	defer analystLLM.Close()

	chatLLM, err := llm.NewVertexGemini(ctx, projectID, location, modelName, llm.ChatPreamble)
	if err != nil {
		log.Fatalf("Vertex chat init error: %v", err)
	}
	defer chatLLM.Close()

	speech, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		log.Fatalf("Speech init error: %v", err)
	}
	defer speech.Close()

	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		log.Fatalf("GCS_BUCKET environment variable is not set")
	}
	uploader, err := storage.NewGCSUploader(ctx, bucket)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}
	defer uploader.Close()

	// Repositories
	taskRepo := memrepo.NewTaskRepo()
	sessionRepo := mongorepo.NewSessionRepo(config.MongoDatabase())
	convoRepo := pgrepo.NewConversationRepo(config.PostgresDB)

	// Services
	taskSvc := services.NewTaskService(taskRepo, l)
	sessionSvc := services.NewSessionService(sessionRepo, cache.NewRedisCache(config.RedisClient))
	convoSvc := services.NewConversationService(convoRepo)

	// Background analysis pipeline
	analystMemory := memory.NewRedisMemory(config.RedisClient, 0)
	worker := &workers.AnalysisWorker{
		Tasks:  taskSvc,
		LLM:    analystLLM,
		Memory: analystMemory,
		Logger: l,
	}

	// App-level reaper keeps the shared task store bounded across sessions
	reaper := background.NewTurnCoordinator(taskSvc, worker, background.NewResultBuffer(), l)
	reaper.StartReaper(ctx, bg.ReapInterval, bg.TaskMaxAge)

	// Handlers
	sessionH := handlers.NewSessionHandler(sessionSvc, convoSvc, uploader)
	convoH := handlers.NewConversationHandler(convoSvc)
	taskH := handlers.NewTaskHandler(taskSvc, worker, bg.TaskMaxAge)
	noteH := handlers.NewVoiceNoteHandler(sessionSvc, convoSvc, taskSvc, worker, speech)
	wsH := handlers.NewWSHandler(sessionSvc, convoSvc, taskSvc, worker, chatLLM, rtCfg, bg.PollInterval, l)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Session:      sessionH,
		Conversation: convoH,
		Task:         taskH,
		VoiceNote:    noteH,
		WS:           wsH,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	l.WithField("port", port).Info("server starting")
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
