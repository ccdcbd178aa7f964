// @title Queryly API
// @version 1.0
// @description SQL learning assistant: quizzes, natural-language to SQL, and questions about your documents.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /
// @schemes http https
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"queryly/internal/adapter"
	"queryly/internal/adapter/agent"
	"queryly/internal/adapter/embedding"
	"queryly/internal/adapter/ingest"
	"queryly/internal/adapter/llm"
	"queryly/internal/adapter/quizgen"
	"queryly/internal/adapter/retrieval"
	"queryly/internal/adapter/sqlgen"
	"queryly/internal/cache"
	"queryly/internal/config"
	"queryly/internal/database"
	"queryly/internal/domain"
	"queryly/internal/handler"
	"queryly/internal/logger"
	"queryly/internal/repository"
	"queryly/internal/service"
	"queryly/internal/validation"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	if err := ingest.ConfigureLicense(cfg.Upload.UniDocLicenseKey); err != nil {
		appLogger.Warn("unioffice license not configured; .docx uploads will fail", zap.Error(err))
	}

	models, err := llm.NewModels(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM clients", zap.Error(err))
	}
	appLogger.Info("LLM clients initialized", zap.String("provider", cfg.LLM.Provider))

	embeddingCache, err := newEmbeddingCache(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize embedding cache", zap.Error(err))
	}
	embeddingTTL := cfg.ParseTTLStringOrDefault(cfg.CacheTTLs.Embedding, 7*24*time.Hour)
	embeddingService, err := embedding.NewEmbeddingService(cfg.Embedding, cfg.LLM.Timeout, embeddingCache, embeddingTTL)
	if err != nil {
		appLogger.Fatal("Failed to create embedding service", zap.Error(err))
	}
	appLogger.Info("Embedding service initialized", zap.String("source", cfg.Embedding.Source), zap.String("cache", cfg.Embedding.Cache))

	synthesizer, err := quizgen.NewSynthesizer(models.Quiz, cfg.LLM.QuizTemperature)
	if err != nil {
		appLogger.Fatal("Failed to create quiz synthesizer", zap.Error(err))
	}
	tools := agent.NewToolset(
		synthesizer,
		sqlgen.NewTranslator(models.SQL),
		retrieval.NewAnswerer(models.RAG, embeddingService, cfg.Retrieval),
	)
	selector := agent.NewLLMSelector(models.Router)
	router := agent.NewRouter(selector, selector, tools)

	historyRepo, err := newHistoryRepository(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to open conversation store", zap.Error(err))
	}
	appLogger.Info("Conversation store ready", zap.String("driver", cfg.History.Driver))

	chatService := service.NewChatService(ingest.NewDocumentIngestor(cfg.Upload), router, historyRepo, cfg.History.ContextMessages)
	chatHandler := handler.NewChatHandler(chatService, validation.NewValidator(cfg.Upload.MaxBytes))

	app := newApp(cfg.Server, chatHandler)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := historyRepo.Close(shutdownCtx); err != nil {
		appLogger.Error("Failed to close conversation store", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}

// newEmbeddingCache returns nil when caching is disabled.
func newEmbeddingCache(ctx context.Context, cfg *config.Config) (domain.Cache, error) {
	switch cfg.Embedding.Cache {
	case "memory":
		return adapter.NewMemoryCacheAdapter(10 * time.Minute), nil
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Get().Info("Successfully connected to Redis")
		return adapter.NewRedisCacheAdapter(client), nil
	default:
		return nil, nil
	}
}

func newHistoryRepository(ctx context.Context, cfg *config.Config) (domain.ConversationRepository, error) {
	switch cfg.History.Driver {
	case "mongo":
		client, err := repository.NewMongoClient(ctx, cfg.History.Mongo)
		if err != nil {
			return nil, err
		}
		coll := client.Database(cfg.History.Mongo.Database).Collection(cfg.History.Mongo.Collection)
		return repository.NewMongoHistoryRepository(client, coll), nil
	case "oracle":
		db, err := database.NewSQLXOracleDB(ctx, cfg.GetDSN())
		if err != nil {
			return nil, err
		}
		return repository.NewSQLHistoryRepository(db), nil
	case "bolt":
		return repository.NewBoltHistoryRepository(cfg.History.Bolt.Path)
	default:
		return nil, fmt.Errorf("unsupported history driver: %q", cfg.History.Driver)
	}
}
