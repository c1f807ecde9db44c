package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/data/store"
	"github.com/anvikal/askapi/internal/domain/docModel"
	jobmodel "github.com/anvikal/askapi/internal/domain/jobModel"
	"github.com/anvikal/askapi/internal/handlers"
	"github.com/anvikal/askapi/internal/job"
	"github.com/anvikal/askapi/internal/rag"
	"github.com/anvikal/askapi/internal/rag/embedding/googleEmbedding"
	"github.com/anvikal/askapi/internal/rag/indexer"
	"github.com/anvikal/askapi/internal/rag/llm"
	"github.com/anvikal/askapi/internal/rag/llm/gemini"
	"github.com/anvikal/askapi/internal/rag/llm/openai"
	"github.com/anvikal/askapi/internal/rag/vectorDB/qdrantDB"
	"github.com/anvikal/askapi/internal/server"
	"github.com/anvikal/askapi/internal/worker"
	"github.com/anvikal/askapi/pkg/logger_i"
)

var (
	listenAddr        string
	specPath          string
	noValidate        bool
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err)
	}

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&specPath, "spec", "", "OpenAPI spec to index on startup (json/yaml)")
	flag.BoolVar(&noValidate, "no-validate", false, "skip structural validation of the startup spec")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}
	logger.Info("Starting job service")

	redisJobs := store.GetRedisJobStore(serviceContext)
	redisMessages := store.GetRedisMessageStore(serviceContext)
	if redisJobs == nil || redisMessages == nil {
		logger.Error("Redis stores are offline")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.MessageStore = store.InitMessageStore()
	} else {
		serviceConfig.JobStore = redisJobs
		serviceConfig.MessageStore = redisMessages
	}
	service := job.InitJobService(serviceConfig)

	var docStore docModel.DocStore
	if redisDocs := store.GetRedisDocStore(serviceContext); redisDocs != nil {
		docStore = redisDocs
	} else {
		logger.Error("Redis doc store is offline")
		docStore = store.InitInMemoryDocStore()
	}

	vectorDB := qdrantDB.GetQuadrantClient(serviceContext)
	embeddingService := googleEmbedding.GetGoogleEmbeddingClient(serviceContext, config.GoogleEmbeddingModel, config.GoogleAPIKey())
	llmProvider := selectProvider(serviceContext, logger)

	if vectorDB == nil || embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "VectorDB", vectorDB != nil, "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	gateway := llm.NewGateway(llmProvider, llm.DefaultRetryPolicy())
	indexingPipeline := indexer.New(vectorDB, docStore, embeddingService, gateway)
	ragService := rag.NewService(vectorDB, llmProvider, embeddingService, indexingPipeline)

	if specPath != "" {
		count, err := ragService.ActivateSpec(serviceContext, specPath, !noValidate)
		if err != nil {
			logger.Error("Failed to index startup spec. Shutting down.", "spec", specPath, "error", err)
			return
		}
		logger.Info("Startup spec indexed", "spec", specPath, "documents", count)
	}

	handlers.InitJobHandler(service)

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

// selectProvider prefers OpenAI when its key is present, falling back to
// Gemini which shares the key with the embedding model.
func selectProvider(ctx context.Context, logger *logger_i.Logger) llm.Provider {
	if key := config.OpenAIKey(); key != "" {
		logger.Info("Using OpenAI chat provider", "model", config.OpenAIModel())
		return openai.GetOpenAIClient(ctx, key, config.OpenAIModel())
	}
	logger.Warn("OPENAI_API_KEY not set, using Gemini chat provider", "model", config.GeminiModelName)
	return gemini.GetGeminiClient(ctx, config.GoogleAPIKey(), config.GeminiModelName)
}
