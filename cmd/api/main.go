// @title           Drive Q&A API
// @version         1.0
// @description     Asynchronous question answering over indexed Google Drive folders
// @termsOfService  http://swagger.io/terms/

// @contact.name    me lol
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/data/store"
	jobmodel "github.com/akolanti/driveqa/internal/domain/jobModel"
	"github.com/akolanti/driveqa/internal/drive"
	"github.com/akolanti/driveqa/internal/handlers"
	"github.com/akolanti/driveqa/internal/job"
	"github.com/akolanti/driveqa/internal/mcpserver"
	"github.com/akolanti/driveqa/internal/rag"
	"github.com/akolanti/driveqa/internal/rag/embedding"
	"github.com/akolanti/driveqa/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/driveqa/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/driveqa/internal/rag/llm/gemini"
	"github.com/akolanti/driveqa/internal/rag/vectorDB"
	"github.com/akolanti/driveqa/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/driveqa/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/driveqa/internal/registry"
	"github.com/akolanti/driveqa/internal/server"
	"github.com/akolanti/driveqa/internal/worker"
	"github.com/akolanti/driveqa/pkg/logger_i"
)

var (
	listenAddr        string
	mcpMode           bool
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.BoolVar(&mcpMode, "mcp", false, "serve MCP over stdio instead of HTTP")
	flag.Parse()

	if mcpMode {
		logger_i.InitStderr() //stdout belongs to the MCP transport
	} else {
		logger_i.Init()
	}
	var logger = logger_i.NewLogger("main")

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	ragService := buildRagService(serviceContext, logger)
	if ragService == nil {
		return
	}

	if mcpMode {
		//stdio surface for editors and agents - shares the pipeline with HTTP
		if err := mcpserver.NewServer(ragService).Run(serviceContext); err != nil {
			logger.Error("MCP server stopped", "err", err)
		}
		return
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}
	logger.Info("Starting job service")

	//check the concrete pointers - a typed nil inside the interface would
	//slip past a plain interface nil check
	jobStore := store.GetRedisJobStore(serviceContext)
	messageStore := store.GetRedisMessageStore(serviceContext)
	if jobStore == nil || messageStore == nil {
		logger.Error("Redis stores are offline")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.MessageStore = store.InitMessageStore()
	} else {
		serviceConfig.JobStore = jobStore
		serviceConfig.MessageStore = messageStore
	}
	service := job.InitJobService(serviceConfig)

	handlers.InitJobHandler(service, indexRegistry)

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

// indexRegistry is shared between the rag service (reindex jobs write it) and
// the /indexes handler (reads it).
var indexRegistry *registry.Registry

func buildRagService(ctx context.Context, logger *logger_i.Logger) rag.Service {
	var err error

	var vecStore vectorDB.DataProcessor
	switch config.VectorStoreKind() {
	case "qdrant":
		vecStore, err = qdrantDB.NewStore(ctx)
	default:
		vecStore, err = chromemDB.NewStore(config.ChromemPath, config.ChromemCompress)
	}
	if err != nil {
		logger.Error("Vector store failed to initialize. Shutting down.", "err", err)
		return nil
	}

	var embedder embedding.Embedder
	switch config.EmbeddingProvider() {
	case "openai":
		embedder, err = openaiEmbedding.NewClient(config.OpenAIEmbeddingModel, config.OpenAIAPIKey())
	default:
		embedder, err = googleEmbedding.NewClient(ctx, config.GoogleEmbeddingModel, config.GoogleAPIKey())
	}
	if err != nil {
		logger.Error("Embedding client failed to initialize. Shutting down.", "err", err)
		return nil
	}

	llmProvider, err := gemini.NewClient(ctx, config.GeminiModelName, config.GoogleAPIKey())
	if err != nil {
		logger.Error("LLM client failed to initialize. Shutting down.", "err", err)
		return nil
	}

	//drive access is optional - without it queries and uploads still work,
	//only folder reindexing is disabled
	driveConn, err := drive.NewConnector(ctx, config.GoogleAPIKey())
	if err != nil {
		logger.Warn("Drive connector unavailable - folder reindexing disabled", "err", err)
		driveConn = nil
	}

	indexRegistry, err = registry.Load(config.RegistryPath)
	if err != nil {
		logger.Error("Index registry failed to load. Shutting down.", "err", err)
		return nil
	}

	return rag.NewService(vecStore, llmProvider, embedder, driveConn, indexRegistry)
}
