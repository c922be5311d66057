package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//semantic answer cache
	CacheCollectionName           = "semantic_cache"
	CacheSimilarityCutoff float32 = 0.97

	//TODO:this will differ based on the embedding provider
	EmbeddingOutputDimensionality int32 = 1536

	//collections are partitioned per indexed drive folder: <prefix>_<folderId>
	CollectionPrefix = "drive"

	//chunking
	ChunkSizeLimit    = 1000 //characters, non tabular
	ChunkOverlap      = 150  //generous overlap helps semantic continuity
	TabularChunkLimit = 4000 //bytes of row data per tabular chunk

	//vector store batching
	UpsertBatchSize  = 100
	ScrollBatchSize  = 256
	HugeDataSetFloor = 1000000 //above this chunk count we use the async batch embedding API

	//retrieval
	SearchTopK = 3

	//reindex walks a whole drive folder, so its jobs get a much longer leash
	//than query/ingest jobs
	ReindexJobTimeout = 15 * time.Minute

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = ""
	QdrantPort              = 6333 //http
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1 //2-5 is preferred for prod according to documentation

	//chromem (local embedded vector store, the default)
	ChromemPath     = "./vector_data"
	ChromemCompress = false

	//llm
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIEmbeddingModel = "text-embedding-3-small"

	ModelTemperature float32 = 0.7
	ModelContext             = "You are a helpful assistant answering questions about indexed documents. Answer only from the provided context. If the context does not contain the answer, say you don't know."

	//drive
	DriveMaxExportSize = 5 * 1024 * 1024 //per exported/downloaded file
	DrivePageSize      = 100

	//index registry (the single source of truth for folderId -> name)
	RegistryPath = "./index_registry.json"

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort
	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisMessageStore = 1
	RedisPassword     = ""

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	RedisMessageStoreTTL = 24 * time.Hour
)

// env backed values - secrets never live in the repo
func GoogleAPIKey() string { return os.Getenv("GOOGLE_API_KEY") }
func OpenAIAPIKey() string { return os.Getenv("OPENAI_API_KEY") }
func AuthToken() string    { return os.Getenv("API_AUTH_TOKEN") }

// NoAuthBypass is only for local development.
func NoAuthBypass() bool { return os.Getenv("NO_AUTH_BYPASS") == "1" }

// VectorStoreKind selects the store backend: "chromem" (default) or "qdrant".
func VectorStoreKind() string {
	if v := os.Getenv("VECTOR_STORE"); v != "" {
		return v
	}
	return "chromem"
}

// EmbeddingProvider selects "google" (default) or "openai".
func EmbeddingProvider() string {
	if v := os.Getenv("EMBEDDING_PROVIDER"); v != "" {
		return v
	}
	return "google"
}

// DefaultFolderID is the drive folder queried when a chat request does not
// name one.
func DefaultFolderID() string { return os.Getenv("DRIVE_DEFAULT_FOLDER_ID") }

// CollectionName maps a drive folder to its vector store collection.
func CollectionName(folderID string) string {
	return CollectionPrefix + "_" + folderID
}
