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

	//auth - bearer token plumbing, not a tenant model
	NoAuthBypass = true
	AuthToken    = ""

	//collections and caches are scoped as <prefix>_<apiName>_<specHash>
	CollectionPrefix = "openapi_vectors"
	CacheDir         = "cache"

	//semantic answer cache
	CacheSimilarityCutoff = 0.97

	EmbeddingOutputDimensionality int32 = 1536

	//generation retry bounds
	GenerationMaxAttempts uint64 = 3
	GenerationMinWait            = 1 * time.Second
	GenerationMaxWait            = 10 * time.Second

	//retrieval
	RetrievalLimit = 4

	//note ingestion
	MaxLearnChars = 50_000
	NoteChunkSize = 1000
	NoteOverlap   = 150

	//spec/note indexing jobs make many upstream calls
	IngestJobTimeout = 15 * time.Minute

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
	QdrantHost         = ""
	QdrantGrpcPort     = 6334
	QdrantUseTLS       = false //set for https
	QdrantPoolSize     = 1     //2-5 is preferred for prod according to documentation
	QdrantListPageSize = 5000  //existence-set scroll page size
	QdrantUpsertWait   = true

	//llm
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIModelDefault   = "gpt-4o-mini"

	ModelContext = "You are an API documentation assistant. Answer strictly using the provided API docs. " +
		"Always include: 1) Method & path 2) Required params (name, in, type) 3) Example curl (with base URL if present). " +
		"If uncertain, say so and propose how to verify. Cite sources as (METHOD PATH/status) when relevant."

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisMessageStore = 1
	RedisDocStore     = 2

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	RedisMessageStoreTTL = 24 * time.Hour
)

func GoogleAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func OpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func OpenAIModel() string {
	if m := os.Getenv("OPENAI_MODEL"); m != "" {
		return m
	}
	return OpenAIModelDefault
}
