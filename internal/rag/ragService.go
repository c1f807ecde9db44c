package rag

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/anvikal/askapi/internal/adapter/utils"
	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/domain/docModel"
	"github.com/anvikal/askapi/internal/domain/jobModel"
	"github.com/anvikal/askapi/internal/metrics"
	"github.com/anvikal/askapi/internal/rag/builder"
	"github.com/anvikal/askapi/internal/rag/embedding"
	"github.com/anvikal/askapi/internal/rag/indexer"
	"github.com/anvikal/askapi/internal/rag/ingest"
	"github.com/anvikal/askapi/internal/rag/llm"
	"github.com/anvikal/askapi/internal/rag/retriever"
	"github.com/anvikal/askapi/internal/rag/vectorDB"
	"github.com/anvikal/askapi/internal/spec"
	"github.com/anvikal/askapi/pkg/logger_i"
)

// Service is the only surface the worker sees; it hides the vector
// database, the LLM provider and the indexing pipeline behind job-shaped
// operations.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job, messageHistory []string) jobModel.Job
	IngestSpec(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestNote(ctx context.Context, job jobModel.Job) jobModel.Job
	ActivateSpec(ctx context.Context, path string, validate bool) (int, error)
}

type service struct {
	vectorDB    vectorDB.DataProcessor
	llmProvider llm.Provider
	embedder    embedding.Embedder
	indexer     *indexer.Indexer
	logger      *logger_i.Logger

	mu        sync.RWMutex
	retriever *retriever.MultiVector
	apiName   string
	specHash  string
}

// NewService constructor
func NewService(vector vectorDB.DataProcessor, provider llm.Provider, em embedding.Embedder, ix *indexer.Indexer) Service {
	return &service{
		vectorDB:    vector,
		llmProvider: provider,
		embedder:    em,
		indexer:     ix,
		logger:      logger_i.NewLogger("RAG Service :"),
	}
}

func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job, messageHistory []string) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY).(string), "JobId", jobt.Id)

	processContext, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	jobt.CurrentStep = jobModel.RAGCall

	ret := s.activeRetriever()
	if ret == nil {
		return s.jobError(jobt, errors.New("no active collection"), "NO_SPEC_INGESTED", false)
	}

	// Embedding
	embeddingStep, err := s.executeEmbeddingStep(processContext, inMethodLogger, &jobt)
	if err != nil {
		return s.jobError(jobt, err, "EMBEDDING_FAILURE", true)
	}

	// Cache Check
	cachedAnswer, found := s.executeCacheCheckStep(ctx, inMethodLogger, &jobt, embeddingStep)
	if found {
		return returnOutput(jobt, cachedAnswer)
	}

	// Multi-vector retrieval
	docs, err := s.executeRetrievalStep(processContext, inMethodLogger, &jobt, ret)
	if err != nil {
		return s.jobError(jobt, err, "VECTOR_DB_FAILURE", true)
	}

	matches := make([]string, 0, len(docs))
	for _, doc := range docs {
		matches = append(matches, doc.Content)
	}

	// LLM Generation
	answer, err := s.executeLLMStep(processContext, inMethodLogger, &jobt, matches, messageHistory)
	if err != nil {
		return s.jobError(jobt, err, "LLM_GENERATION_FAILURE", true)
	}

	//Background Cache Save
	go func() {
		if err := s.vectorDB.SaveToCache(ctx, utils.GetNewUUID(), embeddingStep, answer); err != nil {
			s.logger.Error("Failed to save to cache")
		}
	}()

	return returnOutput(jobt, answer)
}

// IngestSpec builds and indexes the whole document set of an uploaded
// OpenAPI spec and makes its collection the active one.
func (s *service) IngestSpec(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("spec_ingestion", time.Since(start)) }()

	job.CurrentStep = jobModel.IngestBuilding
	count, err := s.ActivateSpec(ctx, job.JobPayload.SpecURL, true)
	if err != nil {
		return s.jobError(job, err, "SPEC_INGESTION_FAILURE", true)
	}

	if err := os.Remove(job.JobPayload.SpecURL); err != nil {
		s.logger.Error("Error removing uploaded spec file", "error", err)
	}

	job.JobPayload.DocumentCount = count
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	return job
}

// IngestNote indexes supplemental text or a document file into the active
// collection alongside the spec documents.
func (s *service) IngestNote(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("note_ingestion", time.Since(start)) }()

	s.mu.RLock()
	apiName, specHash := s.apiName, s.specHash
	s.mu.RUnlock()
	if apiName == "" {
		return s.jobError(job, errors.New("no active collection"), "NO_SPEC_INGESTED", false)
	}

	var docs []docModel.Document
	var err error
	if job.JobPayload.NoteText != "" {
		docs, err = ingest.FromText(job.JobPayload.NoteSource, job.JobPayload.NoteText)
	} else {
		docs, err = ingest.FromFile(job.JobPayload.NoteURL)
	}
	if err != nil {
		return s.jobError(job, err, "NOTE_EXTRACTION_FAILURE", false)
	}

	job.CurrentStep = jobModel.IngestIndexing
	ret, _, err := s.indexer.Index(ctx, docs, apiName, specHash)
	if err != nil {
		return s.jobError(job, err, "NOTE_INDEXING_FAILURE", true)
	}
	s.setActive(ret, apiName, specHash)

	if job.JobPayload.NoteURL != "" {
		if err := os.Remove(job.JobPayload.NoteURL); err != nil {
			s.logger.Error("Error removing uploaded note file", "error", err)
		}
	}

	job.JobPayload.DocumentCount = len(docs)
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	return job
}

// ActivateSpec loads a spec from disk, runs the indexing pipeline over its
// documents and swaps the active retriever. Re-activating the same spec is
// cheap: existing index entries are skipped.
func (s *service) ActivateSpec(ctx context.Context, path string, validate bool) (int, error) {
	doc, specHash, err := spec.Load(path, validate)
	if err != nil {
		return 0, err
	}

	apiName := spec.APIName(doc)
	docs := builder.BuildDocuments(doc, apiName, specHash)
	s.logger.Info("Built spec documents", "api", apiName, "hash", specHash, "documents", len(docs))

	ret, _, err := s.indexer.Index(ctx, docs, apiName, specHash)
	if err != nil {
		return 0, err
	}

	s.setActive(ret, apiName, specHash)
	return len(docs), nil
}

func (s *service) setActive(ret *retriever.MultiVector, apiName string, specHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retriever = ret
	s.apiName = apiName
	s.specHash = specHash
}

func (s *service) activeRetriever() *retriever.MultiVector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retriever
}
