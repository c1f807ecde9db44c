package indexer

import (
	"context"
	"fmt"

	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/domain/docModel"
	"github.com/anvikal/askapi/internal/metrics"
	"github.com/anvikal/askapi/internal/rag/embedding"
	"github.com/anvikal/askapi/internal/rag/retriever"
	"github.com/anvikal/askapi/internal/rag/textcache"
	"github.com/anvikal/askapi/internal/rag/vectorDB"
	"github.com/anvikal/askapi/pkg/logger_i"
)

// Generator is the text-generation capability consumed on cache misses.
// The retry-wrapped llm.Gateway satisfies it.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// instructions are fixed per representation kind; the document content is
// appended to the instruction on each call.
var instructions = map[docModel.RepKind]string{
	docModel.RepSummary: "Summarize this API doc chunk in <=6 lines. " +
		"Focus on method/path, required parameters, and purpose:\n",
	docModel.RepHyde: "Generate 4 likely user questions about this API chunk (bulleted, concise):\n",
	docModel.RepExample: "From this API description, produce a minimal curl example if applicable. " +
		"Include method, path, required params, and a placeholder base URL if absent. " +
		"If no HTTP call is relevant, return 'N/A'.\n",
}

// CollectionName scopes the vector collection, the doc store namespace and
// the derived-text cache files to one API + spec fingerprint.
func CollectionName(apiName string, specHash string) string {
	return fmt.Sprintf("%s_%s_%s", config.CollectionPrefix, apiName, specHash)
}

type Indexer struct {
	index     vectorDB.DataProcessor
	docStore  docModel.DocStore
	embedder  embedding.Embedder
	generator Generator
	cacheDir  string
	flush     textcache.FlushPolicy
	logger    *logger_i.Logger
}

func New(index vectorDB.DataProcessor, docStore docModel.DocStore, embedder embedding.Embedder, generator Generator) *Indexer {
	return &Indexer{
		index:     index,
		docStore:  docStore,
		embedder:  embedder,
		generator: generator,
		cacheDir:  config.CacheDir,
		flush:     textcache.FlushEndOfRun,
		logger:    logger_i.NewLogger("Indexer"),
	}
}

// WithCacheDir overrides the cache directory, mainly for tests.
func (ix *Indexer) WithCacheDir(dir string) *Indexer {
	ix.cacheDir = dir
	return ix
}

func (ix *Indexer) WithFlushPolicy(policy textcache.FlushPolicy) *Indexer {
	ix.flush = policy
	return ix
}

// Index runs the idempotent pipeline over a build sequence of documents:
// every document is written to the document store under its base id, and
// each of its three representations is generated (cache first) unless the
// index already holds it; the missing ones are embedded together in one
// batch call and upserted.
// The index presence check wins over the cache when deciding to skip, so
// a lost cache file never causes duplicate index entries. All three cache
// mappings are persisted once after the full run; a generation failure
// aborts the run, keeping committed store/index writes but discarding
// unflushed cache additions.
func (ix *Indexer) Index(ctx context.Context, documents []docModel.Document, apiName string, specHash string) (*retriever.MultiVector, docModel.DocStore, error) {
	collection := CollectionName(apiName, specHash)
	log := ix.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "collection", collection)
	log.Info("Indexing documents", "count", len(documents))

	if err := ix.index.CreateCollection(ctx, collection); err != nil {
		return nil, nil, fmt.Errorf("creating collection %s: %w", collection, err)
	}

	cache, err := textcache.Open(ix.cacheDir, collection)
	if err != nil {
		return nil, nil, err
	}

	existing, err := ix.index.ListAllIDs(ctx, collection)
	if err != nil {
		return nil, nil, fmt.Errorf("listing existing index ids: %w", err)
	}

	for i, doc := range documents {
		baseID := BaseID(doc, i)
		log.Debug("Indexing document", "ordinal", i, "baseId", baseID, "kind", string(doc.Kind))

		if err := ix.docStore.Put(ctx, collection, baseID, doc); err != nil {
			return nil, nil, fmt.Errorf("storing document %s: %w", baseID, err)
		}
		metrics.IncrementDocumentsIndexed()

		var pending []vectorDB.IndexEntry
		var texts []string
		for _, kind := range docModel.RepKinds {
			childID := ChildID(baseID, kind)
			if _, ok := existing[childID]; ok {
				log.Debug("Skipping existing representation", "childId", childID)
				metrics.IncrementExistenceSkips()
				continue
			}

			text, err := ix.deriveText(ctx, cache, kind, baseID, doc)
			if err != nil {
				return nil, nil, err
			}

			payload := map[string]any{
				"doc_id": baseID,
				"kind":   string(doc.Kind),
			}
			for k, v := range doc.Metadata {
				payload[k] = v
			}

			pending = append(pending, vectorDB.IndexEntry{ChildID: childID, Text: text, Payload: payload})
			texts = append(texts, text)
		}

		if len(pending) > 0 {
			vectors, err := ix.embedder.BatchEmbedding(ctx, texts)
			if err != nil {
				return nil, nil, fmt.Errorf("embedding representations of %s: %w", baseID, err)
			}
			if len(vectors) != len(pending) {
				return nil, nil, fmt.Errorf("embedding representations of %s: got %d vectors for %d texts", baseID, len(vectors), len(pending))
			}
			if err := ix.index.AddTexts(ctx, collection, pending, vectors); err != nil {
				return nil, nil, fmt.Errorf("indexing representations of %s: %w", baseID, err)
			}
		}

		if ix.flush == textcache.FlushPerDocument {
			if err := cache.Flush(); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := cache.Flush(); err != nil {
		return nil, nil, err
	}

	log.Info("Finished indexing", "total_docs", len(documents))
	ret := retriever.New(ix.index, ix.docStore, ix.embedder, collection, config.RetrievalLimit)
	return ret, ix.docStore, nil
}

func (ix *Indexer) deriveText(ctx context.Context, cache *textcache.Cache, kind docModel.RepKind, baseID string, doc docModel.Document) (string, error) {
	if text, ok := cache.Get(kind, baseID); ok {
		metrics.IncrementDerivedCacheHits(string(kind))
		return text, nil
	}

	text, err := ix.generator.Complete(ctx, instructions[kind]+doc.Content)
	if err != nil {
		return "", fmt.Errorf("generating %s for %s: %w", kind, baseID, err)
	}
	metrics.IncrementGenerationCalls(string(kind))
	cache.Put(kind, baseID, text)
	return text, nil
}
