package retriever

import (
	"context"
	"fmt"

	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/domain/docModel"
	"github.com/anvikal/askapi/internal/rag/embedding"
	"github.com/anvikal/askapi/internal/rag/vectorDB"
	"github.com/anvikal/askapi/pkg/logger_i"
)

// MultiVector retrieves over derived representations but answers with
// parent documents: the query is matched against summary/hyde/example
// vectors, matches are collapsed to their parent doc_id, and the parents
// are loaded from the document store in score order.
type MultiVector struct {
	index      vectorDB.DataProcessor
	store      docModel.DocStore
	embedder   embedding.Embedder
	collection string
	limit      uint64
	logger     *logger_i.Logger
}

func New(index vectorDB.DataProcessor, store docModel.DocStore, embedder embedding.Embedder, collection string, limit uint64) *MultiVector {
	return &MultiVector{
		index:      index,
		store:      store,
		embedder:   embedder,
		collection: collection,
		limit:      limit,
		logger:     logger_i.NewLogger("Retriever"),
	}
}

func (r *MultiVector) Collection() string {
	return r.collection
}

// Retrieve embeds the query and returns the deduplicated parent documents
// behind the top vector matches. Index entries whose parent is missing
// from the document store are dropped silently.
func (r *MultiVector) Retrieve(ctx context.Context, query string) ([]docModel.Document, error) {
	log := r.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "collection", r.collection)

	vector, err := r.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := r.index.Search(ctx, r.collection, vector, r.limit)
	if err != nil {
		return nil, fmt.Errorf("searching collection %s: %w", r.collection, err)
	}

	seen := make(map[string]struct{}, len(matches))
	docIDs := make([]string, 0, len(matches))
	for _, match := range matches {
		if match.DocID == "" {
			continue
		}
		if _, ok := seen[match.DocID]; ok {
			continue
		}
		seen[match.DocID] = struct{}{}
		docIDs = append(docIDs, match.DocID)
	}
	log.Debug("Vector matches collapsed", "matches", len(matches), "parents", len(docIDs))

	docs, err := r.store.GetMany(ctx, r.collection, docIDs)
	if err != nil {
		return nil, fmt.Errorf("loading parent documents: %w", err)
	}
	return docs, nil
}
