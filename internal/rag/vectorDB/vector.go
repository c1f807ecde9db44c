package vectorDB

import "context"

// IndexEntry is one embedded representation: the derived text plus the
// payload that back-references the owning parent document.
type IndexEntry struct {
	ChildID string
	Text    string
	Payload map[string]any
}

// Match is a similarity hit resolved from the index at query time.
type Match struct {
	ChildID string
	DocID   string
	Text    string
	Score   float32
	Payload map[string]string
}

type DataProcessor interface {
	CreateCollection(ctx context.Context, collectionName string) error
	AddTexts(ctx context.Context, collectionName string, entries []IndexEntry, vectors [][]float32) error

	// ListAllIDs enumerates every child id currently stored, paginating
	// through the collection so callers can build an existence set once
	// per run instead of probing per id.
	ListAllIDs(ctx context.Context, collectionName string) (map[string]struct{}, error)

	Search(ctx context.Context, collectionName string, vectorVal []float32, limit uint64) ([]Match, error)

	//semantic answer cache
	GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error)
	SaveToCache(ctx context.Context, id string, vector []float32, answer string) error
}
