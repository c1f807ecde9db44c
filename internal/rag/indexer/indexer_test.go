package indexer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/anvikal/askapi/internal/domain/docModel"
	"github.com/anvikal/askapi/internal/rag/textcache"
	"github.com/anvikal/askapi/internal/rag/vectorDB"
)

type mockIndex struct {
	existing map[string]struct{}
	upserts  []vectorDB.IndexEntry
}

func (m *mockIndex) CreateCollection(ctx context.Context, name string) error { return nil }

func (m *mockIndex) AddTexts(ctx context.Context, name string, entries []vectorDB.IndexEntry, vectors [][]float32) error {
	m.upserts = append(m.upserts, entries...)
	return nil
}

func (m *mockIndex) ListAllIDs(ctx context.Context, name string) (map[string]struct{}, error) {
	if m.existing == nil {
		return map[string]struct{}{}, nil
	}
	return m.existing, nil
}

func (m *mockIndex) Search(ctx context.Context, name string, v []float32, limit uint64) ([]vectorDB.Match, error) {
	return nil, nil
}

func (m *mockIndex) GetCachedAnswer(ctx context.Context, v []float32) (string, bool, error) {
	return "", false, nil
}

func (m *mockIndex) SaveToCache(ctx context.Context, id string, v []float32, a string) error {
	return nil
}

type mockStore struct {
	docs map[string]docModel.Document
}

func (m *mockStore) Put(ctx context.Context, collection string, id string, doc docModel.Document) error {
	if m.docs == nil {
		m.docs = make(map[string]docModel.Document)
	}
	m.docs[id] = doc
	return nil
}

func (m *mockStore) GetMany(ctx context.Context, collection string, ids []string) ([]docModel.Document, error) {
	return nil, nil
}

type mockEmbedder struct {
	calls      int // single-text calls
	batchCalls int
	batchSizes []int
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	return []float32{0.1, 0.2}, nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(texts))
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

type mockGen struct {
	calls  int
	failAt int // 0 means never fail
}

func (m *mockGen) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.failAt > 0 && m.calls >= m.failAt {
		return "", errors.New("generation unavailable")
	}
	return fmt.Sprintf("generated %d", m.calls), nil
}

func testDocs() []docModel.Document {
	return []docModel.Document{
		{
			Content:  "OPERATION: GET /pets",
			Kind:     docModel.KindOperation,
			Metadata: docModel.Metadata{"operationId": "listPets", "path": "/pets"},
		},
		{
			Content:  "SCHEMA\nname: Pet",
			Kind:     docModel.KindSchema,
			Metadata: docModel.Metadata{"schema_name": "Pet"},
		},
	}
}

func newTestIndexer(t *testing.T, index *mockIndex, gen *mockGen) (*Indexer, *mockStore, *mockEmbedder, string) {
	t.Helper()
	store := &mockStore{}
	embedder := &mockEmbedder{}
	dir := t.TempDir()
	ix := New(index, store, embedder, gen).WithCacheDir(dir)
	return ix, store, embedder, dir
}

func TestIndex_FreshRun(t *testing.T) {
	index := &mockIndex{}
	gen := &mockGen{}
	ix, store, embedder, _ := newTestIndexer(t, index, gen)

	ret, _, err := ix.Index(context.Background(), testDocs(), "pets", "abc123def456")
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if ret == nil {
		t.Fatal("Expected a retriever for the indexed collection")
	}
	if got := ret.Collection(); got != "openapi_vectors_pets_abc123def456" {
		t.Errorf("Collection name got %q", got)
	}

	if len(store.docs) != 2 {
		t.Errorf("Doc store holds %d parents, want 2", len(store.docs))
	}
	if gen.calls != 6 {
		t.Errorf("Generator called %d times, want 6 (three per document)", gen.calls)
	}
	if embedder.batchCalls != 2 {
		t.Errorf("Embedder batched %d times, want once per document", embedder.batchCalls)
	}
	if embedder.calls != 0 {
		t.Errorf("Embedder made %d single-text calls during indexing, want 0", embedder.calls)
	}
	if len(index.upserts) != 6 {
		t.Errorf("Index received %d entries, want 6", len(index.upserts))
	}

	// payload carries the parent id and the document kind
	for _, entry := range index.upserts {
		if entry.Payload["doc_id"] == "" {
			t.Errorf("Entry %s has no doc_id payload", entry.ChildID)
		}
	}
	first := index.upserts[0]
	if first.ChildID != "operation::listPets::0:summary" {
		t.Errorf("First child id got %q", first.ChildID)
	}
	if first.Payload["kind"] != "operation" {
		t.Errorf("Payload kind got %v, want operation", first.Payload["kind"])
	}
}

func TestIndex_ExistingEntriesSkipped(t *testing.T) {
	docs := testDocs()
	index := &mockIndex{existing: map[string]struct{}{}}
	for i, doc := range docs {
		for _, kind := range docModel.RepKinds {
			index.existing[ChildID(BaseID(doc, i), kind)] = struct{}{}
		}
	}
	gen := &mockGen{}
	ix, store, embedder, _ := newTestIndexer(t, index, gen)

	if _, _, err := ix.Index(context.Background(), docs, "pets", "abc123def456"); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	if gen.calls != 0 {
		t.Errorf("Generator called %d times on a fully indexed collection, want 0", gen.calls)
	}
	if embedder.batchCalls != 0 {
		t.Errorf("Embedder batched %d times, want 0", embedder.batchCalls)
	}
	if len(index.upserts) != 0 {
		t.Errorf("Index received %d upserts, want 0", len(index.upserts))
	}
	// parents are still (re)written so the doc store converges
	if len(store.docs) != 2 {
		t.Errorf("Doc store holds %d parents, want 2", len(store.docs))
	}
}

func TestIndex_BatchEmbedsMissingRepresentationsPerDocument(t *testing.T) {
	docs := testDocs()[:1]

	// one of the three representations is already indexed: the single
	// batch call covers exactly the two missing ones
	index := &mockIndex{existing: map[string]struct{}{
		ChildID(BaseID(docs[0], 0), docModel.RepSummary): {},
	}}
	gen := &mockGen{}
	ix, _, embedder, _ := newTestIndexer(t, index, gen)

	if _, _, err := ix.Index(context.Background(), docs, "pets", "abc123def456"); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	if embedder.batchCalls != 1 {
		t.Fatalf("Embedder batched %d times, want 1", embedder.batchCalls)
	}
	if embedder.batchSizes[0] != 2 {
		t.Errorf("Batch size got %d, want the 2 missing representations", embedder.batchSizes[0])
	}
	if len(index.upserts) != 2 {
		t.Errorf("Index received %d entries, want 2", len(index.upserts))
	}
	for _, entry := range index.upserts {
		if entry.ChildID == ChildID(BaseID(docs[0], 0), docModel.RepSummary) {
			t.Errorf("Already indexed representation %s was re-upserted", entry.ChildID)
		}
	}
}

func TestIndex_CachedTextReusedWithoutGeneration(t *testing.T) {
	docs := testDocs()

	// first run populates the cache
	firstGen := &mockGen{}
	firstIx, _, _, dir := newTestIndexer(t, &mockIndex{}, firstGen)
	if _, _, err := firstIx.Index(context.Background(), docs, "pets", "abc123def456"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// second run against an EMPTY index but the same cache dir: the index
	// must be rebuilt, the texts must come from the cache
	secondIndex := &mockIndex{}
	secondGen := &mockGen{}
	secondStore := &mockStore{}
	secondIx := New(secondIndex, secondStore, &mockEmbedder{}, secondGen).WithCacheDir(dir)

	if _, _, err := secondIx.Index(context.Background(), docs, "pets", "abc123def456"); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if secondGen.calls != 0 {
		t.Errorf("Generator called %d times despite warm cache, want 0", secondGen.calls)
	}
	if len(secondIndex.upserts) != 6 {
		t.Errorf("Rebuild upserted %d entries, want 6", len(secondIndex.upserts))
	}
	if secondIndex.upserts[0].Text != "generated 1" {
		t.Errorf("Rebuild should reuse cached text, got %q", secondIndex.upserts[0].Text)
	}
}

func TestIndex_IndexPresenceWinsOverCache(t *testing.T) {
	docs := testDocs()[:1]

	// warm the cache
	ix1, _, _, dir := newTestIndexer(t, &mockIndex{}, &mockGen{})
	if _, _, err := ix1.Index(context.Background(), docs, "pets", "abc123def456"); err != nil {
		t.Fatal(err)
	}

	// index already holds every child: cached text must not be re-upserted
	index := &mockIndex{existing: map[string]struct{}{}}
	for _, kind := range docModel.RepKinds {
		index.existing[ChildID(BaseID(docs[0], 0), kind)] = struct{}{}
	}
	gen := &mockGen{}
	ix2 := New(index, &mockStore{}, &mockEmbedder{}, gen).WithCacheDir(dir)

	if _, _, err := ix2.Index(context.Background(), docs, "pets", "abc123def456"); err != nil {
		t.Fatal(err)
	}
	if gen.calls != 0 || len(index.upserts) != 0 {
		t.Errorf("Existing index entries must win over the cache: gen=%d upserts=%d", gen.calls, len(index.upserts))
	}
}

func TestIndex_GenerationFailureAborts(t *testing.T) {
	index := &mockIndex{}
	gen := &mockGen{failAt: 4} // first document succeeds, second fails
	ix, _, _, dir := newTestIndexer(t, index, gen)

	_, _, err := ix.Index(context.Background(), testDocs(), "pets", "abc123def456")
	if err == nil {
		t.Fatal("Expected error when generation fails")
	}

	// writes committed before the failure stay in the index
	if len(index.upserts) != 3 {
		t.Errorf("Index holds %d entries after abort, want the 3 committed ones", len(index.upserts))
	}

	// unflushed cache additions are discarded with the end-of-run policy
	cache, cerr := textcache.Open(dir, CollectionName("pets", "abc123def456"))
	if cerr != nil {
		t.Fatal(cerr)
	}
	if cache.Len(docModel.RepSummary) != 0 {
		t.Error("End-of-run flush policy should not persist cache entries on abort")
	}
}

func TestIndex_FlushPerDocumentSurvivesAbort(t *testing.T) {
	index := &mockIndex{}
	gen := &mockGen{failAt: 4}
	ix, _, _, dir := newTestIndexer(t, index, gen)
	ix.WithFlushPolicy(textcache.FlushPerDocument)

	if _, _, err := ix.Index(context.Background(), testDocs(), "pets", "abc123def456"); err == nil {
		t.Fatal("Expected error when generation fails")
	}

	cache, err := textcache.Open(dir, CollectionName("pets", "abc123def456"))
	if err != nil {
		t.Fatal(err)
	}
	if cache.Len(docModel.RepSummary) != 1 {
		t.Errorf("Per-document flush should have persisted the first document's texts, got %d summaries", cache.Len(docModel.RepSummary))
	}
}
