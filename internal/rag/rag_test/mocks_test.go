package rag_test

import (
	"context"

	"github.com/anvikal/askapi/internal/domain/docModel"
	"github.com/anvikal/askapi/internal/rag/vectorDB"
)

// MockVectorDB implements vectorDB.DataProcessor
type MockVectorDB struct {
	// Control fields to simulate different behaviors
	OnSearch           func(ctx context.Context, collection string, vectorVal []float32, limit uint64) ([]vectorDB.Match, error)
	OnGetCachedAnswer  func(ctx context.Context, queryVector []float32) (string, bool, error)
	OnSaveToCache      func(ctx context.Context, id string, vector []float32, answer string) error
	OnCreateCollection func(ctx context.Context, name string) error
	OnAddTexts         func(ctx context.Context, name string, entries []vectorDB.IndexEntry, vectors [][]float32) error
	OnListAllIDs       func(ctx context.Context, name string) (map[string]struct{}, error)

	// Entries records everything upserted, keyed by child id
	Entries map[string]vectorDB.IndexEntry
}

func (m *MockVectorDB) Search(ctx context.Context, collection string, v []float32, limit uint64) ([]vectorDB.Match, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, collection, v, limit)
	}

	matches := make([]vectorDB.Match, 0, len(m.Entries))
	for id, entry := range m.Entries {
		docID, _ := entry.Payload["doc_id"].(string)
		matches = append(matches, vectorDB.Match{ChildID: id, DocID: docID, Text: entry.Text, Score: 0.9})
		if uint64(len(matches)) == limit {
			break
		}
	}
	return matches, nil
}

func (m *MockVectorDB) GetCachedAnswer(ctx context.Context, v []float32) (string, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, v)
	}
	return "", false, nil
}

func (m *MockVectorDB) SaveToCache(ctx context.Context, id string, v []float32, a string) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, id, v, a)
	}
	return nil
}

func (m *MockVectorDB) CreateCollection(ctx context.Context, name string) error {
	if m.OnCreateCollection != nil {
		return m.OnCreateCollection(ctx, name)
	}
	return nil
}

func (m *MockVectorDB) AddTexts(ctx context.Context, name string, entries []vectorDB.IndexEntry, vectors [][]float32) error {
	if m.OnAddTexts != nil {
		return m.OnAddTexts(ctx, name, entries, vectors)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]vectorDB.IndexEntry)
	}
	for _, entry := range entries {
		m.Entries[entry.ChildID] = entry
	}
	return nil
}

func (m *MockVectorDB) ListAllIDs(ctx context.Context, name string) (map[string]struct{}, error) {
	if m.OnListAllIDs != nil {
		return m.OnListAllIDs(ctx, name)
	}
	ids := make(map[string]struct{}, len(m.Entries))
	for id := range m.Entries {
		ids[id] = struct{}{}
	}
	return ids, nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1}
	}
	return vectors, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, prompt string) (string, error)
	OnChat     func(ctx context.Context, query string, matches []string, history []string) (string, error)
}

func (m *MockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if m.OnComplete != nil {
		return m.OnComplete(ctx, prompt)
	}
	return "derived text", nil
}

func (m *MockLLM) Chat(ctx context.Context, q string, mth []string, hist []string) (string, error) {
	if m.OnChat != nil {
		return m.OnChat(ctx, q, mth, hist)
	}
	return "mocked llm response", nil
}

// MockDocStore implements docModel.DocStore
type MockDocStore struct {
	Docs map[string]docModel.Document
}

func (m *MockDocStore) Put(ctx context.Context, collection string, id string, doc docModel.Document) error {
	if m.Docs == nil {
		m.Docs = make(map[string]docModel.Document)
	}
	m.Docs[id] = doc
	return nil
}

func (m *MockDocStore) GetMany(ctx context.Context, collection string, ids []string) ([]docModel.Document, error) {
	docs := make([]docModel.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := m.Docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
