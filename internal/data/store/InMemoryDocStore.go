package store

import (
	"context"
	"sync"

	"github.com/anvikal/askapi/internal/domain/docModel"
)

type InMemoryDocStore struct {
	docLock *sync.RWMutex
	docMap  map[string]map[string]docModel.Document
}

func InitInMemoryDocStore() *InMemoryDocStore {
	return &InMemoryDocStore{
		docLock: new(sync.RWMutex),
		docMap:  make(map[string]map[string]docModel.Document),
	}
}

func (store *InMemoryDocStore) Put(ctx context.Context, collection string, id string, doc docModel.Document) error {
	store.docLock.Lock()
	defer store.docLock.Unlock()
	if store.docMap[collection] == nil {
		store.docMap[collection] = make(map[string]docModel.Document)
	}
	store.docMap[collection][id] = doc
	return nil
}

func (store *InMemoryDocStore) GetMany(ctx context.Context, collection string, ids []string) ([]docModel.Document, error) {
	store.docLock.RLock()
	defer store.docLock.RUnlock()

	docs := make([]docModel.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := store.docMap[collection][id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
