package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/data/redisStore"
	"github.com/anvikal/askapi/internal/domain/docModel"
	"github.com/anvikal/askapi/pkg/logger_i"
)

// RedisDocStore keeps parent documents in one hash per collection, keyed
// by base id. Ids that were never written come back silently absent from
// GetMany, which is what retrieval wants for dangling index entries.
type RedisDocStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisDocStore(ctx context.Context) *RedisDocStore {
	rs := redisStore.GetRedisStore(ctx, config.RedisDocStore)
	if rs == nil {
		return nil
	}
	return &RedisDocStore{
		store:  rs,
		logger: logger_i.NewLogger("DocStore"),
	}
}

func docHashKey(collection string) string {
	return "docs:" + collection
}

func (s *RedisDocStore) Put(ctx context.Context, collection string, id string, doc docModel.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling document %s: %w", id, err)
	}
	return s.store.HashSet(ctx, docHashKey(collection), id, data)
}

func (s *RedisDocStore) GetMany(ctx context.Context, collection string, ids []string) ([]docModel.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	values, err := s.store.HashGetMany(ctx, docHashKey(collection), ids...)
	if err != nil {
		return nil, err
	}

	docs := make([]docModel.Document, 0, len(values))
	for i, val := range values {
		if val == nil {
			s.logger.Debug("Document missing from store", "collection", collection, "id", ids[i])
			continue
		}
		raw, ok := val.(string)
		if !ok {
			continue
		}
		var doc docModel.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			s.logger.Error("Corrupt document in store", "id", ids[i], "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func TestDocStore(store *redisStore.Store) *RedisDocStore {
	return &RedisDocStore{
		store:  store,
		logger: logger_i.NewLogger("test doc store"),
	}
}
