package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/rag/vectorDB"
	"github.com/anvikal/askapi/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQuadrantClient(ctx context.Context) *ClientHolder {

	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient(ctx)
		if res != nil {
			quadrantInstance = res
			initCacheCollection(ctx, quadrantInstance)
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: quadrantInstance,
	}
}

func newClient(ctx context.Context) *qdrant.Client {

	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

// pointID maps a child id string to a deterministic UUID, since Qdrant
// accepts only UUID or integer point ids. The mapping is stable so
// repeated upserts of the same child id stay idempotent.
func pointID(childID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("askapi:"+childID)).String()
}

func (db *ClientHolder) CreateCollection(ctx context.Context, collectionName string) error {
	return createCollection(ctx, db.QObj, collectionName)
}

func (db *ClientHolder) AddTexts(ctx context.Context, collectionName string, entries []vectorDB.IndexEntry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("mismatch: got %d entries but %d vectors", len(entries), len(vectors))
	}

	points := make([]*qdrant.PointStruct, len(entries))
	for i, entry := range entries {
		payload := map[string]any{
			"child_id": entry.ChildID,
			"content":  entry.Text,
		}
		for k, v := range entry.Payload {
			payload[k] = v
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(entry.ChildID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         points,
		Wait:           qdrant.PtrOf(config.QdrantUpsertWait),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) ListAllIDs(ctx context.Context, collectionName string) (map[string]struct{}, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	ids := make(map[string]struct{})
	var offset *qdrant.PointId

	for {
		resp, err := db.QObj.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: collectionName,
			Limit:          qdrant.PtrOf(uint32(config.QdrantListPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude("child_id"),
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant scroll failed: %w", err)
		}

		points := resp.GetResult()
		if len(points) == 0 {
			break
		}
		for _, p := range points {
			if childID := p.GetPayload()["child_id"].GetStringValue(); childID != "" {
				ids[childID] = struct{}{}
			}
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	loggr.Debug("Vector index already contains ids", "count", len(ids), "collection", collectionName)
	return ids, nil
}

func (db *ClientHolder) Search(ctx context.Context, collectionName string, vectorFloat []float32, limit uint64) ([]vectorDB.Match, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vectorFloat...),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	})

	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	var matches []vectorDB.Match
	for _, hit := range result {
		payload := make(map[string]string, len(hit.Payload))
		for k, v := range hit.Payload {
			payload[k] = v.GetStringValue()
		}
		matches = append(matches, vectorDB.Match{
			ChildID: payload["child_id"],
			DocID:   payload["doc_id"],
			Text:    payload["content"],
			Score:   hit.Score,
			Payload: payload,
		})
	}

	loggr.Debug("Vector search finished", "matches", len(matches))
	return matches, nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}
