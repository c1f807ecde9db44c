package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anvikal/askapi/internal/config"
	"google.golang.org/genai"
)

func getContent(texts []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(texts))

	for _, text := range texts {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: text}},
		})
	}
	return contentsToSend
}

// BatchEmbedding embeds all texts in a single EmbedContent request and
// returns the vectors in input order.
func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	result, err := c.doCall(ctx, getContent(texts))
	if err != nil || result == nil {
		if isRateLimited(err, log) {
			time.Sleep(5 * time.Second)
			log.Debug("Retrying batch embedding call after rate limit")
			result, err = c.doCall(ctx, getContent(texts))
		}
		if err != nil {
			log.Error("Error getting batch Embeddings from Google", "error", err.Error())
			return nil, err
		}
	}
	if result == nil {
		return nil, errors.New("empty batch embedding response")
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("batch embedding returned %d vectors for %d texts", len(result.Embeddings), len(texts))
	}

	embeddingResults := make([][]float32, 0, len(texts))
	for _, r := range result.Embeddings {
		embeddingResults = append(embeddingResults, r.Values)
	}
	return embeddingResults, nil
}
