package googleEmbedding

import (
	"context"
	"fmt"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/pkg/logger_i"
	"github.com/akolanti/driveqa/pkg/retrypolicy"
	"google.golang.org/genai"
)

var dimension int32 = config.EmbeddingOutputDimensionality

type Client struct {
	genAi  *genai.Client
	model  string
	logger *logger_i.Logger
	retry  retrypolicy.Policy
}

// NewClient builds a Gemini embedding client. Callers own the lifetime; there
// is no shared singleton, so tests and the two binaries can each wire their
// own instance.
func NewClient(ctx context.Context, modelName string, apikey string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		return nil, fmt.Errorf("creating Google embedding client: %w", err)
	}

	logger := logger_i.NewLogger("google_embedding")
	logger.Debug("Google Embedding model name: " + modelName)
	return &Client{
		genAi:  c,
		model:  modelName,
		logger: logger,
		retry:  retrypolicy.Default,
	}, nil
}

func (c *Client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	var result *genai.EmbedContentResponse
	err := c.retry.Do(ctx, func() error {
		var callErr error
		result, callErr = c.doCall(ctx, genai.Text(query))
		return callErr
	}, isRateLimited)
	if err != nil {
		log.Error("Error getting Embedding from Google", "error", err.Error())
		return nil, err
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding response for query")
	}
	return result.Embeddings[0].Values, nil
}

func (c *Client) BatchEmbedding(ctx context.Context, chunks []string, isHugeDataSet bool) ([][]float32, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	if len(chunks) == 0 {
		return nil, nil
	}

	if !isHugeDataSet {
		var res *genai.EmbedContentResponse
		err := c.retry.Do(ctx, func() error {
			var callErr error
			res, callErr = c.doCall(ctx, getContent(chunks))
			return callErr
		}, isRateLimited)
		if err != nil {
			log.Error("Error getting Embeddings from Google", "error", err.Error())
			return nil, err
		}
		if len(res.Embeddings) != len(chunks) {
			return nil, fmt.Errorf("got %d embeddings for %d chunks", len(res.Embeddings), len(chunks))
		}

		embeddingResults := make([][]float32, 0, len(res.Embeddings))
		for _, r := range res.Embeddings {
			embeddingResults = append(embeddingResults, r.Values)
		}
		return embeddingResults, nil
	}

	return c.batchJobEmbedding(ctx, chunks, log)
}

func (c *Client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
}
