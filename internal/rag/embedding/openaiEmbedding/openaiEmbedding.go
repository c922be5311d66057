package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/customHttpClient"
	"github.com/akolanti/driveqa/pkg/logger_i"
	"github.com/akolanti/driveqa/pkg/retrypolicy"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client embeds through the OpenAI API. It is the alternate backend for
// deployments without a Google API key; vectors share the configured
// dimensionality so either provider can fill the same collections.
type Client struct {
	api    openai.Client
	model  string
	logger *logger_i.Logger
	retry  retrypolicy.Policy
}

func NewClient(modelName string, apikey string) (*Client, error) {
	if apikey == "" {
		return nil, fmt.Errorf("openai embedding: API key is required")
	}
	return &Client{
		api: openai.NewClient(
			option.WithAPIKey(apikey),
			option.WithHTTPClient(customHttpClient.Pooled()),
		),
		model:  modelName,
		logger: logger_i.NewLogger("openai_embedding"),
		retry:  retrypolicy.Default,
	}, nil
}

func (c *Client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding response for query")
	}
	return vectors[0], nil
}

// BatchEmbedding embeds every chunk in one request. OpenAI has no separate
// batch-job API surface in this client, so huge data sets take the same path.
func (c *Client) BatchEmbedding(ctx context.Context, chunks []string, _ bool) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	return c.embed(ctx, chunks)
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	var resp *openai.CreateEmbeddingResponse
	err := c.retry.Do(ctx, func() error {
		var callErr error
		resp, callErr = c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Model:      openai.EmbeddingModel(c.model),
			Dimensions: openai.Int(int64(config.EmbeddingOutputDimensionality)),
		})
		return callErr
	}, isRateLimited)
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err.Error())
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}
		vectors[data.Index] = vector
	}
	return vectors, nil
}

func isRateLimited(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
