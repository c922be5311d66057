package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/driveqa/internal/config"
	"github.com/akolanti/driveqa/internal/rag/llm"
	"github.com/akolanti/driveqa/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
	logger    *logger_i.Logger
}

func NewClient(ctx context.Context, modelName string, apikey string) (llm.Provider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	logger := logger_i.NewLogger("llm_gemini")
	logger.Debug("Gemini client created", "model", modelName)
	return &llmClient{client: c, modelName: modelName, logger: logger}, nil
}

func (c *llmClient) Generate(ctx context.Context, userQuery string, matches []string, messageHistory []string) (string, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	systemInstruction := &genai.Content{
		Parts: []*genai.Part{
			{Text: config.ModelContext},
		},
	}

	var sb strings.Builder
	if len(messageHistory) > 0 {
		sb.WriteString("Message History (Question is what the user asked, Answer is what you replied):\n")
		sb.WriteString(strings.Join(messageHistory, "\n"))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Context:\n")
	sb.WriteString(strings.Join(matches, "\n"))
	userPrompt := fmt.Sprintf("%s\n\nUser Question: %s", sb.String(), userQuery)

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.modelName,
		genai.Text(userPrompt),
		&genai.GenerateContentConfig{
			SystemInstruction: systemInstruction,
		},
	)
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", err
	}
	return result.Text(), nil
}
