package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/anvikal/askapi/internal/config"
	"github.com/anvikal/askapi/internal/customHttpClient"
	"github.com/anvikal/askapi/internal/rag/llm"
	"github.com/anvikal/askapi/pkg/logger_i"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	client    *openaisdk.Client
	modelName string
}

var logger *logger_i.Logger
var openAIClient *llmClient
var once sync.Once

// GetOpenAIClient is the preferred provider when OPENAI_API_KEY is set.
func GetOpenAIClient(ctx context.Context, apikey string, modelName string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		c := openaisdk.NewClient(
			option.WithAPIKey(apikey),
			option.WithHTTPClient(customHttpClient.Pooled()),
		)
		openAIClient = &llmClient{client: &c, modelName: modelName}
		logger.Info("OpenAI client created", "model", modelName)
	})

	if openAIClient == nil {
		return nil
	}
	return &llmClient{client: openAIClient.client, modelName: openAIClient.modelName}
}

func (c *llmClient) Complete(ctx context.Context, prompt string) (string, error) {
	logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	resp, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.modelName),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *llmClient) Chat(ctx context.Context, userQuery string, matches []string, messageHistory []string) (string, error) {
	logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	contextText := strings.Join(matches, "\n")
	if len(messageHistory) > 0 {
		contextText = "Message History (question/answer pairs from this chat):\n" +
			strings.Join(messageHistory, "\n") + "\n\n" + contextText
	}
	userPrompt := fmt.Sprintf("Context:\n%s\n\nUser Question: %s", contextText, userQuery)

	resp, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.modelName),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(config.ModelContext),
			openaisdk.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
