package llm

import (
	"context"
	"fmt"

	"github.com/hession/opsmate/internal/logger"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// LangChainClient is a Completer backed by a langchaingo model.
type LangChainClient struct {
	model       llms.Model
	modelName   string
	temperature float64
	maxTokens   int
}

// NewLangChain creates a Completer on langchaingo's OpenAI-compatible driver.
func NewLangChain(apiKey, baseURL, model string, temperature float64, maxTokens int) (*LangChainClient, error) {
	model = ResolveModel(model)
	m, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(APIBase(baseURL)),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create langchain model: %w", err)
	}
	return newLangChainClient(m, model, temperature, maxTokens), nil
}

func newLangChainClient(m llms.Model, modelName string, temperature float64, maxTokens int) *LangChainClient {
	return &LangChainClient{
		model:       m,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Complete implements Completer.
func (c *LangChainClient) Complete(ctx context.Context, messages []Message, structured bool) string {
	content, err := c.generate(ctx, messages, structured)
	if err != nil {
		logger.L().Error().Err(err).
			Str("model", c.modelName).
			Str("backend", "langchain").
			Bool("structured", structured).
			Msg("llm call failed")
		return EmptyJSON
	}
	return finalize(content, structured)
}

func (c *LangChainClient) generate(ctx context.Context, messages []Message, structured bool) (string, error) {
	contents := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		contents = append(contents, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}
	if structured {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := c.model.GenerateContent(ctx, contents, opts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned empty response")
	}
	return resp.Choices[0].Content, nil
}

func chatMessageType(role string) schema.ChatMessageType {
	switch role {
	case RoleSystem:
		return schema.ChatMessageTypeSystem
	case RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
