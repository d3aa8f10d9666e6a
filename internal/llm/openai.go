package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/registry"
)

// OpenAIClient OpenAI兼容接口的客户端，覆盖SiliconFlow/DeepSeek等服务商
type OpenAIClient struct {
	logger *zap.Logger
	client *openai.Client
	name   string
	model  string
}

// NewOpenAIClient 根据注册表中的模型配置创建客户端。
// 429/5xx 的重试交给SDK内置的重试机制。
func NewOpenAIClient(logger *zap.Logger, m registry.AIModel) *OpenAIClient {
	options := []option.RequestOption{
		option.WithAPIKey(m.APIKey),
		option.WithMaxRetries(maxAttempts),
	}
	if m.BaseURL != "" {
		options = append(options, option.WithBaseURL(m.BaseURL))
	}

	client := openai.NewClient(options...)
	return &OpenAIClient{
		logger: logger,
		client: &client,
		name:   m.Name,
		model:  m.Model,
	}
}

func (c *OpenAIClient) Name() string {
	return c.name
}

func (c *OpenAIClient) Chat(ctx context.Context, system, user string) (*Reply, error) {
	start := time.Now()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("调用 %s 失败: %w", c.model, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("模型 %s 返回了空内容", c.model)
	}

	reply := &Reply{
		Text:             resp.Choices[0].Message.Content,
		Model:            c.model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		Duration:         time.Since(start),
	}
	c.logger.Debug("LLM调用完成",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", reply.PromptTokens),
		zap.Int("completion_tokens", reply.CompletionTokens),
		zap.Duration("duration", reply.Duration))
	return reply, nil
}
