package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/guyueqh/sentinel/internal/registry"
)

// GeminiClient Google Gemini客户端
type GeminiClient struct {
	logger *zap.Logger
	client *genai.Client
	name   string
	model  string
}

// NewGeminiClient 创建Gemini客户端
func NewGeminiClient(ctx context.Context, logger *zap.Logger, m registry.AIModel) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  m.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化Gemini客户端失败: %w", err)
	}
	return &GeminiClient{
		logger: logger,
		client: client,
		name:   m.Name,
		model:  m.Model,
	}, nil
}

func (c *GeminiClient) Name() string {
	return c.name
}

// Chat 单轮对话，仅对 429/5xx 做最多三次指数退避重试
func (c *GeminiClient) Chat(ctx context.Context, system, user string) (*Reply, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt - 1)
			c.logger.Warn("Gemini调用失败，准备重试",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), config)
		if err != nil {
			lastErr = err
			if retryableGeminiError(err) {
				continue
			}
			return nil, fmt.Errorf("调用 %s 失败: %w", c.model, err)
		}

		text := resp.Text()
		if text == "" {
			return nil, fmt.Errorf("模型 %s 返回了空内容", c.model)
		}

		reply := &Reply{
			Text:     text,
			Model:    c.model,
			Duration: time.Since(start),
		}
		if resp.UsageMetadata != nil {
			reply.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
			reply.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		}
		return reply, nil
	}
	return nil, fmt.Errorf("调用 %s 重试%d次后仍失败: %w", c.model, maxAttempts, lastErr)
}

// retryableGeminiError 限流与服务端错误可重试，其余错误直接返回
func retryableGeminiError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return false
}
