package llm

import (
	"context"
	"time"
)

// Reply 单次对话的返回结果
type Reply struct {
	Text             string        `json:"text"`
	Model            string        `json:"model"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Duration         time.Duration `json:"duration"`
}

// Client 聊天补全客户端的统一抽象，OpenAI兼容接口与Gemini各有一个实现
type Client interface {
	// Name 返回模型展示名称，用于日志与持久化
	Name() string
	// Chat 单轮对话，出错时由实现负责对 429/5xx 做有限重试
	Chat(ctx context.Context, system, user string) (*Reply, error)
}

const (
	maxAttempts    = 3
	initialBackoff = 800 * time.Millisecond
	maxBackoff     = 8 * time.Second
)

// backoffDelay 指数退避，第n次重试前的等待时长
func backoffDelay(attempt int) time.Duration {
	d := initialBackoff << attempt
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
