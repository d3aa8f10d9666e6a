package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/registry"
)

// Build 根据模型配置创建对应的客户端。
// gemini走官方SDK，其余服务商统一按OpenAI兼容接口处理。
func Build(ctx context.Context, logger *zap.Logger, m registry.AIModel) (Client, error) {
	if m.APIKey == "" {
		return nil, fmt.Errorf("模型 %s 未配置API Key", m.Name)
	}

	switch strings.ToLower(m.Provider) {
	case "gemini", "google":
		return NewGeminiClient(ctx, logger, m)
	case "openai", "siliconflow", "deepseek", "":
		return NewOpenAIClient(logger, m), nil
	default:
		return nil, fmt.Errorf("不支持的服务商: %s", m.Provider)
	}
}
