package models

import (
	"time"

	"gorm.io/gorm"
)

// LLMLog LLM通信日志记录
type LLMLog struct {
	ID               string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	RunID            string         `gorm:"index" json:"run_id"`                  // 关联的流水线批次
	Stage            string         `gorm:"type:varchar(32)" json:"stage"`        // macro / deep_analysis
	Symbol           string         `gorm:"type:varchar(20);index" json:"symbol"` // 分析的合约，宏观分析时为空
	Model            string         `json:"model"`                                // 使用的AI模型
	SystemPrompt     string         `json:"-"`                                    // 系统提示词(前端隐藏)
	UserPrompt       string         `json:"user_prompt"`                          // 用户提示词
	Content          string         `json:"content"`                              // AI返回的内容
	PromptTokens     int            `json:"prompt_tokens"`                        // 提示词token数
	CompletionTokens int            `json:"completion_tokens"`                    // 完成token数
	Duration         int64          `json:"duration"`                             // 请求耗时(毫秒)
	Error            string         `json:"error"`                                // 错误信息(如果有)
	ExecutedAt       time.Time      `gorm:"not null;index" json:"executed_at"`    // 执行时间
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (LLMLog) TableName() string {
	return "llm_logs"
}
