package models

import (
	"time"

	"gorm.io/gorm"
)

// Sentiment 每日宏观情绪分析结果
type Sentiment struct {
	ID        string  `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Date      string  `gorm:"type:varchar(10);not null;index" json:"date"` // yyyy-mm-dd
	Score     float64 `gorm:"type:decimal(5,2)" json:"score"`              // 情绪评分 -10到10
	Summary   string  `gorm:"type:text" json:"summary"`                    // 模型的宏观解读
	Headlines string  `gorm:"type:text" json:"headlines"`                  // 参与分析的新闻标题
	Model     string  `gorm:"type:varchar(100)" json:"model"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Sentiment) TableName() string {
	return "sentiments"
}
