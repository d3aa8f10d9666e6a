package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Analysis 单个品种的一次AI深度分析结果
type Analysis struct {
	ID             string  `gorm:"primaryKey;type:varchar(26)" json:"id"`
	RunID          string  `gorm:"type:varchar(26);not null;index" json:"run_id"`          // 所属流水线批次
	Symbol         string  `gorm:"type:varchar(20);not null;index" json:"symbol"`          // 合约代码
	Direction      string  `gorm:"type:varchar(10);not null" json:"direction"`             // LONG / SHORT / WAIT
	SignalStrength float64 `gorm:"type:decimal(5,2)" json:"signal_strength"`               // 信号强度 0-10
	Entry          float64 `gorm:"type:decimal(20,4)" json:"entry"`                        // 建议入场价
	StopLoss       float64 `gorm:"type:decimal(20,4)" json:"stop_loss"`                    // 止损价
	TakeProfit     float64 `gorm:"type:decimal(20,4)" json:"take_profit"`                  // 止盈价
	RRRatio        float64 `gorm:"type:decimal(10,4)" json:"rr_ratio"`                     // 盈亏比
	PCR            float64 `gorm:"type:decimal(10,4)" json:"pcr"`                          // 期权PCR
	Reason         string  `gorm:"type:text" json:"reason"`                                // 模型给出的分析理由
	Model          string  `gorm:"type:varchar(100)" json:"model"`                         // 使用的AI模型
	ChartPath      string  `gorm:"type:varchar(255)" json:"chart_path"`                    // K线图PNG路径
	Ranked         bool    `gorm:"not null;default:false" json:"ranked"`                   // 是否进入最终榜单

	// 分析时的指标快照（JSON）
	Indicators datatypes.JSON `gorm:"type:json" json:"indicators"`

	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Analysis) TableName() string {
	return "analyses"
}
