package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams   = orz.NewError(10400, "参数无效")
	ErrModelNotFound   = orz.NewError(10000, "AI模型不存在")
	ErrNoActiveModel   = orz.NewError(10001, "未配置激活的AI模型")
	ErrStrategyRunning = orz.NewError(10002, "策略流水线正在运行中")
	ErrNoData          = orz.NewError(10003, "暂无数据")
	ErrUnknownSymbol   = orz.NewError(10004, "无法识别的合约代码")
	ErrChartNotFound   = orz.NewError(10005, "图表文件不存在")
)
