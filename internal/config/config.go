package config

type Config struct {
	Registry  RegistryConf  `json:"registry"`
	Data      DataConf      `json:"data"`
	Strategy  StrategyConf  `json:"strategy"`
	Scheduler SchedulerConf `json:"scheduler"`
	Email     EmailConf     `json:"email"`
	Telegram  TelegramConf  `json:"telegram"`
	Chart     ChartConf     `json:"chart"`
}

type RegistryConf struct {
	Path string `json:"path"` // 模型注册表JSON文件路径，默认 data/models.json
}

type DataConf struct {
	CacheDir          string `json:"cache_dir"`           // K线缓存目录，默认 data/cache
	MinIntervalMillis int    `json:"min_interval_millis"` // 外部请求最小间隔（毫秒）
	MaxJitterMillis   int    `json:"max_jitter_millis"`   // 请求间隔随机抖动上限（毫秒）
	TimeoutSeconds    int    `json:"timeout_seconds"`     // 单次HTTP请求超时（秒）
}

type StrategyConf struct {
	Symbols    []string `json:"symbols"`     // 监控的合约池，如 ["rb2510", "m2509"]
	MinVolume  float64  `json:"min_volume"`  // 预筛选：60分钟线最新成交量下限
	MinATR     float64  `json:"min_atr"`     // 预筛选：ATR占价格比例下限
	MaxSymbols int      `json:"max_symbols"` // 进入深度分析的最大品种数
	TopN       int      `json:"top_n"`       // 最终报告保留的信号数量，默认5
}

type SchedulerConf struct {
	Enabled          bool   `json:"enabled"`
	MacroCron        string `json:"macro_cron"`        // 宏观情绪分析时间，默认 "30 8 * * *"
	PreMarketCron    string `json:"pre_market_cron"`   // 盘前全量扫描时间，默认 "40 8 * * *"
	IntradayInterval int    `json:"intraday_interval"` // 盘中检查间隔（分钟），默认15
}

type EmailConf struct {
	Enabled  bool     `json:"enabled"`
	Host     string   `json:"host"`
	Port     int      `json:"port"` // 587时使用STARTTLS
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}

type ChartConf struct {
	Enabled   bool   `json:"enabled"`
	OutputDir string `json:"output_dir"` // PNG输出目录，默认 data/charts
}
