package futures

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// 缓存有效期，超过后重新拉取
	cacheMaxAge = 12 * time.Hour
	// 排名数据发布截止时间，之前只查昨日
	publishCutoffHour   = 16
	publishCutoffMinute = 30
)

// cstZone 国内交易所统一使用北京时间
var cstZone = time.FixedZone("CST", 8*3600)

// Options 客户端配置
type Options struct {
	CacheDir    string        // K线缓存目录
	MinInterval time.Duration // 两次外部请求的最小间隔
	MaxJitter   time.Duration // 请求间隔上叠加的随机抖动上限
	Timeout     time.Duration // 单次HTTP请求超时
}

// Client 期货行情数据客户端，封装新浪行情与各交易所持仓排名接口
type Client struct {
	logger      *zap.Logger
	httpClient  *http.Client
	cacheDir    string
	minInterval time.Duration
	maxJitter   time.Duration

	mu      sync.Mutex
	lastReq time.Time
	now     func() time.Time

	// 按交易所划分的排名数据源，测试时可替换
	rankSources map[Exchange]RankSource
}

// NewClient 创建期货数据客户端
func NewClient(logger *zap.Logger, opts Options) *Client {
	if opts.MinInterval <= 0 {
		opts.MinInterval = 500 * time.Millisecond
	}
	if opts.MaxJitter <= 0 {
		opts.MaxJitter = 1500 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	c := &Client{
		logger:      logger,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		cacheDir:    opts.CacheDir,
		minInterval: opts.MinInterval,
		maxJitter:   opts.MaxJitter,
		now:         func() time.Time { return time.Now().In(cstZone) },
	}
	c.rankSources = map[Exchange]RankSource{
		SHFE:  c.fetchSHFERank,
		DCE:   c.fetchDCERank,
		CZCE:  c.fetchCZCERank,
		CFFEX: c.fetchCFFEXRank,
		GFEX:  c.fetchGFEXRank,
	}
	return c
}

// waitTurn 固定间隔加随机抖动的限速，防止被数据源封禁
func (c *Client) waitTurn() {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastReq)
	wait := c.minInterval - elapsed
	if wait < 0 {
		wait = 0
	}
	wait += time.Duration(rand.Int63n(int64(c.maxJitter)))
	time.Sleep(wait)
	c.lastReq = time.Now()
}

func (c *Client) cachePath(symbol string, period Period) string {
	date := c.now().Format("20060102")
	return filepath.Join(c.cacheDir, fmt.Sprintf("%s_%s_%s.json", symbol, period, date))
}

// loadCache 读取当日缓存，超过12小时视为过期
func (c *Client) loadCache(symbol string, period Period) ([]Bar, bool) {
	if c.cacheDir == "" {
		return nil, false
	}
	path := c.cachePath(symbol, period)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > cacheMaxAge {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var bars []Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		c.logger.Warn("缓存文件损坏，忽略", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	return bars, true
}

func (c *Client) saveCache(symbol string, period Period, bars []Bar) {
	if c.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		c.logger.Warn("创建缓存目录失败", zap.Error(err))
		return
	}
	data, err := json.Marshal(bars)
	if err != nil {
		return
	}
	path := c.cachePath(symbol, period)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		c.logger.Warn("写入缓存失败", zap.String("path", path), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		c.logger.Warn("替换缓存失败", zap.String("path", path), zap.Error(err))
	}
}
