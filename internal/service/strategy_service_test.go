package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/config"
	"github.com/guyueqh/sentinel/internal/models"
	"github.com/guyueqh/sentinel/pkg/futures"
)

func newTestStrategyService(conf config.StrategyConf) *StrategyService {
	return &StrategyService{
		config: &config.Config{Strategy: conf},
		logger: zap.NewNop(),
	}
}

func TestFilterCandidates(t *testing.T) {
	s := newTestStrategyService(config.StrategyConf{
		MinVolume:  1000,
		MinATR:     0.005,
		MaxSymbols: 10,
	})

	marketData := map[string]*MarketData{
		"rb2510": {
			Symbol: "rb2510",
			Indicators: map[futures.Period]*IndicatorSet{
				futures.Period60m: {Price: 3500, Volume: 5000, ATR14: 30},
			},
		},
		// 成交量不足
		"ag2508": {
			Symbol: "ag2508",
			Indicators: map[futures.Period]*IndicatorSet{
				futures.Period60m: {Price: 8000, Volume: 500, ATR14: 100},
			},
		},
		// 波动率不足
		"m2509": {
			Symbol: "m2509",
			Indicators: map[futures.Period]*IndicatorSet{
				futures.Period60m: {Price: 3000, Volume: 3000, ATR14: 5},
			},
		},
		// 缺少60分钟指标
		"cu2507": {
			Symbol: "cu2507",
			Indicators: map[futures.Period]*IndicatorSet{
				futures.Period15m: {Price: 70000, Volume: 9000, ATR14: 600},
			},
		},
	}

	candidates := s.filterCandidates(marketData)
	assert.Equal(t, []string{"rb2510"}, candidates)
}

func TestFilterCandidatesMaxSymbols(t *testing.T) {
	s := newTestStrategyService(config.StrategyConf{MaxSymbols: 2})

	marketData := map[string]*MarketData{}
	for _, symbol := range []string{"a2509", "b2509", "c2509", "d2509"} {
		marketData[symbol] = &MarketData{
			Symbol: symbol,
			Indicators: map[futures.Period]*IndicatorSet{
				futures.Period60m: {Price: 100, Volume: 100, ATR14: 10},
			},
		}
	}

	candidates := s.filterCandidates(marketData)
	assert.Len(t, candidates, 2)
	// 截断前按合约名排序，结果可复现
	assert.Equal(t, []string{"a2509", "b2509"}, candidates)
}

func TestFilterCandidatesNoThreshold(t *testing.T) {
	s := newTestStrategyService(config.StrategyConf{})

	marketData := map[string]*MarketData{
		"rb2510": {
			Symbol: "rb2510",
			Indicators: map[futures.Period]*IndicatorSet{
				futures.Period60m: {Price: 3500, Volume: 1, ATR14: 0.1},
			},
		},
	}
	assert.Equal(t, []string{"rb2510"}, s.filterCandidates(marketData))
}

func TestRankAnalyses(t *testing.T) {
	s := newTestStrategyService(config.StrategyConf{TopN: 3})

	analyses := []*models.Analysis{
		{Symbol: "a", Direction: "LONG", SignalStrength: 6, RRRatio: 2.0},
		{Symbol: "b", Direction: "WAIT", SignalStrength: 9, RRRatio: 3.0},
		{Symbol: "c", Direction: "SHORT", SignalStrength: 8, RRRatio: 1.5},
		{Symbol: "d", Direction: "LONG", SignalStrength: 8, RRRatio: 2.5},
		{Symbol: "e", Direction: "SHORT", SignalStrength: 7, RRRatio: 1.0},
	}

	top := s.rankAnalyses(analyses)
	assert.Len(t, top, 3)
	// WAIT不参与排名；同信号强度时盈亏比高者靠前
	assert.Equal(t, "d", top[0].Symbol)
	assert.Equal(t, "c", top[1].Symbol)
	assert.Equal(t, "e", top[2].Symbol)
}

func TestRankAnalysesAllWait(t *testing.T) {
	s := newTestStrategyService(config.StrategyConf{})

	analyses := []*models.Analysis{
		{Symbol: "a", Direction: "WAIT", SignalStrength: 9},
		{Symbol: "b", Direction: "WAIT", SignalStrength: 8},
	}
	assert.Empty(t, s.rankAnalyses(analyses))
}

func TestBuildPlainReport(t *testing.T) {
	sentiment := &models.Sentiment{Score: 3.5, Summary: "情绪偏多"}
	top := []*models.Analysis{
		{Symbol: "rb2510", Direction: "LONG", SignalStrength: 8.5, Entry: 3500, StopLoss: 3450, TakeProfit: 3600, RRRatio: 2.0, Reason: "均线多头排列"},
	}

	report := buildPlainReport(sentiment, top)
	assert.Contains(t, report, "宏观情绪: 3.5")
	assert.Contains(t, report, "rb2510 LONG")
	assert.Contains(t, report, "盈亏比=2.00")
	assert.Contains(t, report, "均线多头排列")
}

func TestBuildHTMLReportEscapes(t *testing.T) {
	top := []*models.Analysis{
		{Symbol: "rb2510", Direction: "SHORT", Reason: "压力位 <3600> 未突破"},
	}

	html := buildHTMLReport(nil, top)
	assert.Contains(t, html, "&lt;3600&gt;")
	assert.NotContains(t, html, "<3600>")
}

func TestStatusDefaults(t *testing.T) {
	s := newTestStrategyService(config.StrategyConf{})

	status := s.Status()
	assert.Equal(t, false, status["is_running"])
	assert.Equal(t, 5, status["top_n"])
}

func TestRunMutualExclusion(t *testing.T) {
	s := newTestStrategyService(config.StrategyConf{})

	runID, err := s.begin()
	assert.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.True(t, s.IsRunning())

	// 占用期间的并发触发必须同步拒绝，不能等到后台才发现冲突
	_, err = s.begin()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.ErrorIs(t, s.RunAsync(), ErrAlreadyRunning)

	s.finish()
	assert.False(t, s.IsRunning())

	runID2, err := s.begin()
	assert.NoError(t, err)
	assert.NotEqual(t, runID, runID2, "每次运行分配独立的运行ID")
	s.finish()
}
