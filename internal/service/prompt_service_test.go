package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/guyueqh/sentinel/internal/config"
	"github.com/guyueqh/sentinel/internal/models"
	"github.com/guyueqh/sentinel/pkg/futures"
)

func TestMacroPrompt(t *testing.T) {
	s := NewPromptService(&config.Config{})

	prompt := s.MacroPrompt([]string{"铁矿石库存创新低", "央行宣布降准"})
	assert.Contains(t, prompt, "1. 铁矿石库存创新低")
	assert.Contains(t, prompt, "2. 央行宣布降准")
	assert.Contains(t, prompt, "宏观情绪")
}

func TestAnalysisSystemFillsThresholds(t *testing.T) {
	s := NewPromptService(&config.Config{})

	system := s.AnalysisSystem()
	// 模板占位符必须全部被填充
	assert.NotContains(t, system, "{{")
	assert.NotContains(t, system, "}}")
	assert.Contains(t, system, "signal_strength")
	assert.Contains(t, system, "rr_ratio")
}

func TestAnalysisPrompt(t *testing.T) {
	s := NewPromptService(&config.Config{})

	prompt := s.AnalysisPrompt(&AnalysisData{
		Market: &MarketData{
			Symbol:       "rb2510",
			Exchange:     futures.SHFE,
			CurrentPrice: 3500,
			Indicators: map[futures.Period]*IndicatorSet{
				futures.Period60m: {Price: 3500, MA5: 3490, RSI14: 55.2, Volume: 12000},
				futures.Period5m:  {Price: 3502, MA5: 3501, RSI14: 60.1, Volume: 800},
			},
		},
		Ranks: map[futures.RankType]*futures.RankTable{
			futures.RankLongOI: {
				Type:     futures.RankLongOI,
				Contract: "rb2510",
				Date:     "20250609",
				Rows: []futures.RankRow{
					{Rank: 1, Member: "中信期货", Value: 50000, Change: 1200},
				},
			},
		},
		PCR:       &futures.PCR{Contract: "rb2510", PutVolume: 300, CallVolume: 600, Ratio: 0.5},
		Sentiment: &models.Sentiment{Score: 2.0, Summary: "偏乐观"},
	})

	assert.Contains(t, prompt, "rb2510")
	assert.Contains(t, prompt, "情绪评分：2.0")
	assert.Contains(t, prompt, "60分钟")
	assert.Contains(t, prompt, "5分钟")
	assert.Contains(t, prompt, "中信期货")
	assert.Contains(t, prompt, "0.500")
}

func TestAnalysisPromptDegrades(t *testing.T) {
	s := NewPromptService(&config.Config{})

	prompt := s.AnalysisPrompt(&AnalysisData{
		Market: &MarketData{
			Symbol:       "lc2507",
			Exchange:     futures.GFEX,
			CurrentPrice: 90000,
			Indicators:   map[futures.Period]*IndicatorSet{},
		},
	})
	assert.Contains(t, prompt, "今日暂无宏观情绪数据")
	assert.Contains(t, prompt, "暂无持仓排名数据")
	assert.Contains(t, prompt, "该品种暂无期权数据")

	assert.Empty(t, s.AnalysisPrompt(nil))
}
