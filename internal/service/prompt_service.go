package service

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasttemplate"

	"github.com/guyueqh/sentinel/internal/config"
	"github.com/guyueqh/sentinel/internal/models"
	"github.com/guyueqh/sentinel/pkg/futures"
)

//go:embed templates/macro_system.txt
var macroSystemTemplate string

//go:embed templates/analysis_system.txt
var analysisSystemTemplate string

// PromptService AI提示词生成服务
type PromptService struct {
	config *config.Config
}

// NewPromptService 创建提示词服务
func NewPromptService(conf *config.Config) *PromptService {
	return &PromptService{config: conf}
}

// MacroSystem 宏观情绪分析的系统提示词
func (s *PromptService) MacroSystem() string {
	return macroSystemTemplate
}

// MacroPrompt 宏观情绪分析的用户提示词
func (s *PromptService) MacroPrompt(headlines []string) string {
	var sb strings.Builder

	now := time.Now().In(time.FixedZone("CST", 8*3600))
	sb.WriteString(fmt.Sprintf("今天是 %s。以下是今日财经新闻标题：\n\n", now.Format("2006-01-02")))

	for i, h := range headlines {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, h))
	}
	sb.WriteString("\n请评估当前市场的宏观情绪。\n")
	return sb.String()
}

// AnalysisSystem 深度分析的系统提示词，阈值来自配置
func (s *PromptService) AnalysisSystem() string {
	tmpl := fasttemplate.New(analysisSystemTemplate, "{{", "}}")
	return tmpl.ExecuteString(map[string]interface{}{
		"min_signal":   "5",
		"atr_multiple": "1.5",
		"min_rr":       "1.5",
	})
}

// AnalysisData 深度分析提示词所需的上下文
type AnalysisData struct {
	Market    *MarketData
	Ranks     map[futures.RankType]*futures.RankTable
	PCR       *futures.PCR
	Sentiment *models.Sentiment
}

// AnalysisPrompt 生成单个合约的深度分析提示词
func (s *PromptService) AnalysisPrompt(data *AnalysisData) string {
	if data == nil || data.Market == nil {
		return ""
	}

	var sb strings.Builder
	s.writeSymbolHeader(&sb, data.Market)
	s.writeSentiment(&sb, data.Sentiment)
	s.writeIndicators(&sb, data.Market)
	s.writeRanks(&sb, data.Ranks)
	s.writePCR(&sb, data.PCR)
	sb.WriteString("请基于以上数据给出交易判断。\n")
	return sb.String()
}

func (s *PromptService) writeSymbolHeader(sb *strings.Builder, market *MarketData) {
	sb.WriteString(fmt.Sprintf("## 合约 %s（%s）\n\n", market.Symbol, market.Exchange))
	sb.WriteString(fmt.Sprintf("- 最新价格：%.2f\n\n", market.CurrentPrice))
}

func (s *PromptService) writeSentiment(sb *strings.Builder, sentiment *models.Sentiment) {
	sb.WriteString("## 宏观情绪\n\n")
	if sentiment == nil {
		sb.WriteString("今日暂无宏观情绪数据。\n\n")
		return
	}
	sb.WriteString(fmt.Sprintf("- 情绪评分：%.1f（-10悲观 ~ 10乐观）\n", sentiment.Score))
	sb.WriteString(fmt.Sprintf("- 解读：%s\n\n", sentiment.Summary))
}

func (s *PromptService) writeIndicators(sb *strings.Builder, market *MarketData) {
	sb.WriteString("## 多周期技术指标\n\n")

	for _, p := range append([]futures.Period{futures.PeriodDay}, scanPeriods...) {
		ind, ok := market.Indicators[p]
		if !ok {
			continue
		}
		label := string(p) + "分钟"
		if p == futures.PeriodDay {
			label = "日线"
		}
		sb.WriteString(fmt.Sprintf("**%s**: 价格=%.2f, MA5=%.2f, MA10=%.2f, MA20=%.2f, MACD=%.3f, DEA=%.3f, RSI14=%.1f, ATR14=%.2f, 布林=(%.2f, %.2f, %.2f), KDJ=(%.1f, %.1f, %.1f), CCI=%.1f, 成交量=%.0f（5日均量%.0f）\n",
			label, ind.Price, ind.MA5, ind.MA10, ind.MA20,
			ind.MACD, ind.MACDSignal, ind.RSI14, ind.ATR14,
			ind.BollUpper, ind.BollMid, ind.BollLower,
			ind.KDJK, ind.KDJD, ind.KDJJ, ind.CCI14,
			ind.Volume, ind.VolumeMA5))
	}
	sb.WriteString("\n")
}

func (s *PromptService) writeRanks(sb *strings.Builder, ranks map[futures.RankType]*futures.RankTable) {
	sb.WriteString("## 持仓排名（前20名会员）\n\n")
	if len(ranks) == 0 {
		sb.WriteString("暂无持仓排名数据。\n\n")
		return
	}

	for _, rt := range []futures.RankType{futures.RankVolume, futures.RankLongOI, futures.RankShortOI} {
		table, ok := ranks[rt]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("### %s（%s，数据日期 %s）\n", rt, table.Contract, table.Date))
		// 前5名足够反映主力动向，完整表格只会稀释提示词
		limit := 5
		if len(table.Rows) < limit {
			limit = len(table.Rows)
		}
		for _, row := range table.Rows[:limit] {
			sb.WriteString(fmt.Sprintf("%d. %s 数值=%d 增减=%+d\n", row.Rank, row.Member, row.Value, row.Change))
		}
		sb.WriteString("\n")
	}
}

func (s *PromptService) writePCR(sb *strings.Builder, pcr *futures.PCR) {
	sb.WriteString("## 期权PCR\n\n")
	if pcr == nil {
		sb.WriteString("该品种暂无期权数据。\n\n")
		return
	}
	sb.WriteString(fmt.Sprintf("- PCR（看跌/看涨成交量）: %.3f（put=%d, call=%d）\n\n",
		pcr.Ratio, pcr.PutVolume, pcr.CallVolume))
}
