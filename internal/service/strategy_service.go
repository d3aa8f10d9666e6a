package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/guyueqh/sentinel/internal/config"
	"github.com/guyueqh/sentinel/internal/llm"
	"github.com/guyueqh/sentinel/internal/models"
	"github.com/guyueqh/sentinel/internal/notifier"
	"github.com/guyueqh/sentinel/internal/registry"
	"github.com/guyueqh/sentinel/internal/repo"
	"github.com/guyueqh/sentinel/pkg/futures"
)

// ErrAlreadyRunning 流水线互斥，运行中再次触发时返回
var ErrAlreadyRunning = fmt.Errorf("策略流水线正在运行中")

const (
	stageMacro        = "macro"
	stageDeepAnalysis = "deep_analysis"
)

// analysisResult 深度分析LLM返回的JSON契约
type analysisResult struct {
	Direction      string  `json:"direction"`
	SignalStrength float64 `json:"signal_strength"`
	Entry          float64 `json:"entry"`
	StopLoss       float64 `json:"stop_loss"`
	TakeProfit     float64 `json:"take_profit"`
	RRRatio        float64 `json:"rr_ratio"`
	Reason         string  `json:"reason"`
}

// macroResult 宏观情绪LLM返回的JSON契约
type macroResult struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

// StrategyService 五阶段分析流水线
type StrategyService struct {
	config        *config.Config
	logger        *zap.Logger
	marketService *MarketService
	newsService   *NewsService
	promptService *PromptService
	chartService  *ChartService
	registry      *registry.Registry
	notifier      *notifier.Notifier

	analysisRepo  *repo.AnalysisRepo
	sentimentRepo *repo.SentimentRepo
	llmLogRepo    *repo.LLMLogRepo

	mu        sync.Mutex
	running   bool
	lastRunID string
	lastRunAt time.Time
	lastError string
}

func NewStrategyService(
	conf *config.Config,
	logger *zap.Logger,
	marketService *MarketService,
	newsService *NewsService,
	promptService *PromptService,
	chartService *ChartService,
	reg *registry.Registry,
	ntf *notifier.Notifier,
	analysisRepo *repo.AnalysisRepo,
	sentimentRepo *repo.SentimentRepo,
	llmLogRepo *repo.LLMLogRepo,
) *StrategyService {
	return &StrategyService{
		config:        conf,
		logger:        logger,
		marketService: marketService,
		newsService:   newsService,
		promptService: promptService,
		chartService:  chartService,
		registry:      reg,
		notifier:      ntf,
		analysisRepo:  analysisRepo,
		sentimentRepo: sentimentRepo,
		llmLogRepo:    llmLogRepo,
	}
}

// IsRunning 检查流水线是否正在执行
func (s *StrategyService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status 流水线运行状态
func (s *StrategyService) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]interface{}{
		"is_running":  s.running,
		"last_run_id": s.lastRunID,
		"last_run_at": s.lastRunAt,
		"last_error":  s.lastError,
		"symbols":     s.config.Strategy.Symbols,
		"top_n":       s.topN(),
	}
}

func (s *StrategyService) topN() int {
	if s.config.Strategy.TopN > 0 {
		return s.config.Strategy.TopN
	}
	return 5
}

func (s *StrategyService) maxSymbols() int {
	if s.config.Strategy.MaxSymbols > 0 {
		return s.config.Strategy.MaxSymbols
	}
	return 10
}

func (s *StrategyService) buildClient(ctx context.Context) (llm.Client, error) {
	model, err := s.registry.Active()
	if err != nil {
		return nil, err
	}
	return llm.Build(ctx, s.logger, model)
}

// RunMacro 单独执行宏观情绪分析，结果落库供后续流水线复用
func (s *StrategyService) RunMacro(ctx context.Context) (*models.Sentiment, error) {
	client, err := s.buildClient(ctx)
	if err != nil {
		return nil, err
	}
	return s.analyzeMacro(ctx, client, ulid.Make().String())
}

// begin 抢占运行标记并分配运行ID，已有流水线在跑时返回 ErrAlreadyRunning
func (s *StrategyService) begin() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return "", ErrAlreadyRunning
	}
	s.running = true
	runID := ulid.Make().String()
	s.lastRunID = runID
	s.lastRunAt = time.Now()
	s.lastError = ""
	return runID, nil
}

func (s *StrategyService) finish() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Run 执行完整的五阶段流水线。同一时刻只允许一条流水线运行。
func (s *StrategyService) Run(ctx context.Context) error {
	runID, err := s.begin()
	if err != nil {
		return err
	}
	defer s.finish()
	return s.run(ctx, runID)
}

// RunAsync 同步抢占运行标记后在后台执行流水线。
// 返回 ErrAlreadyRunning 表示已有流水线在跑，调用方无需等待结果。
func (s *StrategyService) RunAsync() error {
	runID, err := s.begin()
	if err != nil {
		return err
	}
	go func() {
		defer s.finish()
		if err := s.run(context.Background(), runID); err != nil {
			s.logger.Error("后台流水线执行失败",
				zap.String("run_id", runID), zap.Error(err))
		}
	}()
	return nil
}

func (s *StrategyService) run(ctx context.Context, runID string) error {
	runStart := time.Now()
	s.logger.Info("========== ANALYSIS RUN START ==========",
		zap.String("run_id", runID),
		zap.Strings("symbols", s.config.Strategy.Symbols))

	client, err := s.buildClient(ctx)
	if err != nil {
		s.failRun("构建LLM客户端失败", err)
		return err
	}

	// ========== Stage 1: 宏观情绪 ==========
	s.logger.Info("[STAGE 1/5] Analyzing macro sentiment...")
	sentiment, err := s.ensureSentiment(ctx, client, runID)
	if err != nil {
		// 宏观情绪缺失不阻断后续分析，提示词中降级为"暂无"
		s.logger.Error("[STAGE 1/5] Macro sentiment failed", zap.Error(err))
		s.notifier.SendAlert("【系统告警】宏观情绪分析失败", err.Error())
	} else {
		s.logger.Info("[STAGE 1/5] Macro sentiment ready",
			zap.Float64("score", sentiment.Score))
	}

	// ========== Stage 2: 行情扫描 ==========
	s.logger.Info("[STAGE 2/5] Scanning market data...")
	marketData, err := s.marketService.CollectAllSymbols(ctx, s.config.Strategy.Symbols)
	if err != nil {
		s.failRun("行情扫描失败", err)
		s.notifier.SendAlert("【系统告警】行情扫描失败", err.Error())
		return fmt.Errorf("stage 2 failed - scan market: %w", err)
	}
	s.logger.Info("[STAGE 2/5] Market data collected",
		zap.Int("symbols_count", len(marketData)))

	// ========== Stage 3: 预筛选 ==========
	s.logger.Info("[STAGE 3/5] Filtering candidates...")
	candidates := s.filterCandidates(marketData)
	s.logger.Info("[STAGE 3/5] Candidates selected",
		zap.Int("candidate_count", len(candidates)))
	if len(candidates) == 0 {
		s.logger.Info("no candidate passed the filter, run finished early",
			zap.String("run_id", runID))
		return nil
	}

	// ========== Stage 4: 深度分析 ==========
	s.logger.Info("[STAGE 4/5] Performing deep analysis...",
		zap.Int("count", len(candidates)))
	analyses := make([]*models.Analysis, 0, len(candidates))
	for _, symbol := range candidates {
		analysis, err := s.analyzeSymbol(ctx, client, runID, marketData[symbol], sentiment)
		if err != nil {
			s.logger.Error("deep analysis failed, skip symbol",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		analyses = append(analyses, analysis)
	}
	s.logger.Info("[STAGE 4/5] Deep analysis completed",
		zap.Int("analyzed", len(analyses)))
	if len(analyses) == 0 {
		err := fmt.Errorf("全部%d个候选品种深度分析失败", len(candidates))
		s.failRun("深度分析失败", err)
		s.notifier.SendAlert("【系统告警】深度分析全部失败", err.Error())
		return err
	}

	// ========== Stage 5: 排名与报告 ==========
	s.logger.Info("[STAGE 5/5] Ranking signals and sending report...")
	top := s.rankAnalyses(analyses)
	for _, a := range top {
		a.Ranked = true
		if err := s.analysisRepo.UpdateById(ctx, a); err != nil {
			s.logger.Error("failed to mark analysis as ranked",
				zap.String("id", a.ID), zap.Error(err))
		}
	}
	s.sendReport(runID, sentiment, top)

	s.logger.Info("========== ANALYSIS RUN END ==========",
		zap.String("run_id", runID),
		zap.Duration("duration", time.Since(runStart)),
		zap.Int("analyzed", len(analyses)),
		zap.Int("ranked", len(top)))
	return nil
}

func (s *StrategyService) failRun(msg string, err error) {
	s.mu.Lock()
	s.lastError = fmt.Sprintf("%s: %v", msg, err)
	s.mu.Unlock()
	s.logger.Error(msg, zap.Error(err))
}

// ensureSentiment 复用今日已有的宏观情绪，没有时触发一次分析
func (s *StrategyService) ensureSentiment(ctx context.Context, client llm.Client, runID string) (*models.Sentiment, error) {
	today := time.Now().In(cstLocation()).Format("2006-01-02")
	latest, err := s.sentimentRepo.FindLatest(ctx)
	if err == nil && latest != nil && latest.Date == today {
		return latest, nil
	}
	return s.analyzeMacro(ctx, client, runID)
}

func (s *StrategyService) analyzeMacro(ctx context.Context, client llm.Client, runID string) (*models.Sentiment, error) {
	headlines, err := s.newsService.FetchHeadlines(ctx, 30)
	if err != nil {
		return nil, fmt.Errorf("抓取新闻失败: %w", err)
	}

	system := s.promptService.MacroSystem()
	user := s.promptService.MacroPrompt(headlines)
	reply, err := client.Chat(ctx, system, user)
	s.saveLLMLog(ctx, runID, stageMacro, "", system, user, reply, err)
	if err != nil {
		return nil, fmt.Errorf("宏观情绪LLM调用失败: %w", err)
	}

	var result macroResult
	if err := llm.UnmarshalReply(reply.Text, &result); err != nil {
		return nil, fmt.Errorf("宏观情绪返回解析失败: %w", err)
	}
	if result.Score < -10 || result.Score > 10 {
		return nil, fmt.Errorf("宏观情绪评分越界: %.2f", result.Score)
	}

	sentiment := &models.Sentiment{
		ID:        ulid.Make().String(),
		Date:      time.Now().In(cstLocation()).Format("2006-01-02"),
		Score:     result.Score,
		Summary:   result.Summary,
		Headlines: strings.Join(headlines, "\n"),
		Model:     reply.Model,
	}
	if err := s.sentimentRepo.Create(ctx, sentiment); err != nil {
		return nil, fmt.Errorf("保存宏观情绪失败: %w", err)
	}
	s.logger.Info("宏观情绪分析完成",
		zap.Float64("score", sentiment.Score),
		zap.Int("headlines", len(headlines)))
	return sentiment, nil
}

// filterCandidates 基于60分钟线做活跃度预筛选，降低深度分析的LLM成本
func (s *StrategyService) filterCandidates(marketData map[string]*MarketData) []string {
	symbols := make([]string, 0, len(marketData))
	for symbol := range marketData {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	candidates := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		data := marketData[symbol]
		ind, ok := data.Indicators[futures.Period60m]
		if !ok {
			s.logger.Debug("缺少60分钟指标，跳过", zap.String("symbol", symbol))
			continue
		}
		if s.config.Strategy.MinVolume > 0 && ind.Volume < s.config.Strategy.MinVolume {
			s.logger.Debug("成交量不足，跳过",
				zap.String("symbol", symbol),
				zap.Float64("volume", ind.Volume))
			continue
		}
		if s.config.Strategy.MinATR > 0 && ind.Price > 0 &&
			ind.ATR14/ind.Price < s.config.Strategy.MinATR {
			s.logger.Debug("波动率不足，跳过",
				zap.String("symbol", symbol),
				zap.Float64("atr_ratio", ind.ATR14/ind.Price))
			continue
		}
		candidates = append(candidates, symbol)
	}

	if max := s.maxSymbols(); len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates
}

func (s *StrategyService) analyzeSymbol(ctx context.Context, client llm.Client, runID string, market *MarketData, sentiment *models.Sentiment) (*models.Analysis, error) {
	// 持仓排名与期权数据属于增强信息，失败时降级继续
	ranks, err := s.marketService.HoldingRanks(ctx, market.Symbol)
	if err != nil {
		s.logger.Warn("获取持仓排名失败", zap.String("symbol", market.Symbol), zap.Error(err))
		ranks = nil
	}
	pcr, err := s.marketService.PutCallRatio(ctx, market.Symbol)
	if err != nil {
		s.logger.Debug("获取期权PCR失败", zap.String("symbol", market.Symbol), zap.Error(err))
		pcr = nil
	}

	chartPath := ""
	if s.config.Chart.Enabled {
		if path, err := s.chartService.Render(ctx, market); err != nil {
			s.logger.Warn("图表渲染失败，降级为纯文本分析",
				zap.String("symbol", market.Symbol), zap.Error(err))
		} else {
			chartPath = path
		}
	}

	system := s.promptService.AnalysisSystem()
	user := s.promptService.AnalysisPrompt(&AnalysisData{
		Market:    market,
		Ranks:     ranks,
		PCR:       pcr,
		Sentiment: sentiment,
	})
	reply, err := client.Chat(ctx, system, user)
	s.saveLLMLog(ctx, runID, stageDeepAnalysis, market.Symbol, system, user, reply, err)
	if err != nil {
		return nil, fmt.Errorf("深度分析LLM调用失败: %w", err)
	}

	var result analysisResult
	if err := llm.UnmarshalReply(reply.Text, &result); err != nil {
		return nil, fmt.Errorf("深度分析返回解析失败: %w", err)
	}
	direction := strings.ToUpper(strings.TrimSpace(result.Direction))
	switch direction {
	case "LONG", "SHORT", "WAIT":
	default:
		return nil, fmt.Errorf("非法的交易方向: %q", result.Direction)
	}

	indicators, err := json.Marshal(market.Indicators)
	if err != nil {
		indicators = []byte("{}")
	}
	analysis := &models.Analysis{
		ID:             ulid.Make().String(),
		RunID:          runID,
		Symbol:         market.Symbol,
		Direction:      direction,
		SignalStrength: result.SignalStrength,
		Entry:          result.Entry,
		StopLoss:       result.StopLoss,
		TakeProfit:     result.TakeProfit,
		RRRatio:        result.RRRatio,
		Reason:         result.Reason,
		Model:          reply.Model,
		ChartPath:      chartPath,
		Indicators:     datatypes.JSON(indicators),
	}
	if pcr != nil {
		analysis.PCR = pcr.Ratio
	}
	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("保存分析结果失败: %w", err)
	}

	s.logger.Info("深度分析完成",
		zap.String("symbol", market.Symbol),
		zap.String("direction", direction),
		zap.Float64("signal_strength", result.SignalStrength),
		zap.Float64("rr_ratio", result.RRRatio))
	return analysis, nil
}

// rankAnalyses 按信号强度和盈亏比排序取前N，WAIT不参与排名
func (s *StrategyService) rankAnalyses(analyses []*models.Analysis) []*models.Analysis {
	actionable := make([]*models.Analysis, 0, len(analyses))
	for _, a := range analyses {
		if a.Direction == "WAIT" {
			continue
		}
		actionable = append(actionable, a)
	}
	sort.SliceStable(actionable, func(i, j int) bool {
		if actionable[i].SignalStrength != actionable[j].SignalStrength {
			return actionable[i].SignalStrength > actionable[j].SignalStrength
		}
		return actionable[i].RRRatio > actionable[j].RRRatio
	})
	if n := s.topN(); len(actionable) > n {
		actionable = actionable[:n]
	}
	return actionable
}

func (s *StrategyService) sendReport(runID string, sentiment *models.Sentiment, top []*models.Analysis) {
	if len(top) == 0 {
		s.logger.Info("没有可操作信号，跳过报告发送", zap.String("run_id", runID))
		return
	}

	subject := fmt.Sprintf("【期货AI分析】%s 交易信号报告", time.Now().In(cstLocation()).Format("2006-01-02 15:04"))
	plain := buildPlainReport(sentiment, top)
	html := buildHTMLReport(sentiment, top)

	attachments := make([]notifier.Attachment, 0, len(top))
	for _, a := range top {
		if a.ChartPath == "" {
			continue
		}
		data, err := os.ReadFile(a.ChartPath)
		if err != nil {
			s.logger.Warn("读取图表附件失败", zap.String("path", a.ChartPath), zap.Error(err))
			continue
		}
		attachments = append(attachments, notifier.Attachment{
			Filename:    a.ChartPath,
			ContentType: "image/png",
			Data:        data,
		})
	}
	s.notifier.SendReport(subject, plain, html, attachments)
}

func buildPlainReport(sentiment *models.Sentiment, top []*models.Analysis) string {
	var sb strings.Builder
	if sentiment != nil {
		sb.WriteString(fmt.Sprintf("宏观情绪: %.1f  %s\n\n", sentiment.Score, sentiment.Summary))
	}
	for i, a := range top {
		sb.WriteString(fmt.Sprintf("%d. %s %s 信号强度=%.1f\n", i+1, a.Symbol, a.Direction, a.SignalStrength))
		sb.WriteString(fmt.Sprintf("   入场=%.2f 止损=%.2f 止盈=%.2f 盈亏比=%.2f\n", a.Entry, a.StopLoss, a.TakeProfit, a.RRRatio))
		sb.WriteString(fmt.Sprintf("   理由: %s\n\n", a.Reason))
	}
	return sb.String()
}

func buildHTMLReport(sentiment *models.Sentiment, top []*models.Analysis) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	if sentiment != nil {
		sb.WriteString(fmt.Sprintf("<p><b>宏观情绪:</b> %.1f<br>%s</p>", sentiment.Score, htmlEscape(sentiment.Summary)))
	}
	sb.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">")
	sb.WriteString("<tr><th>合约</th><th>方向</th><th>信号强度</th><th>入场</th><th>止损</th><th>止盈</th><th>盈亏比</th></tr>")
	for _, a := range top {
		sb.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%.1f</td><td>%.2f</td><td>%.2f</td><td>%.2f</td><td>%.2f</td></tr>",
			htmlEscape(a.Symbol), a.Direction, a.SignalStrength, a.Entry, a.StopLoss, a.TakeProfit, a.RRRatio))
	}
	sb.WriteString("</table>")
	for _, a := range top {
		sb.WriteString(fmt.Sprintf("<p><b>%s:</b> %s</p>", htmlEscape(a.Symbol), htmlEscape(a.Reason)))
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func (s *StrategyService) saveLLMLog(ctx context.Context, runID, stage, symbol, system, user string, reply *llm.Reply, chatErr error) {
	log := &models.LLMLog{
		ID:           ulid.Make().String(),
		RunID:        runID,
		Stage:        stage,
		Symbol:       symbol,
		SystemPrompt: system,
		UserPrompt:   user,
		ExecutedAt:   time.Now(),
	}
	if reply != nil {
		log.Model = reply.Model
		log.Content = reply.Text
		log.PromptTokens = reply.PromptTokens
		log.CompletionTokens = reply.CompletionTokens
		log.Duration = reply.Duration.Milliseconds()
	}
	if chatErr != nil {
		log.Error = chatErr.Error()
	}
	if err := s.llmLogRepo.Create(ctx, log); err != nil {
		s.logger.Error("保存LLM日志失败", zap.Error(err))
	}
}

// FindLatestSentiment 查询最近一次宏观情绪，没有记录时返回nil
func (s *StrategyService) FindLatestSentiment(ctx context.Context) (*models.Sentiment, error) {
	sentiment, err := s.sentimentRepo.FindLatest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sentiment, nil
}

func cstLocation() *time.Location {
	return time.FixedZone("CST", 8*3600)
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

