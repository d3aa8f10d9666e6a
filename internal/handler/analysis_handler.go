package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/config"
	"github.com/guyueqh/sentinel/internal/repo"
	"github.com/guyueqh/sentinel/internal/xe"
	"github.com/guyueqh/sentinel/pkg/nostd"
)

// AnalysisHandler 分析结果查询接口
type AnalysisHandler struct {
	analysisRepo  *repo.AnalysisRepo
	sentimentRepo *repo.SentimentRepo
	llmLogRepo    *repo.LLMLogRepo
	config        *config.Config
	logger        *zap.Logger
}

func NewAnalysisHandler(
	analysisRepo *repo.AnalysisRepo,
	sentimentRepo *repo.SentimentRepo,
	llmLogRepo *repo.LLMLogRepo,
	conf *config.Config,
	logger *zap.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		analysisRepo:  analysisRepo,
		sentimentRepo: sentimentRepo,
		llmLogRepo:    llmLogRepo,
		config:        conf,
		logger:        logger,
	}
}

func (h *AnalysisHandler) chartDir() string {
	if h.config != nil && h.config.Chart.OutputDir != "" {
		return h.config.Chart.OutputDir
	}
	return "charts"
}

// ListAnalyses 最近的分析结果
// GET /api/analyses?limit=50&ranked=true
func (h *AnalysisHandler) ListAnalyses(c echo.Context) error {
	ctx := c.Request().Context()

	limit := cast.ToInt(c.QueryParam("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if cast.ToBool(c.QueryParam("ranked")) {
		items, err := h.analysisRepo.FindRankedRecent(ctx, limit)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, items)
	}

	if symbol := c.QueryParam("symbol"); symbol != "" {
		items, err := h.analysisRepo.FindBySymbol(ctx, symbol, limit)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, items)
	}

	items, err := h.analysisRepo.FindRecent(ctx, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// GetAnalysis 单条分析详情
// GET /api/analyses/:id
func (h *AnalysisHandler) GetAnalysis(c echo.Context) error {
	ctx := c.Request().Context()

	item, err := h.analysisRepo.FindById(ctx, c.Param("id"))
	if err != nil {
		return xe.ErrNoData
	}
	return c.JSON(http.StatusOK, item)
}

// GetAnalysisChart 分析时渲染的K线图
// GET /api/analyses/:id/chart
func (h *AnalysisHandler) GetAnalysisChart(c echo.Context) error {
	ctx := c.Request().Context()

	item, err := h.analysisRepo.FindById(ctx, c.Param("id"))
	if err != nil {
		return xe.ErrNoData
	}
	if item.ChartPath == "" {
		return xe.ErrChartNotFound
	}
	// 只允许访问图表输出目录内的文件
	path, err := nostd.SafePathJoin(h.chartDir(), filepath.Base(item.ChartPath))
	if err != nil {
		h.logger.Warn("图表路径非法", zap.String("path", item.ChartPath))
		return xe.ErrChartNotFound
	}
	if _, err := os.Stat(path); err != nil {
		h.logger.Warn("图表文件缺失", zap.String("path", path))
		return xe.ErrChartNotFound
	}
	return c.File(path)
}

// ListSentiments 宏观情绪历史
// GET /api/sentiments?limit=30
func (h *AnalysisHandler) ListSentiments(c echo.Context) error {
	ctx := c.Request().Context()

	limit := cast.ToInt(c.QueryParam("limit"))
	if limit <= 0 || limit > 200 {
		limit = 30
	}
	items, err := h.sentimentRepo.FindRecent(ctx, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// ListLLMLogs LLM通信日志
// GET /api/llm-logs?run_id=xxx&limit=50
func (h *AnalysisHandler) ListLLMLogs(c echo.Context) error {
	ctx := c.Request().Context()

	if runID := c.QueryParam("run_id"); runID != "" {
		items, err := h.llmLogRepo.FindByRunID(ctx, runID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, items)
	}

	limit := cast.ToInt(c.QueryParam("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	items, err := h.llmLogRepo.FindRecentLogs(ctx, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// RegisterRoutes 注册路由
func (h *AnalysisHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/analyses", h.ListAnalyses)
	g.GET("/analyses/:id", h.GetAnalysis)
	g.GET("/analyses/:id/chart", h.GetAnalysisChart)
	g.GET("/sentiments", h.ListSentiments)
	g.GET("/llm-logs", h.ListLLMLogs)
}
