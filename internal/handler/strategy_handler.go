package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/service"
	"github.com/guyueqh/sentinel/internal/xe"
)

// StrategyHandler 策略流水线控制接口
type StrategyHandler struct {
	strategyService *service.StrategyService
	logger          *zap.Logger
}

func NewStrategyHandler(strategyService *service.StrategyService, logger *zap.Logger) *StrategyHandler {
	return &StrategyHandler{strategyService: strategyService, logger: logger}
}

// Run 手动触发一次完整流水线，异步执行
// POST /api/strategy/run
func (h *StrategyHandler) Run(c echo.Context) error {
	if err := h.strategyService.RunAsync(); err != nil {
		if errors.Is(err, service.ErrAlreadyRunning) {
			return xe.ErrStrategyRunning
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "流水线已启动"})
}

// RunMacro 手动触发宏观情绪分析
// POST /api/strategy/macro
func (h *StrategyHandler) RunMacro(c echo.Context) error {
	sentiment, err := h.strategyService.RunMacro(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sentiment)
}

// GetStatus 流水线运行状态
// GET /api/strategy/status
func (h *StrategyHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.strategyService.Status())
}

// RegisterRoutes 注册路由
func (h *StrategyHandler) RegisterRoutes(g *echo.Group) {
	strategy := g.Group("/strategy")
	strategy.POST("/run", h.Run)
	strategy.POST("/macro", h.RunMacro)
	strategy.GET("/status", h.GetStatus)
}
