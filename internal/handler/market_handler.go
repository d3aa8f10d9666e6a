package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/service"
	"github.com/guyueqh/sentinel/internal/xe"
	"github.com/guyueqh/sentinel/pkg/futures"
)

// MarketHandler 行情数据查询接口
type MarketHandler struct {
	marketService    *service.MarketService
	indicatorService *service.IndicatorService
	client           *futures.Client
	logger           *zap.Logger
}

func NewMarketHandler(
	marketService *service.MarketService,
	indicatorService *service.IndicatorService,
	client *futures.Client,
	logger *zap.Logger,
) *MarketHandler {
	return &MarketHandler{
		marketService:    marketService,
		indicatorService: indicatorService,
		client:           client,
		logger:           logger,
	}
}

var validPeriods = map[string]futures.Period{
	"5":     futures.Period5m,
	"15":    futures.Period15m,
	"30":    futures.Period30m,
	"60":    futures.Period60m,
	"daily": futures.PeriodDay,
}

// GetKlines K线数据，附带指标序列供前端画图
// GET /api/market/klines?symbol=rb2510&period=60
func (h *MarketHandler) GetKlines(c echo.Context) error {
	ctx := c.Request().Context()

	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xe.ErrInvalidParams
	}
	if _, err := futures.ResolveExchange(symbol); err != nil {
		return xe.ErrUnknownSymbol
	}

	period, ok := validPeriods[c.QueryParam("period")]
	if !ok {
		period = futures.Period60m
	}

	bars, err := h.client.Klines(ctx, symbol, period)
	if err != nil {
		h.logger.Error("获取K线失败",
			zap.String("symbol", symbol),
			zap.String("period", string(period)),
			zap.Error(err))
		return xe.ErrNoData
	}

	series, err := h.indicatorService.CalculateSeries(bars)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"symbol":     symbol,
		"period":     period,
		"bars":       bars,
		"indicators": series,
	})
}

// GetRanks 持仓排名
// GET /api/market/ranks?symbol=rb2510
func (h *MarketHandler) GetRanks(c echo.Context) error {
	ctx := c.Request().Context()

	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xe.ErrInvalidParams
	}

	ranks, err := h.marketService.HoldingRanks(ctx, symbol)
	if err != nil {
		h.logger.Error("获取持仓排名失败", zap.String("symbol", symbol), zap.Error(err))
		return xe.ErrNoData
	}
	return c.JSON(http.StatusOK, ranks)
}

// GetPCR 期权PCR
// GET /api/market/pcr?symbol=rb2510
func (h *MarketHandler) GetPCR(c echo.Context) error {
	ctx := c.Request().Context()

	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xe.ErrInvalidParams
	}

	pcr, err := h.marketService.PutCallRatio(ctx, symbol)
	if err != nil {
		return xe.ErrNoData
	}
	return c.JSON(http.StatusOK, pcr)
}

// RegisterRoutes 注册路由
func (h *MarketHandler) RegisterRoutes(g *echo.Group) {
	market := g.Group("/market")
	market.GET("/klines", h.GetKlines)
	market.GET("/ranks", h.GetRanks)
	market.GET("/pcr", h.GetPCR)
}
