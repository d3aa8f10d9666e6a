package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/pkg/futures"
)

// scanPeriods 市场扫描使用的周期，从长到短
var scanPeriods = []futures.Period{
	futures.Period60m,
	futures.Period30m,
	futures.Period15m,
	futures.Period5m,
}

// MarketService 市场数据收集服务
type MarketService struct {
	logger *zap.Logger

	client           *futures.Client
	indicatorService *IndicatorService
}

// NewMarketService 创建市场数据服务
func NewMarketService(client *futures.Client, indicatorService *IndicatorService, logger *zap.Logger) *MarketService {
	return &MarketService{
		logger:           logger,
		client:           client,
		indicatorService: indicatorService,
	}
}

// MarketData 单个合约的多周期市场数据
type MarketData struct {
	Symbol       string                           `json:"symbol"`
	Exchange     futures.Exchange                 `json:"exchange"`
	CurrentPrice float64                          `json:"current_price"`
	Bars         map[futures.Period][]futures.Bar `json:"-"`
	Indicators   map[futures.Period]*IndicatorSet `json:"indicators"`
}

// CollectMarketData 收集指定合约的多周期K线与指标
func (s *MarketService) CollectMarketData(ctx context.Context, symbol string) (*MarketData, error) {
	exchange, err := futures.ResolveExchange(symbol)
	if err != nil {
		return nil, err
	}

	data := &MarketData{
		Symbol:     symbol,
		Exchange:   exchange,
		Bars:       make(map[futures.Period][]futures.Bar),
		Indicators: make(map[futures.Period]*IndicatorSet),
	}

	for _, period := range scanPeriods {
		bars, err := s.client.Klines(ctx, symbol, period)
		if err != nil {
			s.logger.Warn("K线获取失败",
				zap.String("symbol", symbol),
				zap.String("period", string(period)),
				zap.Error(err))
			continue
		}

		ind, err := s.indicatorService.Calculate(string(period), bars)
		if err != nil {
			s.logger.Warn("指标计算失败",
				zap.String("symbol", symbol),
				zap.String("period", string(period)),
				zap.Error(err))
			continue
		}
		if issues := s.indicatorService.Validate(ind); len(issues) > 0 {
			s.logger.Warn("指标数据质量异常",
				zap.String("symbol", symbol),
				zap.String("period", string(period)),
				zap.Strings("issues", issues))
		}

		data.Bars[period] = bars
		data.Indicators[period] = ind
		data.CurrentPrice = ind.Price
	}

	if len(data.Indicators) == 0 {
		return nil, fmt.Errorf("合约 %s 无任何可用周期的数据", symbol)
	}
	return data, nil
}

// CollectAllSymbols 扫描整个合约池，单个合约失败不中断
func (s *MarketService) CollectAllSymbols(ctx context.Context, symbols []string) (map[string]*MarketData, error) {
	result := make(map[string]*MarketData, len(symbols))
	for _, symbol := range symbols {
		data, err := s.CollectMarketData(ctx, symbol)
		if err != nil {
			s.logger.Error("合约数据收集失败", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		result[symbol] = data
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("合约池中没有任何合约取到数据")
	}
	return result, nil
}

// HoldingRanks 获取合约的三类持仓排名
func (s *MarketService) HoldingRanks(ctx context.Context, symbol string) (map[futures.RankType]*futures.RankTable, error) {
	return s.client.HoldingRanks(ctx, symbol)
}

// PutCallRatio 获取合约的期权PCR
func (s *MarketService) PutCallRatio(ctx context.Context, symbol string) (*futures.PCR, error) {
	return s.client.PutCallRatio(ctx, symbol)
}
