package service

import (
	"fmt"

	"github.com/guyueqh/sentinel/pkg/futures"
	"github.com/guyueqh/sentinel/pkg/ta"
)

// IndicatorService 技术指标计算服务
type IndicatorService struct{}

// NewIndicatorService 创建技术指标服务
func NewIndicatorService() *IndicatorService {
	return &IndicatorService{}
}

// IndicatorSet 单个周期的指标快照
type IndicatorSet struct {
	Period     string  `json:"period"`
	Price      float64 `json:"price"`
	MA5        float64 `json:"ma5"`
	MA10       float64 `json:"ma10"`
	MA20       float64 `json:"ma20"`
	EMA20      float64 `json:"ema20"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
	RSI14      float64 `json:"rsi14"`
	ATR14      float64 `json:"atr14"`
	BollUpper  float64 `json:"boll_upper"`
	BollMid    float64 `json:"boll_mid"`
	BollLower  float64 `json:"boll_lower"`
	KDJK       float64 `json:"kdj_k"`
	KDJD       float64 `json:"kdj_d"`
	KDJJ       float64 `json:"kdj_j"`
	CCI14      float64 `json:"cci14"`
	Volume     float64 `json:"volume"`
	VolumeMA5  float64 `json:"volume_ma5"`
	AvgVolume  float64 `json:"avg_volume"`
}

// IndicatorSeries 用于绘图与提示词的指标序列
type IndicatorSeries struct {
	MA5   []float64 `json:"ma5"`
	MA10  []float64 `json:"ma10"`
	MA20  []float64 `json:"ma20"`
	MACD  []float64 `json:"macd"`
	DEA   []float64 `json:"dea"`
	Hist  []float64 `json:"hist"`
	RSI14 []float64 `json:"rsi14"`
}

// Calculate 计算单个周期的全部指标。
// 空序列直接报错，避免NaN数据流入下游。
func (s *IndicatorService) Calculate(period string, bars []futures.Bar) (*IndicatorSet, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("周期 %s 的K线序列为空，无法计算指标", period)
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	ma5 := ta.MA(closes, 5)
	ma10 := ta.MA(closes, 10)
	ma20 := ta.MA(closes, 20)
	ema20 := ta.EMA(closes, 20)
	macd, dea, hist := ta.MACD(closes, 12, 26, 9)
	rsi14 := ta.RSI(closes, 14)
	atr14 := ta.ATR(highs, lows, closes, 14)
	upper, mid, lower := ta.Boll(closes, 20, 2.0)
	k, d, j := ta.KDJ(highs, lows, closes, 9, 3, 3)
	cci14 := ta.CCI(highs, lows, closes, 14)
	volMA5 := ta.MA(volumes, 5)

	return &IndicatorSet{
		Period:     period,
		Price:      ta.Last(closes, 0),
		MA5:        ta.Last(ma5, 0),
		MA10:       ta.Last(ma10, 0),
		MA20:       ta.Last(ma20, 0),
		EMA20:      ta.Last(ema20, 0),
		MACD:       ta.Last(macd, 0),
		MACDSignal: ta.Last(dea, 0),
		MACDHist:   ta.Last(hist, 0),
		RSI14:      ta.Last(rsi14, 0),
		ATR14:      ta.Last(atr14, 0),
		BollUpper:  ta.Last(upper, 0),
		BollMid:    ta.Last(mid, 0),
		BollLower:  ta.Last(lower, 0),
		KDJK:       ta.Last(k, 0),
		KDJD:       ta.Last(d, 0),
		KDJJ:       ta.Last(j, 0),
		CCI14:      ta.Last(cci14, 0),
		Volume:     ta.Last(volumes, 0),
		VolumeMA5:  ta.Last(volMA5, 0),
		AvgVolume:  ta.Mean(volumes),
	}, nil
}

// CalculateSeries 计算绘图用的指标序列
func (s *IndicatorService) CalculateSeries(bars []futures.Bar) (*IndicatorSeries, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("K线序列为空，无法计算指标序列")
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	macd, dea, hist := ta.MACD(closes, 12, 26, 9)
	return &IndicatorSeries{
		MA5:   ta.MA(closes, 5),
		MA10:  ta.MA(closes, 10),
		MA20:  ta.MA(closes, 20),
		MACD:  macd,
		DEA:   dea,
		Hist:  hist,
		RSI14: ta.RSI(closes, 14),
	}, nil
}

// Validate 验证指标数据质量
func (s *IndicatorService) Validate(ind *IndicatorSet) []string {
	issues := make([]string, 0)

	if ind.Price <= 0 {
		issues = append(issues, "invalid price")
	}
	if ind.RSI14 < 0 || ind.RSI14 > 100 {
		issues = append(issues, "RSI14 out of range")
	}
	if ind.BollUpper < ind.BollMid || ind.BollMid < ind.BollLower {
		issues = append(issues, "bollinger bands out of order")
	}
	if ind.Volume < 0 {
		issues = append(issues, "negative volume")
	}

	return issues
}
