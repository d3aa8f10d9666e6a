package ta

import (
	"github.com/markcheno/go-talib"
)

// MA 简单移动平均线
func MA(values []float64, period int) []float64 {
	if len(values) < period {
		return make([]float64, len(values))
	}
	return talib.Sma(values, period)
}

// EMA 指数移动平均线
func EMA(closes []float64, period int) []float64 {
	if len(closes) < period {
		return make([]float64, len(closes))
	}
	return talib.Ema(closes, period)
}

// MACD 指数平滑异同移动平均线，返回 DIF、DEA、柱状图
func MACD(closes []float64, fast, slow, signal int) (macd, dea, hist []float64) {
	if len(closes) < slow+signal {
		n := len(closes)
		return make([]float64, n), make([]float64, n), make([]float64, n)
	}
	return talib.Macd(closes, fast, slow, signal)
}

// RSI 相对强弱指标，取值范围 [0, 100]
func RSI(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return make([]float64, len(closes))
	}
	return talib.Rsi(closes, period)
}

// ATR 平均真实波幅，TR = max(h-l, |h-prevC|, |l-prevC|)
func ATR(highs, lows, closes []float64, period int) []float64 {
	if len(closes) <= period {
		return make([]float64, len(closes))
	}
	return talib.Atr(highs, lows, closes, period)
}

// Boll 布林带，返回上轨、中轨、下轨
func Boll(closes []float64, period int, k float64) (upper, mid, lower []float64) {
	if len(closes) < period {
		n := len(closes)
		return make([]float64, n), make([]float64, n), make([]float64, n)
	}
	return talib.BBands(closes, period, k, k, talib.SMA)
}

// CCI 顺势指标
func CCI(highs, lows, closes []float64, period int) []float64 {
	if len(closes) < period {
		return make([]float64, len(closes))
	}
	return talib.Cci(highs, lows, closes, period)
}

// KDJ 随机指标，J = 3K - 2D
func KDJ(highs, lows, closes []float64, n, m1, m2 int) (k, d, j []float64) {
	if len(closes) < n+m1+m2 {
		l := len(closes)
		return make([]float64, l), make([]float64, l), make([]float64, l)
	}
	k, d = talib.Stoch(highs, lows, closes, n, m1, talib.SMA, m2, talib.SMA)
	j = make([]float64, len(k))
	for i := range k {
		j[i] = 3*k[i] - 2*d[i]
	}
	return k, d, j
}
