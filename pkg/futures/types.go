package futures

import (
	"time"
)

// Exchange 国内期货交易所
type Exchange string

const (
	SHFE  Exchange = "SHFE"  // 上海期货交易所
	DCE   Exchange = "DCE"   // 大连商品交易所
	CZCE  Exchange = "CZCE"  // 郑州商品交易所
	CFFEX Exchange = "CFFEX" // 中国金融期货交易所
	GFEX  Exchange = "GFEX"  // 广州期货交易所
)

// Period K线周期
type Period string

const (
	Period5m  Period = "5"
	Period15m Period = "15"
	Period30m Period = "30"
	Period60m Period = "60"
	PeriodDay Period = "daily"
)

// Minute 是否为分钟级周期
func (p Period) Minute() bool {
	return p != PeriodDay
}

// Bar 单根K线
type Bar struct {
	Time         time.Time `json:"time"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       float64   `json:"volume"`
	OpenInterest float64   `json:"open_interest"`
}

// RankType 持仓排名数据类型
type RankType string

const (
	RankVolume  RankType = "成交量"
	RankLongOI  RankType = "多单持仓"
	RankShortOI RankType = "空单持仓"
)

// RankRow 标准化后的单行排名数据，列固定为 名次/会员简称/数值/增减
type RankRow struct {
	Rank   int    `json:"名次"`
	Member string `json:"会员简称"`
	Value  int64  `json:"数值"`
	Change int64  `json:"增减"`
}

// RankTable 持仓排名表
type RankTable struct {
	Type     RankType  `json:"type"`
	Contract string    `json:"contract"` // 实际使用的合约，可能是替代合约
	Date     string    `json:"date"`     // yyyymmdd，数据实际所属交易日
	Rows     []RankRow `json:"rows"`
}
