package futures

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// maxFallbackDays 日期回退最多尝试的自然日数量
const maxFallbackDays = 30

// RawRankRow 交易所原始排名数据的单行，键为数据源列名
type RawRankRow map[string]string

// RankSource 单个交易所的排名数据源。
// 返回值按合约代码分组，date格式为 yyyymmdd。
type RankSource func(ctx context.Context, date string, product string) (map[string][]RawRankRow, error)

// columnSet 一组可接受的原始列名，按 名次/会员简称/数值/增减 的顺序排列
type columnSet [4]string

// rankColumns 各数据类型按优先级排列的候选列名组
var rankColumns = map[RankType][]columnSet{
	RankVolume: {
		{"rank", "vol_party_name", "vol", "vol_chg"},
	},
	RankLongOI: {
		{"rank", "long_party_name", "long_open_interest", "long_open_interest_chg"},
		{"rank", "long_party_name", "long_oi", "long_oi_chg"},
	},
	RankShortOI: {
		{"rank", "short_party_name", "short_open_interest", "short_open_interest_chg"},
		{"rank", "short_party_name", "short_oi", "short_oi_chg"},
	},
}

// HoldingRank 获取指定类型的持仓排名数据。
// 自动按交易所路由，并在近30个自然日内回退查找最近一个有数据的交易日。
func (c *Client) HoldingRank(ctx context.Context, symbol string, rankType RankType) (*RankTable, error) {
	contract, date, rows, err := c.walkRankDays(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return normalizeRank(rankType, contract, date, rows)
}

// HoldingRanks 一次日期回退内取回全部三类排名（成交量/多单/空单）
func (c *Client) HoldingRanks(ctx context.Context, symbol string) (map[RankType]*RankTable, error) {
	contract, date, rows, err := c.walkRankDays(ctx, symbol)
	if err != nil {
		return nil, err
	}

	result := make(map[RankType]*RankTable, 3)
	for _, rt := range []RankType{RankVolume, RankLongOI, RankShortOI} {
		table, err := normalizeRank(rt, contract, date, rows)
		if err != nil {
			return nil, err
		}
		result[rt] = table
	}
	return result, nil
}

// walkRankDays 日期回退主循环：
// 当前时间早于16:30时交易所尚未发布当日数据，从昨日开始；
// 最多回看30个自然日，跳过周六周日，单日失败不中断。
func (c *Client) walkRankDays(ctx context.Context, symbol string) (contract, date string, rows []RawRankRow, err error) {
	exchange, err := ResolveExchange(symbol)
	if err != nil {
		return "", "", nil, err
	}
	source, ok := c.rankSources[exchange]
	if !ok {
		return "", "", nil, fmt.Errorf("不支持的交易所: %s", exchange)
	}
	product := ProductCode(symbol)

	now := c.now()
	start := 0
	cutoff := time.Date(now.Year(), now.Month(), now.Day(),
		publishCutoffHour, publishCutoffMinute, 0, 0, now.Location())
	if now.Before(cutoff) {
		start = 1
	}

	for offset := start; offset < start+maxFallbackDays; offset++ {
		target := now.AddDate(0, 0, -offset)
		if wd := target.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		dateStr := target.Format("20060102")

		byContract, fetchErr := source(ctx, dateStr, product)
		if fetchErr != nil {
			c.logger.Debug("排名数据获取失败，回退上一交易日",
				zap.String("symbol", symbol),
				zap.String("date", dateStr),
				zap.Error(fetchErr))
			continue
		}
		if len(byContract) == 0 {
			continue
		}

		if rows, ok := byContract[symbol]; ok && len(rows) > 0 {
			return symbol, dateStr, rows, nil
		}

		// 未找到目标合约时，用该品种第一个可用合约替代
		contracts := make([]string, 0, len(byContract))
		for k := range byContract {
			contracts = append(contracts, k)
		}
		sort.Strings(contracts)
		for _, alt := range contracts {
			if len(byContract[alt]) == 0 {
				continue
			}
			c.logger.Info("目标合约无排名数据，使用替代合约",
				zap.String("symbol", symbol),
				zap.String("substitute", alt),
				zap.String("date", dateStr))
			return alt, dateStr, byContract[alt], nil
		}
	}

	return "", "", nil, fmt.Errorf("近%d日内未获取到 %s 的持仓排名数据", maxFallbackDays, symbol)
}

// normalizeRank 将原始排名行标准化为固定四列，只保留前20名
func normalizeRank(rankType RankType, contract, date string, rows []RawRankRow) (*RankTable, error) {
	candidates, ok := rankColumns[rankType]
	if !ok {
		return nil, fmt.Errorf("无效的数据类型: %s", rankType)
	}

	var cols *columnSet
	for i := range candidates {
		if len(rows) > 0 && hasColumns(rows[0], candidates[i]) {
			cols = &candidates[i]
			break
		}
	}
	if cols == nil {
		return nil, fmt.Errorf("数据中缺少%s相关列", rankType)
	}

	table := &RankTable{
		Type:     rankType,
		Contract: contract,
		Date:     date,
	}
	for _, row := range rows {
		if len(table.Rows) >= 20 {
			break
		}
		member := row[cols[1]]
		if member == "" {
			continue
		}
		table.Rows = append(table.Rows, RankRow{
			Rank:   cast.ToInt(row[cols[0]]),
			Member: member,
			Value:  cast.ToInt64(row[cols[2]]),
			Change: cast.ToInt64(row[cols[3]]),
		})
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("合约 %s 在 %s 无%s数据", contract, date, rankType)
	}
	return table, nil
}

func hasColumns(row RawRankRow, cols columnSet) bool {
	for _, col := range cols {
		if _, ok := row[col]; !ok {
			return false
		}
	}
	return true
}
