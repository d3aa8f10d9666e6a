package futures

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, now time.Time, source RankSource) *Client {
	t.Helper()
	c := NewClient(zap.NewNop(), Options{
		MinInterval: time.Nanosecond,
		MaxJitter:   time.Nanosecond,
	})
	c.now = func() time.Time { return now.In(cstZone) }
	for ex := range c.rankSources {
		c.rankSources[ex] = source
	}
	return c
}

func sampleRows(n int) []RawRankRow {
	rows := make([]RawRankRow, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, RawRankRow{
			"rank":                    fmt.Sprintf("%d", i),
			"vol_party_name":          fmt.Sprintf("期货公司%d", i),
			"vol":                     fmt.Sprintf("%d", 10000-i*100),
			"vol_chg":                 fmt.Sprintf("%d", i*7-50),
			"long_party_name":         fmt.Sprintf("多头会员%d", i),
			"long_open_interest":      fmt.Sprintf("%d", 20000-i*200),
			"long_open_interest_chg":  fmt.Sprintf("%d", 30-i),
			"short_party_name":        fmt.Sprintf("空头会员%d", i),
			"short_open_interest":     fmt.Sprintf("%d", 18000-i*150),
			"short_open_interest_chg": fmt.Sprintf("%d", i-15),
		})
	}
	return rows
}

func TestHoldingRankExactContract(t *testing.T) {
	// 周三盘后，当日数据已发布
	now := time.Date(2025, 6, 11, 17, 0, 0, 0, cstZone)
	c := newTestClient(t, now, func(ctx context.Context, date, product string) (map[string][]RawRankRow, error) {
		return map[string][]RawRankRow{"rb2510": sampleRows(25)}, nil
	})

	table, err := c.HoldingRank(context.Background(), "rb2510", RankLongOI)
	require.NoError(t, err)

	assert.Equal(t, "rb2510", table.Contract)
	assert.Equal(t, "20250611", table.Date)
	assert.Len(t, table.Rows, 20, "最多保留前20名")
	assert.Equal(t, 1, table.Rows[0].Rank)
	assert.Equal(t, "多头会员1", table.Rows[0].Member)
	assert.Equal(t, int64(19800), table.Rows[0].Value)
	assert.Equal(t, int64(29), table.Rows[0].Change)
}

func TestHoldingRankCutoffSkipsToday(t *testing.T) {
	// 周三 10:00，交易所尚未发布当日数据，应从周二开始
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, cstZone)
	var dates []string
	c := newTestClient(t, now, func(ctx context.Context, date, product string) (map[string][]RawRankRow, error) {
		dates = append(dates, date)
		return map[string][]RawRankRow{"rb2510": sampleRows(5)}, nil
	})

	table, err := c.HoldingRank(context.Background(), "rb2510", RankVolume)
	require.NoError(t, err)
	assert.Equal(t, []string{"20250610"}, dates)
	assert.Equal(t, "20250610", table.Date)
}

func TestHoldingRankWalkSkipsWeekends(t *testing.T) {
	// 周一盘后开始回退，数据源始终为空
	now := time.Date(2025, 6, 9, 18, 0, 0, 0, cstZone)
	var dates []string
	c := newTestClient(t, now, func(ctx context.Context, date, product string) (map[string][]RawRankRow, error) {
		dates = append(dates, date)
		return nil, nil
	})

	_, err := c.HoldingRank(context.Background(), "m2509", RankShortOI)
	require.Error(t, err)

	assert.LessOrEqual(t, len(dates), maxFallbackDays)
	seen := make(map[string]bool)
	for _, d := range dates {
		assert.False(t, seen[d], "同一天不应重复查询")
		seen[d] = true
		day, perr := time.ParseInLocation("20060102", d, cstZone)
		require.NoError(t, perr)
		assert.NotEqual(t, time.Saturday, day.Weekday())
		assert.NotEqual(t, time.Sunday, day.Weekday())
	}
}

func TestHoldingRankSwallowsPerDayErrors(t *testing.T) {
	now := time.Date(2025, 6, 11, 17, 0, 0, 0, cstZone)
	calls := 0
	c := newTestClient(t, now, func(ctx context.Context, date, product string) (map[string][]RawRankRow, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset")
		}
		return map[string][]RawRankRow{"ta509": sampleRows(3)}, nil
	})

	table, err := c.HoldingRank(context.Background(), "ta509", RankVolume)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "20250609", table.Date, "前两日失败后取第三个交易日")
}

func TestHoldingRankSubstituteContract(t *testing.T) {
	now := time.Date(2025, 6, 11, 17, 0, 0, 0, cstZone)
	c := newTestClient(t, now, func(ctx context.Context, date, product string) (map[string][]RawRankRow, error) {
		return map[string][]RawRankRow{
			"rb2601": sampleRows(4),
			"rb2610": sampleRows(4),
		}, nil
	})

	table, err := c.HoldingRank(context.Background(), "rb2505", RankVolume)
	require.NoError(t, err)
	assert.Equal(t, "rb2601", table.Contract, "按字典序取第一个可用合约替代")
}

func TestHoldingRanksAllTypes(t *testing.T) {
	now := time.Date(2025, 6, 11, 17, 0, 0, 0, cstZone)
	c := newTestClient(t, now, func(ctx context.Context, date, product string) (map[string][]RawRankRow, error) {
		return map[string][]RawRankRow{"if2506": sampleRows(6)}, nil
	})

	tables, err := c.HoldingRanks(context.Background(), "if2506")
	require.NoError(t, err)
	require.Len(t, tables, 3)

	assert.Equal(t, "期货公司2", tables[RankVolume].Rows[1].Member)
	assert.Equal(t, "多头会员2", tables[RankLongOI].Rows[1].Member)
	assert.Equal(t, "空头会员2", tables[RankShortOI].Rows[1].Member)
}

func TestNormalizeRankMissingColumns(t *testing.T) {
	rows := []RawRankRow{{"rank": "1", "foo": "bar"}}
	_, err := normalizeRank(RankVolume, "rb2510", "20250611", rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "缺少")
}

func TestHoldingRankUnknownProduct(t *testing.T) {
	now := time.Date(2025, 6, 11, 17, 0, 0, 0, cstZone)
	c := newTestClient(t, now, func(ctx context.Context, date, product string) (map[string][]RawRankRow, error) {
		t.Fatal("不应发起请求")
		return nil, nil
	})

	_, err := c.HoldingRank(context.Background(), "xx9999", RankVolume)
	assert.Error(t, err)
}
