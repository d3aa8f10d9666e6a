package futures

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// staticTransport 固定返回同一份响应体，拦截所有外部请求
type staticTransport struct {
	body string
}

func (t staticTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(t.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

const cffexSampleXML = `<?xml version="1.0" encoding="utf-8"?>
<positionRank>
  <data value="0"><instrumentid>IF2506</instrumentid><rank>1</rank><shortname>甲期货</shortname><volume>1200</volume><varvolume>10</varvolume></data>
  <data value="1"><instrumentid>IF2506</instrumentid><rank>1</rank><shortname>甲期货</shortname><volume>3400</volume><varvolume>-20</varvolume></data>
  <data value="2"><instrumentid>IF2506</instrumentid><rank>1</rank><shortname>乙期货</shortname><volume>3100</volume><varvolume>5</varvolume></data>
  <data value="0"><instrumentid>IF2507</instrumentid><rank>1</rank><shortname>丙期货</shortname><volume>900</volume><varvolume>3</varvolume></data>
  <data value="1"><instrumentid>IF2507</instrumentid><rank>1</rank><shortname>丙期货</shortname><volume>2600</volume><varvolume>12</varvolume></data>
  <data value="2"><instrumentid>IF2507</instrumentid><rank>1</rank><shortname>丁期货</shortname><volume>2500</volume><varvolume>-8</varvolume></data>
</positionRank>`

func newCFFEXTestClient(t *testing.T, body string) *Client {
	t.Helper()
	c := NewClient(zap.NewNop(), Options{
		MinInterval: time.Nanosecond,
		MaxJitter:   time.Nanosecond,
	})
	c.httpClient = &http.Client{Transport: staticTransport{body: body}}
	c.now = func() time.Time {
		return time.Date(2025, 6, 11, 17, 0, 0, 0, cstZone)
	}
	return c
}

func TestFetchCFFEXRankLowercasesContracts(t *testing.T) {
	c := newCFFEXTestClient(t, cffexSampleXML)

	result, err := c.fetchCFFEXRank(context.Background(), "20250611", "IF")
	require.NoError(t, err)

	assert.Contains(t, result, "if2506")
	assert.Contains(t, result, "if2507")
	assert.NotContains(t, result, "IF2506", "合约键应统一为小写")
	require.Len(t, result["if2507"], 1)
	assert.Equal(t, "丙期货", result["if2507"][0]["vol_party_name"])
}

func TestHoldingRankCFFEXExactContract(t *testing.T) {
	// 查询目标月份时必须命中同月合约，而不是落入字典序替代分支
	c := newCFFEXTestClient(t, cffexSampleXML)

	table, err := c.HoldingRank(context.Background(), "if2507", RankVolume)
	require.NoError(t, err)

	assert.Equal(t, "if2507", table.Contract)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "丙期货", table.Rows[0].Member)
	assert.Equal(t, int64(900), table.Rows[0].Value)
}
