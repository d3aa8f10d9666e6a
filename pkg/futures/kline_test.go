package futures

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseSinaKlinesMinute(t *testing.T) {
	body := []byte(`var _kl=([` +
		`{"d":"2025-06-11 10:00:00","o":"3050.0","h":"3060.0","l":"3045.0","c":"3055.0","v":"12345","p":"200100"},` +
		`{"d":"2025-06-11 09:00:00","o":"3040.0","h":"3052.0","l":"3038.0","c":"3050.0","v":"23456","p":"199800"}` +
		`]);`)

	bars, err := parseSinaKlines(body, Period60m)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	// 倒序返回时应调整为时间升序
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 3040.0, bars[0].Open)
	assert.Equal(t, 3055.0, bars[1].Close)
	assert.Equal(t, 12345.0, bars[1].Volume)
	assert.Equal(t, 200100.0, bars[1].OpenInterest)
}

func TestParseSinaKlinesDaily(t *testing.T) {
	body := []byte(`([{"d":"2025-06-10","o":"3000","h":"3100","l":"2990","c":"3080","v":"99999","p":"150000"}]);`)

	bars, err := parseSinaKlines(body, PeriodDay)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 2025, bars[0].Time.Year())
	assert.Equal(t, 3080.0, bars[0].Close)
}

func TestParseSinaKlinesGarbage(t *testing.T) {
	_, err := parseSinaKlines([]byte("<html>Forbidden</html>"), Period60m)
	assert.Error(t, err)

	_, err = parseSinaKlines([]byte("var _kl=([{broken]);"), Period60m)
	assert.Error(t, err)
}

func TestKlineCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewClient(zap.NewNop(), Options{CacheDir: dir, MinInterval: time.Nanosecond, MaxJitter: time.Nanosecond})

	bars := []Bar{
		{Time: time.Date(2025, 6, 11, 10, 0, 0, 0, cstZone), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
	}
	c.saveCache("rb2510", Period60m, bars)

	got, ok := c.loadCache("rb2510", Period60m)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, 1.5, got[0].Close)

	// 命中缓存时不应发起网络请求
	fetched, err := c.Klines(context.Background(), "rb2510", Period60m)
	require.NoError(t, err)
	assert.Len(t, fetched, 1)
}

func TestKlineCacheExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewClient(zap.NewNop(), Options{CacheDir: dir, MinInterval: time.Nanosecond, MaxJitter: time.Nanosecond})

	c.saveCache("rb2510", Period15m, []Bar{{Close: 1}})
	path := c.cachePath("rb2510", Period15m)

	// 回拨修改时间超过12小时后缓存应失效
	stale := time.Now().Add(-13 * time.Hour)
	require.NoError(t, os.Chtimes(path, stale, stale))

	_, ok := c.loadCache("rb2510", Period15m)
	assert.False(t, ok)
}
