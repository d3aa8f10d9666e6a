package futures

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	sinaMinuteURL = "https://stock2.finance.sina.com.cn/futures/api/jsonp.php/var%%20_kl=/InnerFuturesNewService.getFewMinLine?symbol=%s&type=%s"
	sinaDailyURL  = "https://stock2.finance.sina.com.cn/futures/api/jsonp.php/var%%20_kl=/InnerFuturesNewService.getDailyKLine?symbol=%s"
)

// Klines 获取K线数据，优先使用当日本地缓存
func (c *Client) Klines(ctx context.Context, symbol string, period Period) ([]Bar, error) {
	if bars, ok := c.loadCache(symbol, period); ok {
		return bars, nil
	}

	var url string
	if period.Minute() {
		url = fmt.Sprintf(sinaMinuteURL, symbol, period)
	} else {
		url = fmt.Sprintf(sinaDailyURL, symbol)
	}

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("获取 %s %s K线失败: %w", symbol, period, err)
	}

	bars, err := parseSinaKlines(body, period)
	if err != nil {
		return nil, fmt.Errorf("解析 %s %s K线失败: %w", symbol, period, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("合约 %s 无 %s K线数据", symbol, period)
	}

	c.saveCache(symbol, period, bars)
	c.logger.Debug("K线拉取完成",
		zap.String("symbol", symbol),
		zap.String("period", string(period)),
		zap.Int("bars", len(bars)))
	return bars, nil
}

// get 带限速的HTTP GET
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	c.waitTurn()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Referer", "https://finance.sina.com.cn/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("非预期状态码 %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseSinaKlines 解析新浪JSONP返回，截取首个 [ 到末个 ] 之间的JSON数组
func parseSinaKlines(body []byte, period Period) ([]Bar, error) {
	text := string(body)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("返回内容不含JSON数组")
	}
	payload := text[start : end+1]
	if !gjson.Valid(payload) {
		return nil, fmt.Errorf("返回内容不是合法JSON")
	}

	layout := "2006-01-02 15:04:05"
	if !period.Minute() {
		layout = "2006-01-02"
	}

	var bars []Bar
	gjson.Parse(payload).ForEach(func(_, item gjson.Result) bool {
		t, err := time.ParseInLocation(layout, item.Get("d").String(), cstZone)
		if err != nil {
			return true
		}
		bars = append(bars, Bar{
			Time:         t,
			Open:         item.Get("o").Float(),
			High:         item.Get("h").Float(),
			Low:          item.Get("l").Float(),
			Close:        item.Get("c").Float(),
			Volume:       item.Get("v").Float(),
			OpenInterest: item.Get("p").Float(),
		})
		return true
	})

	// 新浪分钟线按时间倒序返回，统一调整为时间升序
	if len(bars) >= 2 && bars[0].Time.After(bars[len(bars)-1].Time) {
		for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
			bars[i], bars[j] = bars[j], bars[i]
		}
	}
	return bars, nil
}
