package futures

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// sinaOptionURL 新浪商品期权T型报价接口
const sinaOptionURL = "https://stock.finance.sina.com.cn/futures/api/openapi.php/StockOptionService.getOptionUpDown?exchange=%s&cate=%s"

// PCR 期权PCR指标
type PCR struct {
	Contract   string  `json:"contract"`
	PutVolume  int64   `json:"put_volume"`
	CallVolume int64   `json:"call_volume"`
	Ratio      float64 `json:"ratio"` // put成交量 / call成交量
}

// PutCallRatio 根据期权T型报价计算PCR
func (c *Client) PutCallRatio(ctx context.Context, symbol string) (*PCR, error) {
	exchange, err := ResolveExchange(symbol)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf(sinaOptionURL, strings.ToLower(string(exchange)), strings.ToLower(symbol))
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("获取 %s 期权数据失败: %w", symbol, err)
	}
	return parseOptionPCR(body, symbol)
}

// parseOptionPCR 解析期权T型报价并计算PCR。
// up为看涨合约行，down为看跌合约行，成交量取买卖双边之和。
func parseOptionPCR(body []byte, symbol string) (*PCR, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("期权接口返回内容不是合法JSON")
	}

	root := gjson.GetBytes(body, "result.data")
	if !root.Exists() {
		return nil, fmt.Errorf("合约 %s 无期权数据", symbol)
	}

	callVolume := sumOptionVolume(root.Get("up"))
	putVolume := sumOptionVolume(root.Get("down"))
	if callVolume == 0 {
		return nil, fmt.Errorf("合约 %s 看涨期权无成交，无法计算PCR", symbol)
	}

	return &PCR{
		Contract:   symbol,
		PutVolume:  putVolume,
		CallVolume: callVolume,
		Ratio:      float64(putVolume) / float64(callVolume),
	}, nil
}

// sumOptionVolume T型报价每行为字符串数组，下标0买量、4卖量
func sumOptionVolume(rows gjson.Result) int64 {
	var total int64
	rows.ForEach(func(_, row gjson.Result) bool {
		cols := row.Array()
		if len(cols) > 4 {
			total += cols[0].Int() + cols[4].Int()
		}
		return true
	})
	return total
}
