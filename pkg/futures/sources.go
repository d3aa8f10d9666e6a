package futures

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// fetchSHFERank 上期所日排名，pm{yyyymmdd}.dat 为JSON格式。
// o_cursor 中每行同时携带成交量/多单/空单三组数据。
func (c *Client) fetchSHFERank(ctx context.Context, date string, product string) (map[string][]RawRankRow, error) {
	u := fmt.Sprintf("https://www.shfe.com.cn/data/tradedata/future/dailydata/pm%s.dat", date)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("SHFE返回内容不是合法JSON")
	}

	result := make(map[string][]RawRankRow)
	gjson.GetBytes(body, "o_cursor").ForEach(func(_, item gjson.Result) bool {
		instrument := strings.TrimSpace(item.Get("INSTRUMENTID").String())
		if instrument == "" || !strings.EqualFold(productOf(instrument), product) {
			return true
		}
		rank := item.Get("RANK").Int()
		if rank < 1 || rank > 20 {
			return true
		}
		result[strings.ToLower(instrument)] = append(result[strings.ToLower(instrument)], RawRankRow{
			"rank":                    strconv.FormatInt(rank, 10),
			"vol_party_name":          strings.TrimSpace(item.Get("PARTICIPANTABBR1").String()),
			"vol":                     item.Get("CJ1").String(),
			"vol_chg":                 item.Get("CJ1_CHG").String(),
			"long_party_name":         strings.TrimSpace(item.Get("PARTICIPANTABBR2").String()),
			"long_open_interest":      item.Get("CJ2").String(),
			"long_open_interest_chg":  item.Get("CJ2_CHG").String(),
			"short_party_name":        strings.TrimSpace(item.Get("PARTICIPANTABBR3").String()),
			"short_open_interest":     item.Get("CJ3").String(),
			"short_open_interest_chg": item.Get("CJ3_CHG").String(),
		})
		return true
	})
	return result, nil
}

// cffexData 中金所持仓排名XML结构，Value属性区分数据类型：0成交量 1多单 2空单
type cffexData struct {
	Data []struct {
		Value        string `xml:"value,attr"`
		InstrumentID string `xml:"instrumentid"`
		Rank         string `xml:"rank"`
		ShortName    string `xml:"shortname"`
		Volume       string `xml:"volume"`
		VarVolume    string `xml:"varvolume"`
	} `xml:"data"`
}

// fetchCFFEXRank 中金所按品种提供XML格式的持仓排名
func (c *Client) fetchCFFEXRank(ctx context.Context, date string, product string) (map[string][]RawRankRow, error) {
	u := fmt.Sprintf("http://www.cffex.com.cn/sj/ccpm/%s/%s/%s.xml", date[:6], date[6:], product)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var doc cffexData
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("解析CFFEX数据失败: %w", err)
	}

	// 同一合约同一名次的三类数据分散在不同节点，按(合约,名次)合并。
	// 中金所返回大写合约代码，统一转成小写，与其他交易所的键保持一致
	merged := make(map[string]map[string]RawRankRow)
	for _, d := range doc.Data {
		instrument := strings.ToLower(strings.TrimSpace(d.InstrumentID))
		if instrument == "" {
			continue
		}
		if merged[instrument] == nil {
			merged[instrument] = make(map[string]RawRankRow)
		}
		row, ok := merged[instrument][d.Rank]
		if !ok {
			row = RawRankRow{"rank": d.Rank}
		}
		name := strings.TrimSpace(d.ShortName)
		switch d.Value {
		case "0":
			row["vol_party_name"] = name
			row["vol"] = d.Volume
			row["vol_chg"] = d.VarVolume
		case "1":
			row["long_party_name"] = name
			row["long_open_interest"] = d.Volume
			row["long_open_interest_chg"] = d.VarVolume
		case "2":
			row["short_party_name"] = name
			row["short_open_interest"] = d.Volume
			row["short_open_interest_chg"] = d.VarVolume
		}
		merged[instrument][d.Rank] = row
	}

	result := make(map[string][]RawRankRow)
	for instrument, byRank := range merged {
		for rank := 1; rank <= 20; rank++ {
			if row, ok := byRank[strconv.Itoa(rank)]; ok {
				result[instrument] = append(result[instrument], row)
			}
		}
	}
	return result, nil
}

// fetchCZCERank 郑商所静态页面，每个合约一张10列表格
func (c *Client) fetchCZCERank(ctx context.Context, date string, product string) (map[string][]RawRankRow, error) {
	u := fmt.Sprintf("http://www.czce.com.cn/cn/DFSStaticFiles/Future/%s/%s/FutureDataHolding.htm", date[:4], date)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	return parseRankTables(body, product)
}

// fetchDCERank 大商所会员成交持仓排名查询
func (c *Client) fetchDCERank(ctx context.Context, date string, product string) (map[string][]RawRankRow, error) {
	form := url.Values{
		"memberDealPosiQuotes.variety":    {strings.ToLower(product)},
		"memberDealPosiQuotes.trade_type": {"0"},
		"year":                            {date[:4]},
		"month":                           {strconv.Itoa(atoiOr(date[4:6]) - 1)}, // 大商所月份从0开始
		"day":                             {date[6:]},
		"batchExportFlag":                 {"batch"},
	}
	body, err := c.postForm(ctx, "http://www.dce.com.cn/publicweb/quotesdata/exportMemberDealPosiQuotesBatchData.html", form)
	if err != nil {
		return nil, err
	}
	return parseRankTables(body, product)
}

// fetchGFEXRank 广期所JSON接口，三类数据分三次查询后合并
func (c *Client) fetchGFEXRank(ctx context.Context, date string, product string) (map[string][]RawRankRow, error) {
	merged := make(map[string]map[string]RawRankRow)

	// trade_type: 0成交量 1多单 2空单
	for _, tradeType := range []string{"0", "1", "2"} {
		form := url.Values{
			"variety":    {strings.ToLower(product)},
			"trade_type": {tradeType},
			"trade_date": {date},
		}
		body, err := c.postForm(ctx, "http://www.gfex.com.cn/u/interfacesMarketData/loadList", form)
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("GFEX返回内容不是合法JSON")
		}

		gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
			instrument := strings.ToLower(strings.TrimSpace(item.Get("contractId").String()))
			rank := item.Get("rank").String()
			if instrument == "" || rank == "" {
				return true
			}
			if merged[instrument] == nil {
				merged[instrument] = make(map[string]RawRankRow)
			}
			row, ok := merged[instrument][rank]
			if !ok {
				row = RawRankRow{"rank": rank}
			}
			name := strings.TrimSpace(item.Get("abbr").String())
			switch tradeType {
			case "0":
				row["vol_party_name"] = name
				row["vol"] = item.Get("todayQty").String()
				row["vol_chg"] = item.Get("qtySub").String()
			case "1":
				row["long_party_name"] = name
				row["long_open_interest"] = item.Get("todayQty").String()
				row["long_open_interest_chg"] = item.Get("qtySub").String()
			case "2":
				row["short_party_name"] = name
				row["short_open_interest"] = item.Get("todayQty").String()
				row["short_open_interest_chg"] = item.Get("qtySub").String()
			}
			merged[instrument][rank] = row
			return true
		})
	}

	result := make(map[string][]RawRankRow)
	for instrument, byRank := range merged {
		for rank := 1; rank <= 20; rank++ {
			if row, ok := byRank[strconv.Itoa(rank)]; ok {
				result[instrument] = append(result[instrument], row)
			}
		}
	}
	return result, nil
}

// parseRankTables 解析郑商所/大商所风格的HTML排名页。
// 每个合约一张表，行结构为 名次|成交量会员|成交量|增减|多单会员|多单|增减|空单会员|空单|增减。
func parseRankTables(body []byte, product string) (map[string][]RawRankRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	result := make(map[string][]RawRankRow)
	current := ""

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td, th").Map(func(_ int, td *goquery.Selection) string {
			return strings.TrimSpace(td.Text())
		})
		if len(cells) == 0 {
			return
		}

		// 合约标题行，如 "合约代码:rb2505" 或 "品种:PTA 合约:TA505"
		first := cells[0]
		if strings.Contains(first, "合约") {
			current = extractContract(strings.Join(cells, " "), product)
			return
		}
		if current == "" || len(cells) < 10 {
			return
		}
		if _, err := strconv.Atoi(first); err != nil {
			return
		}

		result[current] = append(result[current], RawRankRow{
			"rank":                    first,
			"vol_party_name":          cells[1],
			"vol":                     cleanNumber(cells[2]),
			"vol_chg":                 cleanNumber(cells[3]),
			"long_party_name":         cells[4],
			"long_open_interest":      cleanNumber(cells[5]),
			"long_open_interest_chg":  cleanNumber(cells[6]),
			"short_party_name":        cells[7],
			"short_open_interest":     cleanNumber(cells[8]),
			"short_open_interest_chg": cleanNumber(cells[9]),
		})
	})
	return result, nil
}

// extractContract 从标题文本中提取属于目标品种的合约代码
func extractContract(text, product string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ':' || r == '：' || r == ' ' || r == ' '
	})
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if strings.EqualFold(productOf(f), product) && f != product {
			return strings.ToLower(f)
		}
	}
	return ""
}

func productOf(contract string) string {
	return ProductCode(contract)
}

func cleanNumber(s string) string {
	return strings.NewReplacer(",", "", " ", "").Replace(s)
}

func atoiOr(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// postForm 带限速的表单POST
func (c *Client) postForm(ctx context.Context, u string, form url.Values) ([]byte, error) {
	c.waitTurn()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", randomUserAgent())

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
