package futures

import (
	"fmt"
	"strings"
	"unicode"
)

// productExchange 品种代码到交易所的静态映射，统一使用大写键
var productExchange = map[string]Exchange{
	// 上海期货交易所
	"RB": SHFE, "HC": SHFE, "BU": SHFE, "RU": SHFE, "BR": SHFE,
	"FU": SHFE, "SP": SHFE, "CU": SHFE, "AL": SHFE, "AO": SHFE,
	"PB": SHFE, "ZN": SHFE, "SN": SHFE, "NI": SHFE, "SS": SHFE,
	"AU": SHFE, "AG": SHFE, "WR": SHFE,
	// 大连商品交易所
	"A": DCE, "B": DCE, "C": DCE, "CS": DCE, "M": DCE,
	"Y": DCE, "P": DCE, "I": DCE, "J": DCE, "JM": DCE,
	"L": DCE, "V": DCE, "PP": DCE, "EG": DCE, "RR": DCE,
	"EB": DCE, "JD": DCE, "PG": DCE,
	// 郑州商品交易所
	"TA": CZCE, "MA": CZCE, "RM": CZCE, "RS": CZCE, "OI": CZCE,
	"SR": CZCE, "CF": CZCE, "ZC": CZCE, "FG": CZCE, "SA": CZCE,
	"UR": CZCE, "PF": CZCE, "WH": CZCE, "JR": CZCE, "LR": CZCE, "RI": CZCE,
	// 中国金融期货交易所
	"IF": CFFEX, "IH": CFFEX, "IC": CFFEX, "IM": CFFEX,
	"TF": CFFEX, "T": CFFEX, "TS": CFFEX, "TL": CFFEX,
	// 广州期货交易所
	"SI": GFEX, "LC": GFEX, "PS": GFEX,
}

// ProductCode 提取合约代码的品种部分，如 rb2505 -> RB
func ProductCode(symbol string) string {
	for i, r := range symbol {
		if unicode.IsDigit(r) {
			return strings.ToUpper(symbol[:i])
		}
	}
	return strings.ToUpper(symbol)
}

// ResolveExchange 根据合约代码识别所属交易所。
// 匹配优先级：完整品种代码 > 前两个字母 > 第一个字母。
func ResolveExchange(symbol string) (Exchange, error) {
	product := ProductCode(symbol)
	if product == "" {
		return "", fmt.Errorf("无法解析合约代码: %s", symbol)
	}

	if ex, ok := productExchange[product]; ok {
		return ex, nil
	}
	if len(product) >= 2 {
		if ex, ok := productExchange[product[:2]]; ok {
			return ex, nil
		}
	}
	if ex, ok := productExchange[product[:1]]; ok {
		return ex, nil
	}
	return "", fmt.Errorf("无法识别的品种: %s", product)
}
