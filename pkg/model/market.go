package model

import "strings"

// Market 交易所
type Market string

const (
	MarketSH Market = "sh"
	MarketSZ Market = "sz"
	MarketBJ Market = "bj"
)

// MarketOf 根据股票代码判断所属交易所
func MarketOf(symbol string) Market {
	switch {
	case strings.HasPrefix(symbol, "6") || strings.HasPrefix(symbol, "5") || strings.HasPrefix(symbol, "9"):
		return MarketSH
	case strings.HasPrefix(symbol, "0") || strings.HasPrefix(symbol, "3") || strings.HasPrefix(symbol, "2"):
		return MarketSZ
	case strings.HasPrefix(symbol, "4") || strings.HasPrefix(symbol, "8"):
		return MarketBJ
	default:
		return MarketSH
	}
}

// Prefixed 返回带交易所前缀的代码，例如 sh600000
func Prefixed(symbol string) string {
	return string(MarketOf(symbol)) + symbol
}

// NormalizeSymbols 去除空白与重复代码，保持首次出现的顺序
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
