package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"

	"github.com/guge88888888/a-stock-data-collector/pkg/apperr"
)

// 中文数量单位，长的放前面
var magnitudes = []struct {
	suffix string
	factor decimal.Decimal
}{
	{"万亿", decimal.New(1, 12)},
	{"亿", decimal.New(1, 8)},
	{"万", decimal.New(1, 4)},
}

// 数据源用来表示“无数据”的占位值
var placeholders = map[string]struct{}{
	"":     {},
	"-":    {},
	"--":   {},
	"null": {},
	"none": {},
	"nan":  {},
}

// ParseNumber 将数据源返回的字符串转换为浮点数。
// 支持全角字符、千分位、百分号以及“万”“亿”单位；占位值返回 DATA_INVALID 错误。
func ParseNumber(raw string) (float64, error) {
	s := width.Narrow.String(strings.TrimSpace(raw))
	if _, ok := placeholders[strings.ToLower(s)]; ok {
		return 0, apperr.Newf(apperr.CodeDataInvalid, "非数值: %q", raw)
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "+")

	factor := decimal.NewFromInt(1)
	for _, m := range magnitudes {
		if strings.HasSuffix(s, m.suffix) {
			s = strings.TrimSuffix(s, m.suffix)
			factor = m.factor
			break
		}
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeDataInvalid, "数值转换失败", err).WithContext("value", raw)
	}

	f, _ := d.Mul(factor).Float64()
	return f, nil
}
